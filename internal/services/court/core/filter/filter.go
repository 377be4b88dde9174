// Package filter translates AIP-160 event filters into SQL conditions over the
// court journal.
package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ErrInvalidFilter wraps every parse or translation failure.
var ErrInvalidFilter = errors.New("invalid filter")

// Condition is a SQL WHERE fragment with positional parameters.
type Condition struct {
	Clause string
	Params []any
}

// Empty reports whether the condition matches everything.
func (c Condition) Empty() bool {
	return c.Clause == ""
}

// columns maps filter identifiers to journal columns.
var columns = map[string]string{
	"type":        "event_type",
	"actor_type":  "actor_type",
	"actor_id":    "actor_id",
	"entity_type": "entity_type",
	"entity_id":   "entity_id",
	"case_id":     "case_id",
	"ts":          "timestamp",
}

var comparisons = map[string]string{
	filtering.FunctionEquals:        "=",
	filtering.FunctionNotEquals:     "!=",
	filtering.FunctionLessThan:      "<",
	filtering.FunctionLessEquals:    "<=",
	filtering.FunctionGreaterThan:   ">",
	filtering.FunctionGreaterEquals: ">=",
}

// Declarations returns the identifiers an event filter may reference.
func Declarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("type", filtering.TypeString),
		filtering.DeclareIdent("actor_type", filtering.TypeString),
		filtering.DeclareIdent("actor_id", filtering.TypeString),
		filtering.DeclareIdent("entity_type", filtering.TypeString),
		filtering.DeclareIdent("entity_id", filtering.TypeString),
		filtering.DeclareIdent("case_id", filtering.TypeInt),
		filtering.DeclareIdent("ts", filtering.TypeTimestamp),
	)
}

// Parse translates filter into a SQL condition. An empty filter yields an
// empty condition. Timestamps are compared as Unix milliseconds.
func Parse(filter string) (Condition, error) {
	if strings.TrimSpace(filter) == "" {
		return Condition{}, nil
	}
	decls, err := Declarations()
	if err != nil {
		return Condition{}, fmt.Errorf("declarations: %w", err)
	}
	parsed, err := filtering.ParseFilterString(filter, decls)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	cond, err := translate(parsed.CheckedExpr.GetExpr())
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return cond, nil
}

func translate(e *expr.Expr) (Condition, error) {
	call := e.GetCallExpr()
	if call == nil {
		return Condition{}, fmt.Errorf("unsupported expression %T", e.GetExprKind())
	}
	switch call.GetFunction() {
	case filtering.FunctionAnd, filtering.FunctionOr:
		return translateJunction(call)
	case filtering.FunctionNot:
		if len(call.GetArgs()) != 1 {
			return Condition{}, errors.New("NOT takes one argument")
		}
		inner, err := translate(call.GetArgs()[0])
		if err != nil {
			return Condition{}, err
		}
		return Condition{Clause: "NOT " + inner.Clause, Params: inner.Params}, nil
	}
	if op, ok := comparisons[call.GetFunction()]; ok {
		return translateComparison(call.GetArgs(), op)
	}
	return Condition{}, fmt.Errorf("unsupported function %s", call.GetFunction())
}

func translateJunction(call *expr.Expr_Call) (Condition, error) {
	if len(call.GetArgs()) != 2 {
		return Condition{}, fmt.Errorf("%s takes two arguments", call.GetFunction())
	}
	left, err := translate(call.GetArgs()[0])
	if err != nil {
		return Condition{}, err
	}
	right, err := translate(call.GetArgs()[1])
	if err != nil {
		return Condition{}, err
	}
	params := append(append([]any{}, left.Params...), right.Params...)
	return Condition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, call.GetFunction(), right.Clause),
		Params: params,
	}, nil
}

func translateComparison(args []*expr.Expr, op string) (Condition, error) {
	if len(args) != 2 {
		return Condition{}, errors.New("comparison takes two arguments")
	}
	ident := args[0].GetIdentExpr()
	if ident == nil {
		return Condition{}, errors.New("left side of a comparison must be a field")
	}
	column, ok := columns[ident.GetName()]
	if !ok {
		return Condition{}, fmt.Errorf("unknown field %s", ident.GetName())
	}
	value, err := literal(args[1])
	if err != nil {
		return Condition{}, fmt.Errorf("%s: %w", ident.GetName(), err)
	}
	return Condition{Clause: fmt.Sprintf("%s %s ?", column, op), Params: []any{value}}, nil
}

func literal(e *expr.Expr) (any, error) {
	if c := e.GetConstExpr(); c != nil {
		switch kind := c.GetConstantKind().(type) {
		case *expr.Constant_StringValue:
			return kind.StringValue, nil
		case *expr.Constant_Int64Value:
			return kind.Int64Value, nil
		case *expr.Constant_Uint64Value:
			return int64(kind.Uint64Value), nil
		default:
			return nil, fmt.Errorf("unsupported constant %T", kind)
		}
	}
	if call := e.GetCallExpr(); call != nil && call.GetFunction() == filtering.FunctionTimestamp && len(call.GetArgs()) == 1 {
		raw := call.GetArgs()[0].GetConstExpr().GetStringValue()
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q", raw)
		}
		return ts.UnixMilli(), nil
	}
	return nil, errors.New("right side of a comparison must be a literal")
}
