package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/court"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/domain/ledger"
)

const (
	rejectionCodeReentrantCall           = "REENTRANT_CALL"
	rejectionCodeLedgerInsufficientFunds = "LEDGER_INSUFFICIENT_BALANCE"
	rejectionCodeLedgerInsufficientAllow = "LEDGER_INSUFFICIENT_ALLOWANCE"
	rejectionCodeLedgerInvalidAmount     = "LEDGER_INVALID_AMOUNT"
	rejectionCodeLedgerInvalidAccount    = "LEDGER_INVALID_ACCOUNT"
)

// Journal appends a decision's events atomically.
type Journal interface {
	AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error)
}

// Result captures execution outcomes.
type Result struct {
	Command  command.Command
	Decision command.Decision
	Pull     *ledger.Movement
	Payouts  []ledger.Movement
}

// Rejected reports whether the command was declined.
func (r Result) Rejected() bool {
	return len(r.Decision.Rejections) > 0
}

// Core owns a World and applies commands to it with
// checks-effects-interactions ordering:
//
//  1. validate and decide against the current World
//  2. pull the inbound escrow amount, if any
//  3. append the events to the journal, refunding the pull on failure
//  4. fold the events into a copy of the World and swap it in
//  5. pay out of escrow
//
// Core is not safe for concurrent use; Processor serializes access.
type Core struct {
	handler  Handler
	journal  Journal
	ledger   ledger.Ledger
	escrow   string
	logger   *zap.Logger
	world    court.World
	inFlight map[string]struct{}
}

// CoreConfig wires a Core.
type CoreConfig struct {
	Handler Handler
	Journal Journal
	Ledger  ledger.Ledger
	Escrow  string
	Logger  *zap.Logger
	World   court.World
}

// NewCore validates cfg and returns a Core starting from cfg.World.
func NewCore(cfg CoreConfig) (*Core, error) {
	if cfg.Handler.Commands == nil {
		return nil, ErrCommandRegistryRequired
	}
	if cfg.Handler.Decider == nil {
		return nil, ErrDeciderRequired
	}
	if cfg.Journal == nil {
		return nil, ErrJournalRequired
	}
	if cfg.Ledger == nil {
		return nil, ErrLedgerRequired
	}
	if cfg.Escrow == "" {
		return nil, errors.New("escrow account is required")
	}
	world := cfg.World
	if world.Jurors == nil {
		world = court.NewWorld()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Core{
		handler:  cfg.Handler,
		journal:  cfg.Journal,
		ledger:   cfg.Ledger,
		escrow:   cfg.Escrow,
		logger:   logger,
		world:    world,
		inFlight: make(map[string]struct{}),
	}, nil
}

// World returns the live World. Callers must not retain or mutate it outside
// the goroutine that owns the Core.
func (c *Core) World() court.World {
	return c.world
}

type inFlightKey struct{}

// withinCommand reports whether ctx belongs to a command that is still
// executing, i.e. the caller is a ledger callback.
func withinCommand(ctx context.Context) bool {
	_, ok := ctx.Value(inFlightKey{}).(*Core)
	return ok
}

// Execute runs cmd to completion. Domain rejections are returned in the
// Result with a nil error; a non-nil error means infrastructure failed.
func (c *Core) Execute(ctx context.Context, cmd command.Command) (Result, error) {
	validated, err := c.handler.Commands.ValidateForDecision(cmd)
	if err != nil {
		return Result{Command: cmd}, err
	}
	keys := guardKeys(validated)
	for _, key := range keys {
		if _, busy := c.inFlight[key]; busy {
			return Result{Command: validated, Decision: command.Reject(command.Rejection{
				Code:    rejectionCodeReentrantCall,
				Message: "Reentrant call",
			})}, nil
		}
	}
	for _, key := range keys {
		c.inFlight[key] = struct{}{}
	}
	defer func() {
		for _, key := range keys {
			delete(c.inFlight, key)
		}
	}()
	ctx = context.WithValue(ctx, inFlightKey{}, c)

	validated, decision, err := c.handler.Handle(c.world, validated)
	result := Result{Command: validated, Decision: decision}
	if err != nil || result.Rejected() || len(decision.Events) == 0 {
		return result, err
	}

	pull, payouts, err := court.Transfers(decision.Events, c.escrow)
	if err != nil {
		return result, fmt.Errorf("derive transfers: %w", err)
	}
	if pull != nil {
		if err := c.ledger.TransferFrom(ctx, pull.Spender, pull.From, pull.To, pull.Amount); err != nil {
			if rejection, ok := ledgerRejection(err); ok {
				result.Decision = command.Reject(rejection)
				return result, nil
			}
			return result, fmt.Errorf("escrow pull: %w", err)
		}
		result.Pull = pull
	}

	stored, err := c.journal.AppendEvents(ctx, decision.Events)
	if err != nil {
		if pull != nil {
			if refundErr := c.ledger.Transfer(ctx, c.escrow, pull.From, pull.Amount); refundErr != nil {
				c.logger.Error("escrow refund failed after journal error",
					zap.String("account", pull.From),
					zap.Uint64("amount", pull.Amount),
					zap.Error(refundErr),
				)
				return result, wrapNonRetryable(fmt.Errorf("append events: %w; refund: %v", err, refundErr))
			}
		}
		return result, fmt.Errorf("append events: %w", err)
	}
	result.Decision.Events = stored

	next := c.world.Clone()
	for _, evt := range stored {
		if err := court.Fold(&next, evt); err != nil {
			return result, wrapNonRetryable(fmt.Errorf("fold after append: %w", err))
		}
	}
	c.world = next

	var failed []error
	for _, mv := range payouts {
		if err := c.ledger.Transfer(ctx, mv.From, mv.To, mv.Amount); err != nil {
			c.logger.Error("payout failed",
				zap.String("command_type", string(validated.Type)),
				zap.String("recipient", mv.To),
				zap.Uint64("amount", mv.Amount),
				zap.Error(err),
			)
			failed = append(failed, err)
			continue
		}
		result.Payouts = append(result.Payouts, mv)
	}
	if len(failed) > 0 {
		return result, wrapNonRetryable(apperrors.Wrap(apperrors.CodePayoutFailed, "payout failed", errors.Join(failed...)))
	}
	return result, nil
}

// guardKeys names the entities a command touches: the caller's account and,
// for case commands, the case.
func guardKeys(cmd command.Command) []string {
	keys := []string{"account:" + cmd.ActorID}
	if caseID := caseIDOf(cmd); caseID != "" {
		keys = append(keys, "case:"+caseID)
	}
	return keys
}

func ledgerRejection(err error) (command.Rejection, bool) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return command.Rejection{Code: rejectionCodeLedgerInsufficientFunds, Message: "Insufficient balance"}, true
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		return command.Rejection{Code: rejectionCodeLedgerInsufficientAllow, Message: "Insufficient allowance"}, true
	case errors.Is(err, ledger.ErrInvalidAmount):
		return command.Rejection{Code: rejectionCodeLedgerInvalidAmount, Message: "Invalid amount"}, true
	case errors.Is(err, ledger.ErrInvalidAccount):
		return command.Rejection{Code: rejectionCodeLedgerInvalidAccount, Message: "Invalid account"}, true
	default:
		return command.Rejection{}, false
	}
}
