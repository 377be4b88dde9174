// Package rpc describes services whose requests and responses are
// google.protobuf.Struct messages, and reads typed fields out of them.
package rpc

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
)

// Method handles one unary call.
type Method func(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

// Service builds a grpc.ServiceDesc for serviceName. Registering it with a
// server dispatches each method name to methods[name].
func Service(serviceName string, methods map[string]Method) grpc.ServiceDesc {
	desc := grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*any)(nil),
		Metadata:    "decicourt",
	}
	for name, method := range methods {
		fullMethod := "/" + serviceName + "/" + name
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: name,
			Handler:    handler(fullMethod, method),
		})
	}
	return desc
}

func handler(fullMethod string, method Method) grpc.MethodHandler {
	return func(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(ctx, in)
		}
		info := &grpc.UnaryServerInfo{FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return method(ctx, req.(*structpb.Struct))
		})
	}
}

// Invoke calls serviceName/method on conn with fields as the request.
func Invoke(ctx context.Context, conn grpc.ClientConnInterface, serviceName, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Response builds a response Struct. Unsupported values fail the call.
func Response(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

func invalid(field, reason string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidArgument, field+" "+reason, map[string]string{"field": field})
}

// String returns the trimmed string field, or "".
func String(in *structpb.Struct, field string) string {
	return strings.TrimSpace(in.GetFields()[field].GetStringValue())
}

// RequiredString returns the string field or an InvalidArgument error.
func RequiredString(in *structpb.Struct, field string) (string, error) {
	value := String(in, field)
	if value == "" {
		return "", invalid(field, "is required")
	}
	return value, nil
}

// Uint reads a non-negative integer given as a decimal string or a whole
// number. Missing fields read as 0.
func Uint(in *structpb.Struct, field string) (uint64, error) {
	value, ok := in.GetFields()[field]
	if !ok {
		return 0, nil
	}
	switch kind := value.GetKind().(type) {
	case *structpb.Value_StringValue:
		raw := strings.TrimSpace(kind.StringValue)
		if raw == "" {
			return 0, nil
		}
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, invalid(field, "must be a non-negative integer")
		}
		return parsed, nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n < 0 || n != math.Trunc(n) || n > 1<<53 {
			return 0, invalid(field, "must be a non-negative integer")
		}
		return uint64(n), nil
	case *structpb.Value_NullValue:
		return 0, nil
	default:
		return 0, invalid(field, "must be a non-negative integer")
	}
}

// RequiredUint is Uint that rejects zero.
func RequiredUint(in *structpb.Struct, field string) (uint64, error) {
	value, err := Uint(in, field)
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return 0, invalid(field, "is required")
	}
	return value, nil
}

// Amount renders a token amount as a decimal string.
func Amount(v uint64) string {
	return strconv.FormatUint(v, 10)
}
