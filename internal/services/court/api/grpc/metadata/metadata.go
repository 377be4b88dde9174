// Package metadata defines the headers the court reads from and echoes to
// gRPC callers.
package metadata

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/decicourt/internal/platform/id"
)

const (
	// RequestIDHeader correlates logs and journal events for one call.
	RequestIDHeader = "x-decicourt-request-id"
	// InvocationIDHeader groups calls made by one client invocation.
	InvocationIDHeader = "x-decicourt-invocation-id"
	// AccountHeader names the caller when no identity verifier is configured.
	AccountHeader = "x-decicourt-account"
	// AuthorizationHeader carries the bearer token.
	AuthorizationHeader = "authorization"
	// AcceptLanguageHeader selects the locale of error messages.
	AcceptLanguageHeader = "accept-language"
)

type contextKey string

const (
	requestIDKey    contextKey = "decicourt-request-id"
	invocationIDKey contextKey = "decicourt-invocation-id"
)

// RequestIDFromContext returns the request id stored by the interceptor.
func RequestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// InvocationIDFromContext returns the invocation id stored by the interceptor.
func InvocationIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(invocationIDKey).(string)
	return value
}

// WithRequestID stores the request id in ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithInvocationID stores the invocation id in ctx.
func WithInvocationID(ctx context.Context, invocationID string) context.Context {
	return context.WithValue(ctx, invocationIDKey, invocationID)
}

// AcceptLanguage returns the caller's accept-language header.
func AcceptLanguage(ctx context.Context) string {
	return Incoming(ctx, AcceptLanguageHeader)
}

// Incoming returns the first printable value of key in the incoming metadata.
func Incoming(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return FirstValue(md, key)
}

// FirstValue returns the first printable ASCII value of key. Values with
// control characters are skipped so they never reach logs.
func FirstValue(md metadata.MD, key string) string {
	for _, value := range md.Get(key) {
		if printableASCII(value) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func printableASCII(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return false
		}
	}
	return true
}

// UnaryServerInterceptor guarantees every call has a request id, stores the
// ids in the context and echoes them as response headers.
func UnaryServerInterceptor(newID func() (string, error)) grpc.UnaryServerInterceptor {
	if newID == nil {
		newID = id.NewID
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := Incoming(ctx, RequestIDHeader)
		if requestID == "" {
			generated, err := newID()
			if err != nil {
				return nil, status.Errorf(codes.Internal, "generate request id: %v", err)
			}
			requestID = generated
		}
		ctx = WithRequestID(ctx, requestID)
		headers := metadata.Pairs(RequestIDHeader, requestID)
		if invocationID := Incoming(ctx, InvocationIDHeader); invocationID != "" {
			ctx = WithInvocationID(ctx, invocationID)
			headers.Append(InvocationIDHeader, invocationID)
		}
		if err := grpc.SetHeader(ctx, headers); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(ctx, req)
	}
}
