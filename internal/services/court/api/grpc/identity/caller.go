package identity

import (
	"context"
	"strings"

	"google.golang.org/grpc"

	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
	grpcmeta "github.com/louisbranch/decicourt/internal/services/court/api/grpc/metadata"
)

type callerKey struct{}

type caller struct {
	account  string
	verified bool
}

// WithCaller stores account as the caller in ctx.
func WithCaller(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller{account: account})
}

// CallerFromContext returns the caller resolved by the interceptor, or "".
func CallerFromContext(ctx context.Context) string {
	c, _ := ctx.Value(callerKey{}).(caller)
	return c.account
}

// Require returns the caller or an error suitable for the transport. With
// verification enabled a missing token is Unauthenticated; otherwise the
// missing account header is ACTOR_REQUIRED.
func Require(ctx context.Context) (string, error) {
	c, _ := ctx.Value(callerKey{}).(caller)
	if c.account != "" {
		return c.account, nil
	}
	if c.verified {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "bearer token is required")
	}
	return "", apperrors.New(apperrors.CodeActorRequired, "Caller account is required")
}

// UnaryServerInterceptor resolves the caller. With a verifier, the account
// comes from the bearer token and an invalid token fails the call; without
// one, it comes from the account header. Calls without credentials proceed
// so that reads stay anonymous.
func UnaryServerInterceptor(verifier *Verifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if verifier == nil {
			account := grpcmeta.Incoming(ctx, grpcmeta.AccountHeader)
			return handler(context.WithValue(ctx, callerKey{}, caller{account: account}), req)
		}
		c := caller{verified: true}
		if header := grpcmeta.Incoming(ctx, grpcmeta.AuthorizationHeader); header != "" {
			token, ok := bearerToken(header)
			if !ok {
				return nil, apperrors.New(apperrors.CodeUnauthenticated, "authorization must be a bearer token")
			}
			account, err := verifier.Verify(token)
			if err != nil {
				return nil, err
			}
			c.account = account
		}
		return handler(context.WithValue(ctx, callerKey{}, c), req)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
