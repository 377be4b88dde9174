package interceptors

import (
	"context"

	"google.golang.org/grpc"

	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
	grpcmeta "github.com/louisbranch/decicourt/internal/services/court/api/grpc/metadata"
)

// Errors converts handler errors into gRPC statuses. Domain errors keep their
// code and carry a message localized for the caller's accept-language.
func Errors() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, apperrors.GRPCStatus(err, grpcmeta.AcceptLanguage(ctx))
		}
		return resp, nil
	}
}
