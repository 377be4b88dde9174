package interceptors

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	grpcmeta "github.com/louisbranch/decicourt/internal/services/court/api/grpc/metadata"
)

// Logging records one line per call with method, status code, duration and
// request id. Server-side failures log at error level.
func Logging(logger *zap.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Stringer("code", code),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", grpcmeta.RequestIDFromContext(ctx)),
		}
		switch code {
		case codes.OK:
			logger.Debug("grpc call", fields...)
		case codes.Internal, codes.DataLoss, codes.Unknown:
			logger.Error("grpc call", append(fields, zap.Error(err))...)
		default:
			logger.Info("grpc call", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}
