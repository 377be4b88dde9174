package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const maxHealthBackoff = time.Second

// WaitForHealth polls the health service until service is SERVING or ctx ends.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logger *zap.Logger) error {
	if conn == nil {
		return errors.New("gRPC connection is not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := grpc_health_v1.NewHealthClient(conn)
	backoff := 100 * time.Millisecond
	for {
		callCtx, cancel := context.WithTimeout(ctx, maxHealthBackoff)
		resp, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		cancel()
		if err == nil && resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
			return nil
		}
		if err != nil {
			logger.Debug("waiting for health", zap.String("service", service), zap.Error(err))
		} else {
			logger.Debug("waiting for health", zap.String("service", service), zap.Stringer("status", resp.GetStatus()))
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for health: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxHealthBackoff)
	}
}
