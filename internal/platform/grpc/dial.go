// Package grpc holds client-side helpers for reaching the court server.
package grpc

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DialStage describes where a dial attempt failed.
type DialStage string

const (
	// DialStageConnect indicates the client could not be constructed.
	DialStageConnect DialStage = "connect"
	// DialStageHealth indicates the server never reported SERVING.
	DialStageHealth DialStage = "health"
)

// DialError wraps dial and health check failures with a stage indicator.
type DialError struct {
	Stage DialStage
	Err   error
}

func (e *DialError) Error() string {
	return fmt.Sprintf("gRPC %s error: %v", e.Stage, e.Err)
}

func (e *DialError) Unwrap() error {
	return e.Err
}

// ClientOptions returns the dial options courtctl uses: plaintext transport
// and otel client stats.
func ClientOptions() []gogrpc.DialOption {
	return []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// Dial creates a client for addr and waits until service reports SERVING or
// timeout elapses. The connection is closed on failure.
func Dial(ctx context.Context, addr, service string, timeout time.Duration, logger *zap.Logger, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	if len(opts) == 0 {
		opts = ClientOptions()
	}
	conn, err := gogrpc.NewClient(addr, opts...)
	if err != nil {
		return nil, &DialError{Stage: DialStageConnect, Err: err}
	}
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := WaitForHealth(waitCtx, conn, service, logger); err != nil {
		_ = conn.Close()
		return nil, &DialError{Stage: DialStageHealth, Err: err}
	}
	return conn, nil
}
