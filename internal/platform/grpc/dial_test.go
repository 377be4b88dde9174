package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

const testService = "decicourt.court.v1.CourtService"

func startHealthServer(t *testing.T, status grpc_health_v1.HealthCheckResponse_ServingStatus) (*health.Server, []gogrpc.DialOption) {
	t.Helper()
	listener := bufconn.Listen(1 << 16)
	server := gogrpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus(testService, status)
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	return healthServer, []gogrpc.DialOption{
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
	}
}

func TestDialWaitsForServing(t *testing.T) {
	healthServer, opts := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	go func() {
		time.Sleep(150 * time.Millisecond)
		healthServer.SetServingStatus(testService, grpc_health_v1.HealthCheckResponse_SERVING)
	}()

	conn, err := Dial(context.Background(), "passthrough:///bufnet", testService, 3*time.Second, nil, opts...)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestDialReportsHealthStage(t *testing.T) {
	_, opts := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	_, err := Dial(context.Background(), "passthrough:///bufnet", testService, 200*time.Millisecond, nil, opts...)
	var dialErr *DialError
	require.ErrorAs(t, err, &dialErr)
	assert.Equal(t, DialStageHealth, dialErr.Stage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "gRPC health error")
}

func TestWaitForHealthRequiresConnection(t *testing.T) {
	err := WaitForHealth(context.Background(), nil, "", nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
