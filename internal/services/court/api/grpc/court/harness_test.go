package court

import (
	"context"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/louisbranch/decicourt/internal/platform/id"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/identity"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/interceptors"
	grpcmeta "github.com/louisbranch/decicourt/internal/services/court/api/grpc/metadata"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/rpc"
	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	courtdomain "github.com/louisbranch/decicourt/internal/services/court/domain/court"
	"github.com/louisbranch/decicourt/internal/services/court/domain/engine"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/domain/selection"
	"github.com/louisbranch/decicourt/internal/services/court/storage/sqlite"
)

const (
	testCourt = "court-1"
	funds     = 2000
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	t      *testing.T
	clock  *fakeClock
	store  *sqlite.Store
	params courtdomain.Params
	conn   *grpc.ClientConn
}

func newHarness(t *testing.T, accounts ...string) *harness {
	t.Helper()
	ctx := context.Background()
	params := courtdomain.DefaultParams()
	clock := &fakeClock{now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}

	events := event.NewRegistry()
	require.NoError(t, courtdomain.RegisterEvents(events))
	commands := command.NewRegistry()
	require.NoError(t, courtdomain.RegisterCommands(commands))

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "court.db"), events)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	for _, account := range accounts {
		require.NoError(t, store.Mint(ctx, account, funds))
		require.NoError(t, store.Approve(ctx, account, params.EscrowAccount, funds))
	}

	core, err := engine.NewCore(engine.CoreConfig{
		Handler: engine.Handler{
			Commands: commands,
			Events:   events,
			Decider:  courtdomain.Decider{Params: params, Selection: selection.NewSeeded(5)},
			Now:      clock.Now,
		},
		Journal: store,
		Ledger:  store,
		Escrow:  params.EscrowAccount,
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)
	processor := engine.NewProcessor(core)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- processor.Run(runCtx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	service, err := NewService(Config{
		CourtID:   testCourt,
		Params:    params,
		Processor: processor,
		Journal:   store,
		Now:       clock.Now,
	})
	require.NoError(t, err)

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcmeta.UnaryServerInterceptor(id.NewID),
		interceptors.Errors(),
		identity.UnaryServerInterceptor(nil),
	))
	Register(server, service)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{t: t, clock: clock, store: store, params: params, conn: conn}
}

func (h *harness) call(account, method string, fields map[string]any) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if account != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, grpcmeta.AccountHeader, account)
	}
	return rpc.Invoke(ctx, h.conn, ServiceName, method, fields)
}

func (h *harness) mustCall(account, method string, fields map[string]any) *structpb.Struct {
	h.t.Helper()
	out, err := h.call(account, method, fields)
	require.NoError(h.t, err, "%s as %q", method, account)
	return out
}

func errorReason(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status: %v", err)
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	t.Fatalf("status %v has no ErrorInfo", st)
	return ""
}

func stringField(s *structpb.Struct, field string) string {
	return s.GetFields()[field].GetStringValue()
}

func listField(s *structpb.Struct, field string) []*structpb.Struct {
	values := s.GetFields()[field].GetListValue().GetValues()
	out := make([]*structpb.Struct, len(values))
	for i, v := range values {
		out[i] = v.GetStructValue()
	}
	return out
}
