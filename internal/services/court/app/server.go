package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
	"github.com/louisbranch/decicourt/internal/platform/id"
	"github.com/louisbranch/decicourt/internal/platform/logging"
	"github.com/louisbranch/decicourt/internal/platform/timeouts"
	courtservice "github.com/louisbranch/decicourt/internal/services/court/api/grpc/court"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/identity"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/interceptors"
	grpcmeta "github.com/louisbranch/decicourt/internal/services/court/api/grpc/metadata"
	tokenservice "github.com/louisbranch/decicourt/internal/services/court/api/grpc/token"
	"github.com/louisbranch/decicourt/internal/services/court/domain/checkpoint"
	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/court"
	"github.com/louisbranch/decicourt/internal/services/court/domain/engine"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/domain/replay"
	"github.com/louisbranch/decicourt/internal/services/court/domain/selection"
	"github.com/louisbranch/decicourt/internal/services/court/genesis"
	"github.com/louisbranch/decicourt/internal/services/court/storage/integrity"
	"github.com/louisbranch/decicourt/internal/services/court/storage/sqlite"
)

// Config wires a court server.
type Config struct {
	// Addr is the listen address, e.g. ":8090".
	Addr    string
	DBPath  string
	CourtID string
	Params  court.Params
	// Selection names the juror selection source; SelectionSeed feeds the
	// seeded and beacon sources.
	Selection     string
	SelectionSeed string
	// GenesisPath optionally points at a YAML file of starting balances.
	GenesisPath string
	// Keyring signs journal events. Nil leaves events unsigned.
	Keyring *integrity.Keyring
	// Verifier checks bearer tokens. Nil trusts the account header.
	Verifier *identity.Verifier
	Logger   *zap.Logger
	Now      func() time.Time
}

// Server hosts the court and token services.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *sqlite.Store
	processor  *engine.Processor
	logger     *zap.Logger
}

// New opens storage, rebuilds the court from its journal and prepares the
// gRPC server. Nothing is served until Serve.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := logging.OrNop(cfg.Logger)
	courtID := strings.TrimSpace(cfg.CourtID)
	if courtID == "" {
		return nil, errors.New("court id is required")
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("court params: %w", err)
	}
	source, err := selection.New(cfg.Selection, cfg.SelectionSeed)
	if err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	commands := command.NewRegistry()
	if err := court.RegisterCommands(commands); err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}
	events := event.NewRegistry()
	if err := court.RegisterEvents(events); err != nil {
		return nil, fmt.Errorf("register events: %w", err)
	}

	store, err := openStore(ctx, cfg.DBPath, events, cfg.Keyring)
	if err != nil {
		return nil, err
	}
	world, err := restore(ctx, store, courtID, cfg.GenesisPath, cfg.Params.EscrowAccount, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	core, err := engine.NewCore(engine.CoreConfig{
		Handler: engine.Handler{
			Commands: commands,
			Events:   events,
			Decider:  court.Decider{Params: cfg.Params, Selection: source},
			Now:      now,
		},
		Journal: store,
		Ledger:  store,
		Escrow:  cfg.Params.EscrowAccount,
		Logger:  logger,
		World:   world,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build engine: %w", err)
	}
	processor := engine.NewProcessor(core,
		engine.WithQueueTimeout(timeouts.CommandQueue),
		engine.WithLogger(logger),
	)

	courtSvc, err := courtservice.NewService(courtservice.Config{
		CourtID:   courtID,
		Params:    cfg.Params,
		Processor: processor,
		Journal:   store,
		Now:       now,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	tokenSvc, err := tokenservice.NewService(store, cfg.Params.EscrowAccount)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcmeta.UnaryServerInterceptor(id.NewID),
			interceptors.Logging(logger),
			interceptors.Errors(),
			identity.UnaryServerInterceptor(cfg.Verifier),
		),
	)
	courtservice.Register(grpcServer, courtSvc)
	tokenservice.Register(grpcServer, tokenSvc)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(courtservice.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(tokenservice.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
		processor:  processor,
		logger:     logger,
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a court server until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	srv, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve runs the processor and the gRPC server until ctx ends or either
// fails. In-flight calls drain before the processor stops.
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close store", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	processorCtx, stopProcessor := context.WithCancel(context.WithoutCancel(ctx))
	defer stopProcessor()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.processor.Run(processorCtx)
	})
	g.Go(func() error {
		defer cancel()
		s.logger.Info("court server listening", zap.String("addr", s.Addr()))
		if err := s.grpcServer.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.health.Shutdown()
		s.stopGRPC()
		stopProcessor()
		return nil
	})
	return g.Wait()
}

// stopGRPC drains in-flight calls, forcing a stop after timeouts.Shutdown.
func (s *Server) stopGRPC() {
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	timer := time.NewTimer(timeouts.Shutdown)
	defer timer.Stop()
	select {
	case <-stopped:
	case <-timer.C:
		s.logger.Warn("graceful stop timed out")
		s.grpcServer.Stop()
		<-stopped
	}
}

func openStore(ctx context.Context, path string, registry *event.Registry, keyring *integrity.Keyring) (*sqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "court.db")
	}
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	var opts []sqlite.Option
	if keyring != nil {
		opts = append(opts, sqlite.WithKeyring(keyring))
	}
	store, err := sqlite.Open(ctx, path, registry, opts...)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

// restore verifies the journal, applies genesis balances and folds the
// journal into a fresh World.
func restore(ctx context.Context, store *sqlite.Store, courtID, genesisPath, escrow string, logger *zap.Logger) (court.World, error) {
	report, err := store.VerifyJournal(ctx, courtID)
	if err != nil {
		return court.World{}, fmt.Errorf("verify journal: %w", err)
	}
	if !report.OK() {
		return court.World{}, apperrors.WithMetadata(apperrors.CodeJournalCorrupted,
			fmt.Sprintf("journal broken at seq %d: %s", report.BrokenSeq, report.Reason),
			map[string]string{"court_id": courtID})
	}

	if genesisPath = strings.TrimSpace(genesisPath); genesisPath != "" {
		file, err := genesis.Load(genesisPath)
		if err != nil {
			return court.World{}, err
		}
		minted, err := genesis.Apply(ctx, store, escrow, file)
		if err != nil {
			return court.World{}, fmt.Errorf("apply genesis: %w", err)
		}
		if minted {
			logger.Info("genesis applied",
				zap.Int("accounts", len(file.Accounts)),
				zap.Uint64("supply", file.TotalSupply()),
			)
		}
	}

	result, err := replay.Replay(ctx, store, checkpoint.NewMemory(), court.Applier{}, courtID, court.NewWorld(), replay.Options{})
	if err != nil {
		return court.World{}, fmt.Errorf("replay journal: %w", err)
	}
	logger.Info("court restored",
		zap.String("court_id", courtID),
		zap.Uint64("last_seq", result.LastSeq),
		zap.Int("cases", len(result.State.Cases)),
		zap.Int("pool", result.State.Pool.Len()),
	)
	return result.State, nil
}
