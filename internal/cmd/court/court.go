// Package court parses court server flags and starts the service.
package court

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	entrypoint "github.com/louisbranch/decicourt/internal/platform/cmd"
	"github.com/louisbranch/decicourt/internal/platform/logging"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/identity"
	server "github.com/louisbranch/decicourt/internal/services/court/app"
	courtdomain "github.com/louisbranch/decicourt/internal/services/court/domain/court"
	"github.com/louisbranch/decicourt/internal/services/court/storage/integrity"
)

// Config holds court command configuration.
type Config struct {
	Port    int    `env:"DECICOURT_PORT" envDefault:"8090"`
	Addr    string `env:"DECICOURT_ADDR"`
	DBPath  string `env:"DECICOURT_DB_PATH" envDefault:"data/court.db"`
	CourtID string `env:"DECICOURT_COURT_ID" envDefault:"default"`

	EscrowAccount           string        `env:"DECICOURT_ESCROW_ACCOUNT" envDefault:"court-escrow"`
	FilingFee               uint64        `env:"DECICOURT_FILING_FEE" envDefault:"100"`
	JurorStake              uint64        `env:"DECICOURT_JUROR_STAKE" envDefault:"500"`
	JurySize                int           `env:"DECICOURT_JURY_SIZE" envDefault:"3"`
	AppealJurySize          int           `env:"DECICOURT_APPEAL_JURY_SIZE" envDefault:"5"`
	CommitDuration          time.Duration `env:"DECICOURT_COMMIT_DURATION" envDefault:"300s"`
	RevealDuration          time.Duration `env:"DECICOURT_REVEAL_DURATION" envDefault:"300s"`
	AppealDuration          time.Duration `env:"DECICOURT_APPEAL_DURATION" envDefault:"600s"`
	PenaltyRate             uint64        `env:"DECICOURT_PENALTY_RATE" envDefault:"50"`
	AppealDepositMultiplier uint64        `env:"DECICOURT_APPEAL_DEPOSIT_MULTIPLIER" envDefault:"5"`

	Selection     string `env:"DECICOURT_SELECTION" envDefault:"crypto"`
	SelectionSeed string `env:"DECICOURT_SELECTION_SEED"`
	GenesisPath   string `env:"DECICOURT_GENESIS_PATH"`

	Log      logging.Config
	Identity identity.Config
	Journal  integrity.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The court server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The court server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite journal and ledger")
	fs.StringVar(&cfg.CourtID, "court-id", cfg.CourtID, "Court identifier scoping the journal")
	fs.StringVar(&cfg.GenesisPath, "genesis", cfg.GenesisPath, "Optional YAML file of starting balances")
	fs.StringVar(&cfg.Selection, "selection", cfg.Selection, "Juror selection source: crypto, seeded or beacon")
	fs.StringVar(&cfg.SelectionSeed, "selection-seed", cfg.SelectionSeed, "Seed for seeded or beacon selection")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Params returns the court parameters in cfg.
func (c Config) Params() courtdomain.Params {
	return courtdomain.Params{
		EscrowAccount:           c.EscrowAccount,
		FilingFee:               c.FilingFee,
		JurorStake:              c.JurorStake,
		JurySize:                c.JurySize,
		AppealJurySize:          c.AppealJurySize,
		CommitDuration:          c.CommitDuration,
		RevealDuration:          c.RevealDuration,
		AppealDuration:          c.AppealDuration,
		PenaltyRate:             c.PenaltyRate,
		AppealDepositMultiplier: c.AppealDepositMultiplier,
	}
}

// ListenAddr returns Addr, or ":<Port>" when Addr is empty.
func (c Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Run starts the court service.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(entrypoint.ServiceCourt, cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	verifier, err := identity.NewVerifier(cfg.Identity, time.Now)
	if err != nil {
		return fmt.Errorf("identity verifier: %w", err)
	}
	if verifier == nil {
		logger.Warn("identity verification disabled; trusting the account header")
	}
	var keyring *integrity.Keyring
	if cfg.Journal.Enabled() {
		if keyring, err = integrity.KeyringFromConfig(cfg.Journal); err != nil {
			return fmt.Errorf("journal keyring: %w", err)
		}
	} else {
		logger.Warn("journal signing disabled", zap.String("court_id", cfg.CourtID))
	}

	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceCourt, options, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			Addr:          cfg.ListenAddr(),
			DBPath:        cfg.DBPath,
			CourtID:       cfg.CourtID,
			Params:        cfg.Params(),
			Selection:     cfg.Selection,
			SelectionSeed: cfg.SelectionSeed,
			GenesisPath:   cfg.GenesisPath,
			Keyring:       keyring,
			Verifier:      verifier,
			Logger:        logger,
		})
	})
}
