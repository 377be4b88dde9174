package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/decicourt/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/storage/integrity"
	"github.com/louisbranch/decicourt/internal/services/court/storage/sqlite/migrations"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis reverses toMillis for persisted millisecond timestamps.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store is the SQLite-backed journal and ledger.
type Store struct {
	sqlDB         *sql.DB
	keyring       *integrity.Keyring
	eventRegistry *event.Registry
}

// Option configures a Store.
type Option func(*Store)

// WithKeyring signs appended events and verifies signatures on read-back.
func WithKeyring(keyring *integrity.Keyring) Option {
	return func(s *Store) {
		s.keyring = keyring
	}
}

// Open opens (creating if needed) the database at path and applies the
// embedded migrations. registry validates events before append.
func Open(ctx context.Context, path string, registry *event.Registry, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("event registry is required")
	}

	dsn := filepath.Clean(path)
	if path != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, eventRegistry: registry}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	if err := runMigrations(ctx, sqlDB, migrations.CourtFS, "court"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying database. It is nil-safe.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func runMigrations(ctx context.Context, sqlDB *sql.DB, migrationFS fs.FS, migrationRoot string) error {
	_, err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrationFS, migrationRoot)
	return err
}
