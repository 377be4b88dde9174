// Package sqlitemigrate applies embedded SQL migrations to SQLite databases.
package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

const migrationTable = "schema_migrations"

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// ApplyMigrations executes the .sql files under migrationRoot in name order,
// each at most once, and returns the names applied by this call.
func ApplyMigrations(ctx context.Context, sqlDB *sql.DB, migrationFS fs.FS, migrationRoot string) ([]string, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	root := strings.TrimSpace(migrationRoot)
	if root == "" {
		root = "."
	}

	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := sqlDB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationTable+` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return nil, fmt.Errorf("ensure migration table: %w", err)
	}

	var applied []string
	for _, file := range files {
		key := file
		if root != "." {
			key = path.Join(root, file)
		}
		done, err := isApplied(ctx, sqlDB, key)
		if err != nil {
			return applied, fmt.Errorf("check migration %s: %w", file, err)
		}
		if done {
			continue
		}
		content, err := fs.ReadFile(migrationFS, path.Join(root, file))
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", file, err)
		}
		if err := applyOne(ctx, sqlDB, key, ExtractUpMigration(string(content))); err != nil {
			return applied, fmt.Errorf("migration %s: %w", file, err)
		}
		applied = append(applied, key)
	}
	return applied, nil
}

func applyOne(ctx context.Context, sqlDB *sql.DB, key, upSQL string) error {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if strings.TrimSpace(upSQL) != "" {
		if _, err := tx.ExecContext(ctx, upSQL); err != nil && !IsAlreadyExistsError(err) {
			return fmt.Errorf("exec: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)",
		key, time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ExtractUpMigration returns the SQL in the -- +migrate Up section, or the
// whole content when no markers are present.
func ExtractUpMigration(content string) string {
	upIdx := strings.Index(content, upMarker)
	if upIdx == -1 {
		return content
	}
	rest := content[upIdx+len(upMarker):]
	if downIdx := strings.Index(rest, downMarker); downIdx != -1 {
		return rest[:downIdx]
	}
	return rest
}

// IsAlreadyExistsError reports whether err indicates idempotent DDL success.
func IsAlreadyExistsError(err error) bool {
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "already exists") || strings.Contains(value, "duplicate column name")
}

func isApplied(ctx context.Context, sqlDB *sql.DB, name string) (bool, error) {
	var found int
	err := sqlDB.QueryRowContext(ctx, "SELECT 1 FROM "+migrationTable+" WHERE name = ?", name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
