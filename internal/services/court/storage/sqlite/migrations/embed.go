// Package migrations contains embedded SQL migrations for the SQLite store.
package migrations

import "embed"

// CourtFS holds the journal and ledger schema.
//
//go:embed court/*.sql
var CourtFS embed.FS
