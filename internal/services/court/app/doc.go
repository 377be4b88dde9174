// Package server composes the court service: the SQLite journal and ledger,
// the command processor and the gRPC surface.
package server
