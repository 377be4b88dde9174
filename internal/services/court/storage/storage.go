package storage

import (
	"context"

	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
)

// ErrNotFound indicates a requested persistence record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrSequenceConflict indicates an append raced another writer for the same
// sequence number.
var ErrSequenceConflict = apperrors.New(apperrors.CodeJournalCorrupted, "event sequence conflict")

// EventStore is the append-only journal the engine writes and replay reads.
type EventStore interface {
	AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error)
	ListEvents(ctx context.Context, courtID string, afterSeq uint64, limit int) ([]event.Event, error)
	LatestSeq(ctx context.Context, courtID string) (uint64, error)
}

// EventQueryStore serves filtered event history to API readers.
type EventQueryStore interface {
	ListEventsPage(ctx context.Context, req ListEventsPageRequest) (ListEventsPageResult, error)
	VerifyJournal(ctx context.Context, courtID string) (VerifyReport, error)
}

// ListEventsPageRequest describes a page of journal history.
type ListEventsPageRequest struct {
	// CourtID scopes the query (required).
	CourtID string
	// PageSize is the maximum number of events to return (default: 50, max: 200).
	PageSize int
	// CursorSeq is the last sequence of the previous page, 0 for the first.
	CursorSeq uint64
	// Descending orders results newest first.
	Descending bool
	// FilterClause is an optional SQL WHERE clause fragment.
	FilterClause string
	// FilterParams are the positional parameters for FilterClause.
	FilterParams []any
}

// ListEventsPageResult holds one page of events.
type ListEventsPageResult struct {
	Events      []event.Event
	TotalCount  int
	HasNextPage bool
}

// VerifyReport summarizes a journal integrity check. BrokenSeq is zero when
// every event verified.
type VerifyReport struct {
	CourtID   string
	Checked   uint64
	LastSeq   uint64
	BrokenSeq uint64
	Reason    string
}

// OK reports whether the journal verified end to end.
func (r VerifyReport) OK() bool {
	return r.BrokenSeq == 0
}
