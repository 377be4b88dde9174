package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/storage"
)

const (
	verifyPageSize = 200
	eventColumns   = "court_id, seq, event_hash, prev_event_hash, chain_hash, signature_key_id, event_signature, timestamp, event_type, request_id, invocation_id, actor_type, actor_id, entity_type, entity_id, payload_json"
)

// AppendEvents atomically appends a decision's events.
//
// All events must belong to the same court. Sequence numbers are allocated
// contiguously and chain hashes link each event to its predecessor, including
// the last previously stored event for the first item in the batch.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	validated := make([]event.Event, len(events))
	for i, evt := range events {
		v, err := s.eventRegistry.ValidateForAppend(evt)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		if v.Timestamp.IsZero() {
			v.Timestamp = time.Now().UTC()
		}
		v.Timestamp = v.Timestamp.UTC().Truncate(time.Millisecond)
		validated[i] = v
	}
	courtID := validated[0].CourtID
	for i, evt := range validated {
		if evt.CourtID != courtID {
			return nil, fmt.Errorf("event %d: court id %q does not match batch court %q", i, evt.CourtID, courtID)
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO event_seq (court_id, next_seq) VALUES (?, 1)", courtID,
	); err != nil {
		return nil, fmt.Errorf("init event seq: %w", err)
	}
	var baseSeq uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT next_seq FROM event_seq WHERE court_id = ?", courtID,
	).Scan(&baseSeq); err != nil {
		return nil, fmt.Errorf("get event seq: %w", err)
	}

	prevChainHash := ""
	if baseSeq > 1 {
		if err := tx.QueryRowContext(ctx,
			"SELECT chain_hash FROM events WHERE court_id = ? AND seq = ?", courtID, baseSeq-1,
		).Scan(&prevChainHash); err != nil {
			return nil, fmt.Errorf("load previous event: %w", err)
		}
	}

	stored := make([]event.Event, len(validated))
	for i, evt := range validated {
		evt.Seq = baseSeq + uint64(i)

		hash, err := event.EventHash(evt)
		if err != nil {
			return nil, fmt.Errorf("event %d hash: %w", i, err)
		}
		evt.Hash = hash

		chainHash, err := event.ChainHash(evt, prevChainHash)
		if err != nil {
			return nil, fmt.Errorf("event %d chain hash: %w", i, err)
		}
		evt.PrevHash = prevChainHash
		evt.ChainHash = chainHash

		if s.keyring != nil {
			signature, keyID, err := s.keyring.SignChainHash(evt.CourtID, chainHash)
			if err != nil {
				return nil, fmt.Errorf("event %d sign: %w", i, err)
			}
			evt.Signature = signature
			evt.SignatureKeyID = keyID
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO events ("+eventColumns+", case_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			evt.CourtID,
			int64(evt.Seq),
			evt.Hash,
			evt.PrevHash,
			evt.ChainHash,
			evt.SignatureKeyID,
			evt.Signature,
			toMillis(evt.Timestamp),
			string(evt.Type),
			evt.RequestID,
			evt.InvocationID,
			string(evt.ActorType),
			evt.ActorID,
			evt.EntityType,
			evt.EntityID,
			int64(caseIDOf(evt.PayloadJSON)),
			evt.PayloadJSON,
		); err != nil {
			if isConstraintError(err) {
				return nil, fmt.Errorf("append event %d: %w", i, storage.ErrSequenceConflict)
			}
			return nil, fmt.Errorf("append event %d: %w", i, err)
		}

		prevChainHash = chainHash
		stored[i] = evt
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE event_seq SET next_seq = ? WHERE court_id = ?",
		int64(baseSeq)+int64(len(stored)), courtID,
	); err != nil {
		return nil, fmt.Errorf("update event seq: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

// ListEvents returns up to limit events after afterSeq in sequence order. A
// non-positive limit returns every remaining event.
func (s *Store) ListEvents(ctx context.Context, courtID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(courtID) == "" {
		return nil, event.ErrCourtIDRequired
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE court_id = ? AND seq > ? ORDER BY seq ASC LIMIT ?",
		courtID, int64(afterSeq), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return scanEvents(rows)
}

// GetEventBySeq returns a single event.
func (s *Store) GetEventBySeq(ctx context.Context, courtID string, seq uint64) (event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return event.Event{}, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE court_id = ? AND seq = ?",
		courtID, int64(seq),
	)
	if err != nil {
		return event.Event{}, fmt.Errorf("get event: %w", err)
	}
	events, err := scanEvents(rows)
	if err != nil {
		return event.Event{}, err
	}
	if len(events) == 0 {
		return event.Event{}, storage.ErrNotFound
	}
	return events[0], nil
}

// LatestSeq returns the highest stored sequence for a court, or 0.
func (s *Store) LatestSeq(ctx context.Context, courtID string) (uint64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var seq int64
	if err := s.sqlDB.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM events WHERE court_id = ?", courtID,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("get latest event seq: %w", err)
	}
	return uint64(seq), nil
}

// ListEventsPage returns a filtered page of events for API readers.
func (s *Store) ListEventsPage(ctx context.Context, req storage.ListEventsPageRequest) (storage.ListEventsPageResult, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ListEventsPageResult{}, err
	}
	if strings.TrimSpace(req.CourtID) == "" {
		return storage.ListEventsPageResult{}, event.ErrCourtIDRequired
	}
	req.PageSize = clampPageSize(req.PageSize)

	plan := buildListEventsPageSQLPlan(req)
	rows, err := s.sqlDB.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM events WHERE %s %s %s", eventColumns, plan.whereClause, plan.orderClause, plan.limitClause),
		plan.params...,
	)
	if err != nil {
		return storage.ListEventsPageResult{}, fmt.Errorf("query events: %w", err)
	}
	events, err := scanEvents(rows)
	if err != nil {
		return storage.ListEventsPageResult{}, err
	}

	hasMore := len(events) > req.PageSize
	if hasMore {
		events = events[:req.PageSize]
	}

	var totalCount int
	if err := s.sqlDB.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM events WHERE %s", plan.countWhereClause),
		plan.countParams...,
	).Scan(&totalCount); err != nil {
		return storage.ListEventsPageResult{}, fmt.Errorf("count events: %w", err)
	}

	return storage.ListEventsPageResult{
		Events:      events,
		TotalCount:  totalCount,
		HasNextPage: hasMore,
	}, nil
}

// VerifyJournal walks the court's journal recomputing hashes, chain links
// and signatures. A broken journal is reported in the result, not as an error.
func (s *Store) VerifyJournal(ctx context.Context, courtID string) (storage.VerifyReport, error) {
	report := storage.VerifyReport{CourtID: courtID}
	if err := s.ready(ctx); err != nil {
		return report, err
	}
	if strings.TrimSpace(courtID) == "" {
		return report, event.ErrCourtIDRequired
	}

	broken := func(seq uint64, format string, args ...any) (storage.VerifyReport, error) {
		report.BrokenSeq = seq
		report.Reason = fmt.Sprintf(format, args...)
		return report, nil
	}

	prevChainHash := ""
	for {
		events, err := s.ListEvents(ctx, courtID, report.LastSeq, verifyPageSize)
		if err != nil {
			return report, fmt.Errorf("list events court_id=%s: %w", courtID, err)
		}
		if len(events) == 0 {
			return report, nil
		}
		for _, evt := range events {
			if evt.Seq != report.LastSeq+1 {
				return broken(report.LastSeq+1, "sequence gap: got %d", evt.Seq)
			}
			if evt.PrevHash != prevChainHash {
				return broken(evt.Seq, "prev hash mismatch")
			}
			hash, err := event.EventHash(evt)
			if err != nil {
				return broken(evt.Seq, "compute event hash: %v", err)
			}
			if hash != evt.Hash {
				return broken(evt.Seq, "event hash mismatch")
			}
			chainHash, err := event.ChainHash(evt, prevChainHash)
			if err != nil {
				return broken(evt.Seq, "compute chain hash: %v", err)
			}
			if chainHash != evt.ChainHash {
				return broken(evt.Seq, "chain hash mismatch")
			}
			if s.keyring != nil {
				if evt.Signature == "" {
					return broken(evt.Seq, "event is unsigned")
				}
				if err := s.keyring.VerifyChainHash(courtID, chainHash, evt.Signature, evt.SignatureKeyID); err != nil {
					return broken(evt.Seq, "signature: %v", err)
				}
			}
			prevChainHash = evt.ChainHash
			report.LastSeq = evt.Seq
			report.Checked++
		}
	}
}

func clampPageSize(size int) int {
	switch {
	case size <= 0:
		return 50
	case size > 200:
		return 200
	default:
		return size
	}
}

func scanEvents(rows *sql.Rows) ([]event.Event, error) {
	defer rows.Close()
	var events []event.Event
	for rows.Next() {
		var (
			evt       event.Event
			seq       int64
			timestamp int64
			eventType string
			actorType string
		)
		if err := rows.Scan(
			&evt.CourtID,
			&seq,
			&evt.Hash,
			&evt.PrevHash,
			&evt.ChainHash,
			&evt.SignatureKeyID,
			&evt.Signature,
			&timestamp,
			&eventType,
			&evt.RequestID,
			&evt.InvocationID,
			&actorType,
			&evt.ActorID,
			&evt.EntityType,
			&evt.EntityID,
			&evt.PayloadJSON,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.Timestamp = fromMillis(timestamp)
		evt.Type = event.Type(eventType)
		evt.ActorType = event.ActorType(actorType)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// caseIDOf indexes events by the case they concern, when the payload names one.
func caseIDOf(payload []byte) uint64 {
	var target struct {
		CaseID uint64 `json:"case_id"`
	}
	if err := json.Unmarshal(payload, &target); err != nil {
		return 0
	}
	return target.CaseID
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
