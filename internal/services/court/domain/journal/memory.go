// Package journal provides an in-memory event journal with the same
// sequencing and hash chaining as the SQLite store.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
)

// ErrCourtMismatch indicates a batch spanning more than one court.
var ErrCourtMismatch = errors.New("events in a batch must share a court id")

// Memory is an append-only journal held in memory.
type Memory struct {
	mu     sync.Mutex
	events map[string][]event.Event
}

// NewMemory creates an empty journal.
func NewMemory() *Memory {
	return &Memory{events: make(map[string][]event.Event)}
}

// Append appends a single event.
func (m *Memory) Append(ctx context.Context, evt event.Event) (event.Event, error) {
	stored, err := m.AppendEvents(ctx, []event.Event{evt})
	if err != nil {
		return event.Event{}, err
	}
	return stored[0], nil
}

// AppendEvents appends events atomically, assigning sequence numbers and
// chain hashes.
func (m *Memory) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	courtID := strings.TrimSpace(events[0].CourtID)
	if courtID == "" {
		return nil, event.ErrCourtIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.events[courtID]
	prevHash := ""
	if len(existing) > 0 {
		prevHash = existing[len(existing)-1].ChainHash
	}
	nextSeq := uint64(len(existing)) + 1
	stored := make([]event.Event, 0, len(events))
	for _, evt := range events {
		if strings.TrimSpace(evt.CourtID) != courtID {
			return nil, ErrCourtMismatch
		}
		evt.CourtID = courtID
		evt.Seq = nextSeq
		hash, err := event.EventHash(evt)
		if err != nil {
			return nil, fmt.Errorf("hash event: %w", err)
		}
		chainHash, err := event.ChainHash(evt, prevHash)
		if err != nil {
			return nil, fmt.Errorf("chain hash: %w", err)
		}
		evt.Hash = hash
		evt.PrevHash = prevHash
		evt.ChainHash = chainHash
		stored = append(stored, evt)
		prevHash = chainHash
		nextSeq++
	}
	m.events[courtID] = append(existing, stored...)
	return append([]event.Event(nil), stored...), nil
}

// ListEvents returns up to limit events after afterSeq.
func (m *Memory) ListEvents(ctx context.Context, courtID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	events := m.events[strings.TrimSpace(courtID)]
	if afterSeq >= uint64(len(events)) {
		return nil, nil
	}
	page := events[afterSeq:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}
	return append([]event.Event(nil), page...), nil
}
