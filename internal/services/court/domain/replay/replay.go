// Package replay rebuilds state by folding journal events in sequence order.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
)

const defaultPageSize = 200

var (
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrCheckpointStoreRequired indicates a missing checkpoint store.
	ErrCheckpointStoreRequired = errors.New("checkpoint store is required")
	// ErrApplierRequired indicates a missing applier.
	ErrApplierRequired = errors.New("applier is required")
	// ErrCourtIDRequired indicates a missing court id.
	ErrCourtIDRequired = errors.New("court id is required")
	// ErrCheckpointNotFound indicates no checkpoint exists yet.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	// ErrSequenceGap indicates a missing or out-of-order event.
	ErrSequenceGap = errors.New("event sequence gap")
)

// EventStore lists events for replay.
type EventStore interface {
	ListEvents(ctx context.Context, courtID string, afterSeq uint64, limit int) ([]event.Event, error)
}

// CheckpointStore manages replay checkpoints.
type CheckpointStore interface {
	Get(ctx context.Context, courtID string) (Checkpoint, error)
	Save(ctx context.Context, checkpoint Checkpoint) error
}

// Applier folds a journal event into state.
type Applier[S any] interface {
	Apply(state S, evt event.Event) (S, error)
}

// Checkpoint captures the last applied sequence for a court.
type Checkpoint struct {
	CourtID   string
	LastSeq   uint64
	UpdatedAt time.Time
}

// Options configures replay behavior.
type Options struct {
	AfterSeq uint64
	UntilSeq uint64
	PageSize int
}

// Result captures replay outcomes.
type Result[S any] struct {
	State   S
	LastSeq uint64
	Applied int
}

// Replay folds events after the later of options.AfterSeq and the stored
// checkpoint into state, saving a checkpoint after each page. The caller
// supplies state as of that starting sequence.
func Replay[S any](ctx context.Context, store EventStore, checkpoints CheckpointStore, applier Applier[S], courtID string, state S, options Options) (Result[S], error) {
	if store == nil {
		return Result[S]{}, ErrEventStoreRequired
	}
	if checkpoints == nil {
		return Result[S]{}, ErrCheckpointStoreRequired
	}
	if applier == nil {
		return Result[S]{}, ErrApplierRequired
	}
	courtID = strings.TrimSpace(courtID)
	if courtID == "" {
		return Result[S]{}, ErrCourtIDRequired
	}

	checkpointSeq := uint64(0)
	checkpoint, err := checkpoints.Get(ctx, courtID)
	if err != nil {
		if !errors.Is(err, ErrCheckpointNotFound) {
			return Result[S]{}, err
		}
	} else {
		checkpointSeq = checkpoint.LastSeq
	}

	lastSeq := max(options.AfterSeq, checkpointSeq)
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result := Result[S]{State: state, LastSeq: lastSeq}
	for {
		events, err := store.ListEvents(ctx, courtID, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(events) == 0 {
			return result, nil
		}
		applied := result.Applied
		for _, evt := range events {
			if options.UntilSeq > 0 && evt.Seq > options.UntilSeq {
				return result, save(ctx, checkpoints, courtID, result, applied)
			}
			expectedSeq := result.LastSeq + 1
			if evt.Seq != expectedSeq {
				return result, fmt.Errorf("%w: expected %d got %d", ErrSequenceGap, expectedSeq, evt.Seq)
			}
			next, err := applier.Apply(result.State, evt)
			if err != nil {
				return result, fmt.Errorf("apply event %d (%s): %w", evt.Seq, evt.Type, err)
			}
			result.State = next
			result.LastSeq = evt.Seq
			result.Applied++
		}
		if err := save(ctx, checkpoints, courtID, result, applied); err != nil {
			return result, err
		}
	}
}

func save[S any](ctx context.Context, checkpoints CheckpointStore, courtID string, result Result[S], appliedBefore int) error {
	if result.Applied == appliedBefore {
		return nil
	}
	return checkpoints.Save(ctx, Checkpoint{CourtID: courtID, LastSeq: result.LastSeq, UpdatedAt: time.Now().UTC()})
}
