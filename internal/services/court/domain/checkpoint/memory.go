// Package checkpoint stores replay progress and World snapshots.
package checkpoint

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/decicourt/internal/services/court/domain/court"
	"github.com/louisbranch/decicourt/internal/services/court/domain/replay"
)

var (
	// ErrCourtIDRequired indicates a missing court id.
	ErrCourtIDRequired = errors.New("court id is required")
)

// Memory stores checkpoints in memory.
type Memory struct {
	mu          sync.Mutex
	checkpoints map[string]replay.Checkpoint
	states      map[string]snapshot
}

type snapshot struct {
	world   court.World
	lastSeq uint64
}

// NewMemory creates a new in-memory checkpoint store.
func NewMemory() *Memory {
	return &Memory{
		checkpoints: make(map[string]replay.Checkpoint),
		states:      make(map[string]snapshot),
	}
}

// Get retrieves a checkpoint by court id.
func (m *Memory) Get(ctx context.Context, courtID string) (replay.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return replay.Checkpoint{}, err
	}
	courtID = strings.TrimSpace(courtID)
	if courtID == "" {
		return replay.Checkpoint{}, ErrCourtIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint, ok := m.checkpoints[courtID]
	if !ok {
		return replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	return checkpoint, nil
}

// Save persists a checkpoint.
func (m *Memory) Save(ctx context.Context, checkpoint replay.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	courtID := strings.TrimSpace(checkpoint.CourtID)
	if courtID == "" {
		return ErrCourtIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint.CourtID = courtID
	m.checkpoints[courtID] = checkpoint
	return nil
}

// GetState returns a copy of the latest World snapshot and the sequence it
// reflects. The sequence may trail the checkpoint when replay has moved on
// without saving state.
func (m *Memory) GetState(ctx context.Context, courtID string) (court.World, uint64, error) {
	if err := ctx.Err(); err != nil {
		return court.World{}, 0, err
	}
	courtID = strings.TrimSpace(courtID)
	if courtID == "" {
		return court.World{}, 0, ErrCourtIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[courtID]
	if !ok {
		return court.World{}, 0, replay.ErrCheckpointNotFound
	}
	return state.world.Clone(), state.lastSeq, nil
}

// SaveState stores a copy of w as of lastSeq and moves the checkpoint there.
func (m *Memory) SaveState(ctx context.Context, courtID string, lastSeq uint64, w court.World) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	courtID = strings.TrimSpace(courtID)
	if courtID == "" {
		return ErrCourtIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[courtID] = snapshot{world: w.Clone(), lastSeq: lastSeq}
	m.checkpoints[courtID] = replay.Checkpoint{
		CourtID:   courtID,
		LastSeq:   lastSeq,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}
