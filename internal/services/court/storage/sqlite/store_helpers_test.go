package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/louisbranch/decicourt/internal/services/court/domain/court"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/storage/integrity"
)

const testCourt = "court-1"

func testRegistry(t *testing.T) *event.Registry {
	t.Helper()
	registry := event.NewRegistry()
	require.NoError(t, court.RegisterEvents(registry))
	return registry
}

func testKeyring(t *testing.T) *integrity.Keyring {
	t.Helper()
	ring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("test-secret")}, "v1")
	require.NoError(t, err)
	return ring
}

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	return openTestStoreAt(t, filepath.Join(t.TempDir(), "court.db"), opts...)
}

func openTestStoreAt(t *testing.T, path string, opts ...Option) *Store {
	t.Helper()
	store, err := Open(context.Background(), path, testRegistry(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

var testEpoch = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func registeredEvent(account string, offset time.Duration) event.Event {
	return event.Event{
		CourtID:     testCourt,
		Type:        court.EventTypeJurorRegistered,
		Timestamp:   testEpoch.Add(offset),
		ActorType:   event.ActorTypeAccount,
		ActorID:     account,
		RequestID:   "req-" + account,
		EntityType:  court.EntityTypeJuror,
		EntityID:    account,
		PayloadJSON: []byte(fmt.Sprintf(`{"juror":%q,"stake":500}`, account)),
	}
}

func committedEvent(caseID uint64, account string, offset time.Duration) event.Event {
	return event.Event{
		CourtID:    testCourt,
		Type:       court.EventTypeVoteCommitted,
		Timestamp:  testEpoch.Add(offset),
		ActorType:  event.ActorTypeAccount,
		ActorID:    account,
		EntityType: court.EntityTypeCase,
		EntityID:   fmt.Sprint(caseID),
		PayloadJSON: []byte(fmt.Sprintf(
			`{"case_id":%d,"round":1,"juror":%q,"commitment":"0x%064x"}`, caseID, account, caseID,
		)),
	}
}
