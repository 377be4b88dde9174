package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/storage"
)

func TestAppendEventsAssignsContiguousChainedSequence(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, WithKeyring(testKeyring(t)))

	first, err := store.AppendEvents(ctx, []event.Event{registeredEvent("j1", 0), registeredEvent("j2", time.Second)})
	require.NoError(t, err)
	second, err := store.AppendEvents(ctx, []event.Event{registeredEvent("j3", 2*time.Second)})
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Len(t, second, 1)
	assert.Equal(t, uint64(1), first[0].Seq)
	assert.Equal(t, uint64(2), first[1].Seq)
	assert.Equal(t, uint64(3), second[0].Seq)
	assert.Empty(t, first[0].PrevHash)
	assert.Equal(t, first[0].ChainHash, first[1].PrevHash)
	assert.Equal(t, first[1].ChainHash, second[0].PrevHash)
	assert.Equal(t, "v1", second[0].SignatureKeyID)
	assert.NotEmpty(t, second[0].Signature)

	latest, err := store.LatestSeq(ctx, testCourt)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), latest)

	listed, err := store.ListEvents(ctx, testCourt, 0, 0)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, first[0], listed[0])
	assert.Equal(t, second[0], listed[2])

	page, err := store.ListEvents(ctx, testCourt, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, uint64(2), page[0].Seq)
}

func TestAppendEventsValidatesBeforeWriting(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	bad := registeredEvent("j2", 0)
	bad.EntityID = ""
	_, err := store.AppendEvents(ctx, []event.Event{registeredEvent("j1", 0), bad})
	require.ErrorIs(t, err, event.ErrEntityIDRequired)

	other := registeredEvent("j2", 0)
	other.CourtID = "court-2"
	_, err = store.AppendEvents(ctx, []event.Event{registeredEvent("j1", 0), other})
	require.Error(t, err)

	latest, err := store.LatestSeq(ctx, testCourt)
	require.NoError(t, err)
	assert.Zero(t, latest)
}

func TestSequencesAreScopedPerCourt(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.AppendEvents(ctx, []event.Event{registeredEvent("j1", 0)})
	require.NoError(t, err)
	other := registeredEvent("j1", 0)
	other.CourtID = "court-2"
	stored, err := store.AppendEvents(ctx, []event.Event{other})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stored[0].Seq)
}

func TestGetEventBySeq(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	stored, err := store.AppendEvents(ctx, []event.Event{registeredEvent("j1", 0)})
	require.NoError(t, err)

	got, err := store.GetEventBySeq(ctx, testCourt, 1)
	require.NoError(t, err)
	assert.Equal(t, stored[0], got)

	_, err = store.GetEventBySeq(ctx, testCourt, 2)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/court.db"
	ring := testKeyring(t)

	store, err := Open(ctx, path, testRegistry(t), WithKeyring(ring))
	require.NoError(t, err)
	_, err = store.AppendEvents(ctx, []event.Event{registeredEvent("j1", 0)})
	require.NoError(t, err)
	require.NoError(t, store.Mint(ctx, "alice", 10))
	require.NoError(t, store.Close())

	reopened := openTestStoreAt(t, path, WithKeyring(ring))
	stored, err := reopened.AppendEvents(ctx, []event.Event{registeredEvent("j2", time.Second)})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stored[0].Seq)

	balance, err := reopened.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), balance)

	report, err := reopened.VerifyJournal(ctx, testCourt)
	require.NoError(t, err)
	assert.True(t, report.OK(), report.Reason)
	assert.Equal(t, uint64(2), report.Checked)
}

func TestOpenRequiresPathAndRegistry(t *testing.T) {
	_, err := Open(context.Background(), " ", testRegistry(t))
	require.Error(t, err)
	_, err = Open(context.Background(), t.TempDir()+"/court.db", nil)
	require.Error(t, err)

	var nilStore *Store
	require.NoError(t, nilStore.Close())
}
