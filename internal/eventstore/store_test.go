package eventstore

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
)

const testCycleID = "cycle-1"

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEventStoreAppendAndRetrieve(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()
	payload := []byte(`{"test": "data"}`)

	require.NoError(t, store.Append(ctx, testCycleID, "TestEvent", payload, map[string]string{"key": "value"}))

	events, err := store.GetByCycleID(ctx, testCycleID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, testCycleID, event.CycleID())
	assert.Equal(t, "TestEvent", event.Type())
	assert.True(t, bytes.Equal(payload, event.Payload()))
	assert.Equal(t, "value", event.Metadata()["key"])
	assert.Positive(t, event.ID())
}

func TestEventStoreGetRange(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for range 3 {
		require.NoError(t, store.Append(ctx, testCycleID, "Event", []byte("{}"), nil))
	}

	events, err := store.GetRange(ctx, base, base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = store.GetRange(ctx, base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventStoreRecent(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.Append(ctx, id, "Event", nil, nil))
	}

	events, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].CycleID())
	assert.Equal(t, "d", events[1].CycleID())
	assert.Equal(t, []byte("{}"), events[1].Payload())

	events, err = store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventStorePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := t.Context()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, testCycleID, TypeCycleStarted, []byte(`{}`), nil))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	events, err := reopened.GetByCycleID(ctx, testCycleID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEventStoreClosedReturnsClassifiedError(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Append(t.Context(), testCycleID, "Event", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryEventStore))
}

func TestRecordNilStore(t *testing.T) {
	e, err := NewCycleStarted(testCycleID, "manual", "localfs")
	require.NoError(t, err)
	assert.NoError(t, Record(t.Context(), nil, e))
}
