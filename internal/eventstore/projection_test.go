package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordCycle(t *testing.T, store Store, cycleID string, fail bool) {
	t.Helper()
	ctx := t.Context()

	started, err := NewCycleStarted(cycleID, "manual", "localfs")
	require.NoError(t, err)
	require.NoError(t, Record(ctx, store, started))

	fetched, err := NewEntriesFetched(cycleID, "localfs", 10, time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, Record(ctx, store, fetched))

	if fail {
		failed, err := NewCycleFailed(cycleID, "derive", "page entry has no slug", time.Millisecond)
		require.NoError(t, err)
		require.NoError(t, Record(ctx, store, failed))
		return
	}

	derived, err := NewPagesDerived(cycleID, 3, true)
	require.NoError(t, err)
	require.NoError(t, Record(ctx, store, derived))

	written, err := NewCacheWritten(cycleID, "cache.json", "h-"+cycleID, true)
	require.NoError(t, err)
	require.NoError(t, Record(ctx, store, written))

	completed, err := NewCycleCompleted(cycleID, 10, 3, "h-"+cycleID, true, time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, Record(ctx, store, completed))
}

func TestProjectionRebuild(t *testing.T) {
	store := newMemoryStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	recordCycle(t, store, "c1", false)
	recordCycle(t, store, "c2", true)

	p := NewCycleHistoryProjection(store, 10)
	require.NoError(t, p.Rebuild(t.Context()))

	history := p.History()
	require.Len(t, history, 2)
	assert.Equal(t, "c2", history[0].CycleID)
	assert.Equal(t, StatusFailed, history[0].Status)
	assert.Equal(t, "derive", history[0].ErrorStage)
	assert.Equal(t, 10, history[0].Entries)

	assert.Equal(t, "c1", history[1].CycleID)
	assert.Equal(t, StatusCompleted, history[1].Status)
	assert.Equal(t, 3, history[1].Pages)
	assert.Equal(t, "h-c1", history[1].Hash)
	assert.Equal(t, "manual", history[1].Trigger)
	assert.Equal(t, 4*time.Second, history[1].Duration)

	last, ok := p.Last()
	require.True(t, ok)
	assert.Equal(t, "c2", last.CycleID)
}

func TestProjectionBoundedHistory(t *testing.T) {
	store := newMemoryStore(t)
	for _, id := range []string{"a", "b", "c"} {
		recordCycle(t, store, id, false)
	}

	p := NewCycleHistoryProjection(store, 2)
	require.NoError(t, p.Rebuild(t.Context()))
	assert.Len(t, p.History(), 2)

	_, ok := p.Cycle("a")
	assert.False(t, ok, "pruned cycle should be gone")
}

func TestProjectionApplyRunning(t *testing.T) {
	p := NewCycleHistoryProjection(nil, 5)
	started, err := NewCycleStarted("live", "poll", "contentful")
	require.NoError(t, err)
	p.Apply(started)

	summary, ok := p.Cycle("live")
	require.True(t, ok)
	assert.Equal(t, StatusRunning, summary.Status)
	assert.Empty(t, p.History())
}
