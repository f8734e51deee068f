package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/fstsim/internal/core/domain"
)

func newTestAdapter(t *testing.T) *SQLiteAdapter {
	t.Helper()
	a, err := NewSQLiteAdapter(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestSaveAndLoadTransitions(t *testing.T) {
	a := newTestAdapter(t)

	recs := []domain.TransitionRecord{
		{
			RunID:   "run-1",
			SimTime: 10 * time.Microsecond,
			Device:  "00:00:00:00:00:01",
			Peer:    "00:00:00:00:00:02",
			Event:   "setup_request_tx",
			State:   "initial",
			Band:    "4.9GHz",
		},
		{
			RunID:   "run-1",
			SimTime: 340 * time.Microsecond,
			Device:  "00:00:00:00:00:01",
			Peer:    "00:00:00:00:00:02",
			Event:   "band_switch",
			Detail:  "802.11n (5GHz)",
		},
		{
			RunID:  "run-2",
			Device: "00:00:00:00:00:03",
			Event:  "teardown_tx",
		},
	}
	for _, rec := range recs {
		require.NoError(t, a.SaveTransition(rec))
	}

	got, err := a.TransitionsForRun("run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recs[0], got[0])
	assert.Equal(t, recs[1], got[1])

	got, err = a.TransitionsForRun("run-2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "teardown_tx", got[0].Event)
}

func TestTransitionsForRun_OrderedBySimTime(t *testing.T) {
	a := newTestAdapter(t)

	// Inserted out of order; reads come back in simulated-time order.
	for _, us := range []int64{500, 10, 250} {
		require.NoError(t, a.SaveTransition(domain.TransitionRecord{
			RunID:   "run-1",
			SimTime: time.Duration(us) * time.Microsecond,
			Device:  "00:00:00:00:00:01",
			Event:   "tick",
		}))
	}

	got, err := a.TransitionsForRun("run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 10*time.Microsecond, got[0].SimTime)
	assert.Equal(t, 250*time.Microsecond, got[1].SimTime)
	assert.Equal(t, 500*time.Microsecond, got[2].SimTime)
}

func TestTransitionsForRun_Empty(t *testing.T) {
	a := newTestAdapter(t)

	got, err := a.TransitionsForRun("missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}
