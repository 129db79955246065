package runstate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), ".genoflow", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := openStore(t)

	r := JobResult{
		Target:     "/data/runs/panc/features.tsv",
		Rule:       "aggregate_features",
		Status:     StatusDone,
		Duration:   2 * time.Second,
		FinishedAt: time.Now(),
	}
	require.NoError(t, s.Record(r))

	got, err := s.Get(r.Target)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusDone, got.Status)
	assert.Equal(t, "aggregate_features", got.Rule)

	missing, err := s.Get("/nowhere")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFailed(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.Record(JobResult{Target: "/b", Status: StatusFailed, Error: "boom", LogPath: "/logs/b.log"}))
	require.NoError(t, s.Record(JobResult{Target: "/a", Status: StatusSkipped, Error: "skipped"}))
	require.NoError(t, s.Record(JobResult{Target: "/c", Status: StatusDone}))

	failed, err := s.Failed()
	require.NoError(t, err)
	require.Len(t, failed, 2)
	// Sorted by target.
	assert.Equal(t, "/a", failed[0].Target)
	assert.Equal(t, "/b", failed[1].Target)
	assert.Equal(t, "/logs/b.log", failed[1].LogPath)
}

func TestRecordOverwrites(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Record(JobResult{Target: "/a", Status: StatusFailed}))
	require.NoError(t, s.Record(JobResult{Target: "/a", Status: StatusDone}))

	failed, err := s.Failed()
	require.NoError(t, err)
	assert.Empty(t, failed)
}
