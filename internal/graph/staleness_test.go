package graph

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genoflow/genoflow/internal/rules"
)

func write(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// stalenessChain resolves raw -> mid -> top and returns the ordered jobs.
func stalenessChain(t *testing.T, dir string) []*Job {
	t.Helper()
	raw := filepath.Join(dir, "raw.tsv")
	mid := filepath.Join(dir, "mid.tsv")
	top := filepath.Join(dir, "top.tsv")

	reg := rules.NewRegistry()
	register(t, reg, rules.Spec{Name: "mid", Outputs: []string{mid}, Inputs: []string{raw}})
	register(t, reg, rules.Spec{Name: "top", Outputs: []string{top}, Inputs: []string{mid}})

	r := NewResolver(reg)
	_, err := r.Resolve(top)
	require.NoError(t, err)
	return Order(r.Jobs())
}

func TestPlan(t *testing.T) {
	base := time.Now().Add(-time.Hour)

	t.Run("everything fresh means nothing pending", func(t *testing.T) {
		dir := t.TempDir()
		write(t, filepath.Join(dir, "raw.tsv"), base)
		write(t, filepath.Join(dir, "mid.tsv"), base.Add(time.Minute))
		write(t, filepath.Join(dir, "top.tsv"), base.Add(2*time.Minute))

		ordered := stalenessChain(t, dir)
		pending := Plan(ordered)
		assert.Empty(t, pending)
		for _, job := range ordered {
			assert.Equal(t, Satisfied, job.State())
		}
	})

	t.Run("absent output forces a build", func(t *testing.T) {
		dir := t.TempDir()
		write(t, filepath.Join(dir, "raw.tsv"), base)
		write(t, filepath.Join(dir, "top.tsv"), base.Add(2*time.Minute))

		ordered := stalenessChain(t, dir)
		pending := Plan(ordered)
		require.Len(t, pending, 2)
	})

	t.Run("output older than input forces a build", func(t *testing.T) {
		dir := t.TempDir()
		write(t, filepath.Join(dir, "raw.tsv"), base.Add(time.Minute))
		write(t, filepath.Join(dir, "mid.tsv"), base)
		write(t, filepath.Join(dir, "top.tsv"), base.Add(2*time.Minute))

		ordered := stalenessChain(t, dir)
		pending := Plan(ordered)
		// mid is stale against raw; top must follow even though its own
		// file is newer than mid's.
		require.Len(t, pending, 2)
		assert.Equal(t, filepath.Join(dir, "mid.tsv"), pending[0].ID())
		assert.Equal(t, filepath.Join(dir, "top.tsv"), pending[1].ID())
	})

	t.Run("upstream rebuild is transitive regardless of timestamps", func(t *testing.T) {
		dir := t.TempDir()
		// mid's output is missing entirely; top's output is newer than
		// every file on disk, yet it must still rebuild.
		write(t, filepath.Join(dir, "raw.tsv"), base)
		write(t, filepath.Join(dir, "top.tsv"), time.Now())

		ordered := stalenessChain(t, dir)
		pending := Plan(ordered)
		require.Len(t, pending, 2)
		assert.Equal(t, Pending, pending[1].State())
	})
}
