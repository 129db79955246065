package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	tbl := New([]string{"g1", "g2"})
	require.NoError(t, tbl.AddRow("A", []string{"1", "2"}))
	require.NoError(t, tbl.AddRow("B", []string{"3", "4"}))
	require.NoError(t, tbl.AddRow("C", []string{"5", "6"}))

	t.Run("keeps requested rows in requested order", func(t *testing.T) {
		got, err := tbl.Project([]string{"C", "A"})
		require.NoError(t, err)
		assert.Equal(t, []string{"C", "A"}, got.Rows())
		v, _ := got.Cell("C", "g2")
		assert.Equal(t, "6", v)
	})

	t.Run("absent sample is a MissingSampleError", func(t *testing.T) {
		_, err := tbl.Project([]string{"A", "Z"})
		require.ErrorIs(t, err, ErrMissingSample)
		var msErr *MissingSampleError
		require.ErrorAs(t, err, &msErr)
		assert.Equal(t, "Z", msErr.Sample)
	})
}

func TestReadWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.tsv")

	tbl := New([]string{"g1", "g2"})
	require.NoError(t, tbl.AddRow("A", []string{"1", "2"}))
	require.NoError(t, tbl.AddRow("B", []string{"3", "4"}))
	require.NoError(t, tbl.Write(path, "sample"))

	t.Run("header row carries the index name", func(t *testing.T) {
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "sample\tg1\tg2\nA\t1\t2\nB\t3\t4\n", string(raw))
	})

	t.Run("read recovers rows and cells", func(t *testing.T) {
		got, err := Read(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, got.Rows())
		assert.Equal(t, []string{"g1", "g2"}, got.Cols())
		v, ok := got.Cell("B", "g1")
		require.True(t, ok)
		assert.Equal(t, "3", v)
	})

	t.Run("write overwrites rather than appends", func(t *testing.T) {
		small := New([]string{"g1"})
		require.NoError(t, small.AddRow("A", []string{"9"}))
		require.NoError(t, small.Write(path, "sample"))
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "sample\tg1\nA\t9\n", string(raw))
	})
}

func TestAggregateFeatures(t *testing.T) {
	dense := New([]string{"g1"})
	require.NoError(t, dense.AddRow("s1", []string{"1"}))
	require.NoError(t, dense.AddRow("s2", []string{"2"}))
	require.NoError(t, dense.AddRow("s3", []string{"3"}))

	sparse := New([]string{"p1"})
	require.NoError(t, sparse.AddRow("s1", []string{"10"}))
	require.NoError(t, sparse.AddRow("s2", []string{"20"}))

	t.Run("drops samples missing anywhere", func(t *testing.T) {
		got, err := AggregateFeatures([]*Table{dense, sparse})
		require.NoError(t, err)
		assert.Equal(t, []string{"s1", "s2"}, got.Rows())
		assert.Equal(t, []string{"g1", "p1"}, got.Cols())
		v, _ := got.Cell("s2", "p1")
		assert.Equal(t, "20", v)
	})

	t.Run("empty cell counts as missing", func(t *testing.T) {
		holes := New([]string{"h1"})
		require.NoError(t, holes.AddRow("s1", []string{""}))
		require.NoError(t, holes.AddRow("s2", []string{"5"}))
		require.NoError(t, holes.AddRow("s3", []string{"6"}))

		got, err := AggregateFeatures([]*Table{dense, holes})
		require.NoError(t, err)
		assert.Equal(t, []string{"s2", "s3"}, got.Rows())
	})

	t.Run("shared column name keeps both values", func(t *testing.T) {
		// Two feature tables both keyed by gene symbol: a copy-number
		// table and an expression table can measure the same gene.
		cnv := New([]string{"TP53"})
		require.NoError(t, cnv.AddRow("s1", []string{"1"}))
		expr := New([]string{"TP53"})
		require.NoError(t, expr.AddRow("s1", []string{"9"}))

		got, err := AggregateFeatures([]*Table{cnv, expr})
		require.NoError(t, err)
		assert.Equal(t, []string{"TP53", "TP53"}, got.Cols())
		row, ok := got.Row("s1")
		require.True(t, ok)
		assert.Equal(t, []string{"1", "9"}, row)

		path := filepath.Join(t.TempDir(), "agg.tsv")
		require.NoError(t, got.Write(path, "sample"))
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "sample\tTP53\tTP53\ns1\t1\t9\n", string(raw))
	})
}
