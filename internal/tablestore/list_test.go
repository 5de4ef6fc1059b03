package tablestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/abacus/internal/cache"
	"github.com/lepinkainen/abacus/internal/testutil"
)

func writeTable(t *testing.T, dir, name, content string, modified time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, modified, modified))
	return path
}

func TestListSortsByModifiedDescending(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	writeTable(t, s.Dir(), "oldest.csv", "a\n", base)
	writeTable(t, s.Dir(), "middle.csv", "a,b\nc,d\n", base.Add(time.Minute))
	writeTable(t, s.Dir(), "newest.csv", "a,b,c\n", base.Add(2*time.Minute))

	tables, err := s.List()
	require.NoError(t, err)
	require.Len(t, tables, 3)

	assert.Equal(t, "newest", tables[0].Name)
	assert.Equal(t, "middle", tables[1].Name)
	assert.Equal(t, "oldest", tables[2].Name)

	assert.Equal(t, 1, tables[0].Rows)
	assert.Equal(t, 3, tables[0].Cols)
	assert.Equal(t, 2, tables[1].Rows)
	assert.Equal(t, 2, tables[1].Cols)
}

func TestListIgnoresForeignFiles(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	writeTable(t, s.Dir(), "table.csv", "a\n", now)
	writeTable(t, s.Dir(), "notes.txt", "ignore me", now)
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "subdir.csv"), 0o755))

	tables, err := s.List()
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "table", tables[0].Name)
}

func TestListEmptyDirectory(t *testing.T) {
	s := newTestStore(t)
	tables, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestListMissingDirectory(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "sub"))
	require.NoError(t, os.RemoveAll(s.Dir()))

	_, err := s.List()
	assert.Error(t, err)
}

func TestListStripsCollisionSuffix(t *testing.T) {
	s := newTestStore(t)
	writeTable(t, s.Dir(), "budget_20250314_150926.csv", "a\n", time.Now())

	tables, err := s.List()
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "budget", tables[0].Name)
}

func TestListPopulatesStatsCache(t *testing.T) {
	env := testutil.NewTestEnv(t)
	testutil.SetupTestCache(t, env)
	t.Cleanup(func() {
		require.NoError(t, cache.ResetGlobalCache())
		viper.Reset()
	})

	env.MkdirAll("tables")
	writeTable(t, env.Path("tables"), "inventory.csv", "a,b\nc,d\n", time.Now())
	s := New(env.Path("tables"))

	tables, err := s.List()
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, 2, tables[0].Rows)
	assert.Equal(t, 2, tables[0].Cols)

	c, err := cache.GetGlobalCache()
	require.NoError(t, err)
	count, err := c.EntryCount("table_stats_cache")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// A second listing reads the cached dimensions.
	tables, err = s.List()
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, 2, tables[0].Cols)
}

func TestInfoReflectsCurrentTable(t *testing.T) {
	s := newBoundStore(t, 3, 2)

	info := s.Info()
	assert.Equal(t, "test", info.Name)
	assert.Equal(t, s.Path(), info.Path)
	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, 2, info.Cols)
	assert.False(t, info.Modified.IsZero())
}
