package datastore

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorTableName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "inventory", want: "table_inventory"},
		{in: "Q1 Report", want: "table_q1_report"},
		{in: "a-b.c", want: "table_a_b_c"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MirrorTableName(tt.in))
	}
}

func TestMirrorWritesDataAndCatalog(t *testing.T) {
	store := NewSQLiteStore("file:mirror_test?mode=memory&cache=shared")
	require.NoError(t, store.Connect())
	defer func() { _ = store.Close() }()

	modified := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	tables := []TableRecord{
		{
			Name:     "inventory",
			Path:     "/tables/inventory.csv",
			Modified: modified,
			Cols:     3,
			Cells: [][]string{
				{"widget", "4", "blue"},
				{"gadget", "9"}, // short row pads with ""
			},
		},
	}

	require.NoError(t, Mirror(store, tables))

	var c1, c2, c3 string
	err := store.db.QueryRow("SELECT c1, c2, c3 FROM table_inventory WHERE rownum = 2").Scan(&c1, &c2, &c3)
	require.NoError(t, err)
	assert.Equal(t, "gadget", c1)
	assert.Equal(t, "9", c2)
	assert.Equal(t, "", c3)

	var name, path, mod string
	var rows, cols int
	err = store.db.QueryRow("SELECT name, path, rows, cols, modified FROM abacus_tables").Scan(&name, &path, &rows, &cols, &mod)
	require.NoError(t, err)
	assert.Equal(t, "inventory", name)
	assert.Equal(t, "/tables/inventory.csv", path)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, "2025-03-14 15:09:26", mod)
}

func TestNewFromConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	// Default is a local store
	store, err := NewFromConfig()
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)

	viper.Set("mirror.mode", "remote")
	_, err = NewFromConfig()
	assert.Error(t, err, "remote mode requires a URL")

	viper.Set("mirror.remote_url", "http://example.com")
	store, err = NewFromConfig()
	require.NoError(t, err)
	assert.IsType(t, &DatasetteClient{}, store)

	viper.Set("mirror.mode", "bogus")
	_, err = NewFromConfig()
	assert.Error(t, err)
}
