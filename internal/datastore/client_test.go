package datastore

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/abacus/internal/errors"
)

func TestDatasetteClientInsertRows(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	client := NewDatasetteClient(ts.URL, "abacus", "testtoken")
	require.NoError(t, client.Connect())

	columns := []string{"rownum", "c1"}
	rows := [][]any{{1, "widget"}}
	require.NoError(t, client.InsertRows("table_inventory", columns, rows))

	assert.True(t, strings.HasSuffix(gotPath, "/-/insert/abacus/table_inventory"), "got path %s", gotPath)
	assert.Equal(t, "Bearer testtoken", gotAuth)

	var payload struct {
		Rows []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.Len(t, payload.Rows, 1)
	assert.Equal(t, "widget", payload.Rows[0]["c1"])
}

func TestDatasetteClientInsertRowsAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "forbidden"})
	}))
	defer ts.Close()

	client := NewDatasetteClient(ts.URL, "abacus", "testtoken")
	require.NoError(t, client.Connect())

	err := client.InsertRows("table_inventory", []string{"c1"}, [][]any{{"widget"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.False(t, errors.IsRateLimited(err))
}

func TestDatasetteClientInsertRowsThrottled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewDatasetteClient(ts.URL, "abacus", "")
	require.NoError(t, client.Connect())

	err := client.InsertRows("table_inventory", []string{"c1"}, [][]any{{"widget"}})
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))
}

func TestDatasetteClientConnectRejectsBadURL(t *testing.T) {
	client := NewDatasetteClient("://not-a-url", "abacus", "")
	assert.Error(t, client.Connect())
}

func TestDatasetteClientInsertRowsWidthMismatch(t *testing.T) {
	client := NewDatasetteClient("http://example.com", "abacus", "")
	err := client.InsertRows("t", []string{"c1", "c2"}, [][]any{{"only one"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 2")
}
