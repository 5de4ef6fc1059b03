package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/lepinkainen/abacus/internal/errors"
	"github.com/lepinkainen/abacus/internal/ratelimit"
)

// DatasetteClient mirrors tables into a remote Datasette instance through
// its insert API. Requests are paced so mirroring a large store does not
// trip the server's throttling.
type DatasetteClient struct {
	baseURL  string
	database string
	apiToken string
	client   *http.Client
	limiter  *ratelimit.Limiter
}

// NewDatasetteClient creates a client posting into the named database of
// the Datasette instance at baseURL.
func NewDatasetteClient(baseURL, database, apiToken string) *DatasetteClient {
	return &DatasetteClient{
		baseURL:  baseURL,
		database: database,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  ratelimit.NewWithBurst("datasette", 5, 10),
	}
}

// Connect validates the configured base URL. No connection is held open.
func (c *DatasetteClient) Connect() error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid Datasette URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid Datasette URL: %s", c.baseURL)
	}
	return nil
}

// CreateTable is a no-op: the insert API creates missing tables from the
// first row batch.
func (c *DatasetteClient) CreateTable(schema string) error {
	return nil
}

// InsertRows posts rows to the insert endpoint as JSON objects keyed by
// column name.
func (c *DatasetteClient) InsertRows(table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	objects := make([]map[string]any, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row for %s has %d values, want %d", table, len(row), len(columns))
		}
		object := make(map[string]any, len(columns))
		for j, column := range columns {
			object[column] = row[j]
		}
		objects[i] = object
	}

	payload, err := json.Marshal(map[string]any{"rows": objects})
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid Datasette URL: %w", err)
	}
	u.Path = path.Join(u.Path, "-", "insert", c.database, table)

	if err := c.limiter.Wait(context.Background()); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("insert request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.NewRateLimitError(fmt.Sprintf("insert into %s throttled by server", table))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("insert into %s failed with status %d: %s", table, resp.StatusCode, string(bytes.TrimSpace(body)))
	}
	return nil
}

// Close is a no-op for the HTTP client.
func (c *DatasetteClient) Close() error {
	return nil
}
