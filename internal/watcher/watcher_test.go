package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "changed", Changed.String())
	assert.Equal(t, "removed", Removed.String())
}

func TestMergeCoalescesBursts(t *testing.T) {
	pending := map[string]EventType{}

	// First event stands
	assert.Equal(t, Created, merge(pending, "a.csv", Created))

	// Create followed by write is still a create
	pending["a.csv"] = Created
	assert.Equal(t, Created, merge(pending, "a.csv", Changed))

	// Removal wins over anything before it
	assert.Equal(t, Removed, merge(pending, "a.csv", Removed))

	// Write followed by write stays a write
	pending["b.csv"] = Changed
	assert.Equal(t, Changed, merge(pending, "b.csv", Changed))
}

func collectEvents(t *testing.T, w *Watcher, want int, timeout time.Duration) []Event {
	t.Helper()

	var events []Event
	deadline := time.After(timeout)
	for len(events) < want {
		select {
		case event, ok := <-w.Events():
			if !ok {
				return events
			}
			events = append(events, event)
		case <-deadline:
			t.Fatalf("timed out waiting for events, got %d of %d: %v", len(events), want, events)
		}
	}
	return events
}

func TestWatcherReportsCreation(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, ".csv", WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.csv"), []byte("a,b\n"), 0o644))

	events := collectEvents(t, w, 1, 3*time.Second)
	assert.Equal(t, Created, events[0].Type)
	assert.Equal(t, filepath.Join(dir, "new.csv"), events[0].Path)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherIgnoresForeignExtensions(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, ".csv", WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "table.csv"), []byte("a\n"), 0o644))

	events := collectEvents(t, w, 1, 3*time.Second)
	assert.Equal(t, filepath.Join(dir, "table.csv"), events[0].Path)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doomed.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	w := New(dir, ".csv", WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.Remove(path))

	events := collectEvents(t, w, 1, 3*time.Second)
	assert.Equal(t, Removed, events[0].Type)
	assert.Equal(t, path, events[0].Path)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent"), ".csv")
	err := w.Run(context.Background())
	assert.Error(t, err)
}

func TestWatcherClosesEventsOnCancel(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, ".csv")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	_, open := <-w.Events()
	assert.False(t, open, "events channel should be closed after Run returns")
}
