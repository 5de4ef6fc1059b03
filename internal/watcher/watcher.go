// Package watcher observes the storage directory for table file changes,
// coalescing event bursts so one logical edit yields one event.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lepinkainen/abacus/internal/ratelimit"
)

// EventType classifies a table file change.
type EventType int

const (
	// Created indicates a new table file appeared.
	Created EventType = iota
	// Changed indicates an existing table file was rewritten.
	Changed
	// Removed indicates a table file was deleted or renamed away.
	Removed
)

func (t EventType) String() string {
	switch t {
	case Created:
		return "created"
	case Changed:
		return "changed"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is one coalesced table file change.
type Event struct {
	Type EventType
	Path string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the coalescing window (default 200ms).
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// Watcher emits coalesced events for table files in one directory.
// Write bursts to the same path collapse into a single event per
// debounce window, and delivery is paced by a rate limiter so a noisy
// directory cannot flood the consumer.
type Watcher struct {
	dir      string
	ext      string
	debounce time.Duration
	limiter  *ratelimit.Limiter
	events   chan Event
}

// New creates a watcher for table files (by extension) in dir.
func New(dir, ext string, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		ext:      ext,
		debounce: 200 * time.Millisecond,
		limiter:  ratelimit.New("watcher", 20),
		events:   make(chan Event, 16),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Events returns the channel of coalesced events. It is closed when Run
// returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run watches until the context is cancelled. Cancellation is a normal
// return, not an error.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	slog.Info("Watching storage directory", "dir", w.dir, "ext", w.ext)

	// Pending events per path, flushed one debounce window after the
	// first event of the burst.
	pending := map[string]EventType{}
	flush := time.NewTimer(w.debounce)
	if !flush.Stop() {
		<-flush.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			eventType, relevant := classify(event)
			if !relevant || filepath.Ext(event.Name) != w.ext {
				continue
			}
			if len(pending) == 0 {
				flush.Reset(w.debounce)
			}
			pending[event.Name] = merge(pending, event.Name, eventType)

		case <-flush.C:
			if err := w.emit(ctx, pending); err != nil {
				return err
			}
			pending = map[string]EventType{}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watch error", "dir", w.dir, "error", err)
		}
	}
}

// classify maps fsnotify ops to event types.
func classify(event fsnotify.Event) (EventType, bool) {
	switch {
	case event.Has(fsnotify.Create):
		return Created, true
	case event.Has(fsnotify.Write):
		return Changed, true
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		return Removed, true
	default:
		return 0, false
	}
}

// merge collapses a burst on one path: creation followed by writes is
// still a creation, and removal wins over everything before it.
func merge(pending map[string]EventType, path string, next EventType) EventType {
	prev, ok := pending[path]
	if !ok {
		return next
	}
	if next == Removed {
		return Removed
	}
	if prev == Created {
		return Created
	}
	return next
}

func (w *Watcher) emit(ctx context.Context, pending map[string]EventType) error {
	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := w.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case w.events <- Event{Type: pending[path], Path: path}:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}
