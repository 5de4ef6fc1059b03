// Package tablestore maintains an in-memory cell grid whose backing CSV
// file is rewritten on every mutation, with an explicit batch mode to
// coalesce bulk edits into a single write.
package tablestore

import (
	"log/slog"
	"os"

	"github.com/lepinkainen/abacus/internal/grid"
)

// SyncState describes how the in-memory grid relates to the backing file.
type SyncState int

const (
	// SyncClean means the grid mirrors the last successful disk sync.
	SyncClean SyncState = iota
	// SyncDirty means the grid differs from disk: either no file is bound
	// yet, or the last write-through failed.
	SyncDirty
	// SyncBatchPending means at least one mutation happened inside the
	// currently open batch and a flush is owed at batch end.
	SyncBatchPending
)

func (s SyncState) String() string {
	switch s {
	case SyncClean:
		return "clean"
	case SyncDirty:
		return "dirty"
	case SyncBatchPending:
		return "batch-pending"
	default:
		return "unknown"
	}
}

const (
	// DefaultExtension is the backing file extension for table files.
	DefaultExtension = ".csv"
	// DefaultDelimiter is the field delimiter for table files.
	DefaultDelimiter = ','
)

// Option configures a Store.
type Option func(*Store)

// WithExtension overrides the backing file extension (default ".csv").
func WithExtension(ext string) Option {
	return func(s *Store) { s.ext = ext }
}

// WithDelimiter overrides the field delimiter (default ',').
func WithDelimiter(delim rune) Option {
	return func(s *Store) { s.delim = delim }
}

// Store holds one table: its grid, its identity (display name plus bound
// backing file path), and the sync state machine. It is single-threaded by
// contract: callers invoke one operation at a time.
type Store struct {
	dir   string
	ext   string
	delim rune

	grid  *grid.Grid
	name  string
	path  string
	state SyncState

	batch   bool
	syncing bool
}

// New creates a store over the given storage directory. The directory is
// created if it does not exist.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:   dir,
		ext:   DefaultExtension,
		delim: DefaultDelimiter,
		grid:  grid.New(0, 0),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Warn("Failed to create storage directory", "dir", dir, "error", err)
	}
	return s
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

// Extension returns the backing file extension.
func (s *Store) Extension() string { return s.ext }

// Delimiter returns the field delimiter for table files.
func (s *Store) Delimiter() rune { return s.delim }

// Name returns the display name of the bound table, or "" when unbound.
func (s *Store) Name() string { return s.name }

// Path returns the bound backing file path, or "" when unbound.
func (s *Store) Path() string { return s.path }

// State returns the current sync state.
func (s *Store) State() SyncState { return s.state }

// Grid returns the live grid. Mutating it directly bypasses write-through.
func (s *Store) Grid() *grid.Grid { return s.grid }

// Create replaces the grid with a fresh all-empty one of the given size
// and clears the file binding: the table is new and unsaved.
func (s *Store) Create(rows, cols int) {
	s.grid = grid.New(rows, cols)
	s.name = ""
	s.path = ""
	s.state = SyncClean
}

// Cell returns the value at (row, col); out-of-range reads return "".
func (s *Store) Cell(row, col int) string {
	return s.grid.Cell(row, col)
}

// SetCell stores value at (row, col). A write that changes the stored value
// triggers a write-through sync unless a batch is open. Out-of-range writes
// are no-ops.
func (s *Store) SetCell(row, col int, value string) {
	if s.grid.SetCell(row, col, value) {
		s.markMutated()
	}
}

// AddRow inserts an empty row at the given index (negative or past-the-end
// appends) and triggers a sync.
func (s *Store) AddRow(at int) {
	s.grid.AddRow(at)
	s.markMutated()
}

// AddColumn inserts an empty column at the given index (negative or
// past-the-end appends) and triggers a sync.
func (s *Store) AddColumn(at int) {
	s.grid.AddColumn(at)
	s.markMutated()
}

// DeleteRow removes the row at the given index and reports whether the
// deletion happened. Deleting the last remaining row is refused; refused
// deletions do not sync.
func (s *Store) DeleteRow(at int) bool {
	if !s.grid.DeleteRow(at) {
		return false
	}
	s.markMutated()
	return true
}

// DeleteColumn removes the column at the given index and reports whether
// the deletion happened. Deleting the last remaining column is refused.
func (s *Store) DeleteColumn(at int) bool {
	if !s.grid.DeleteColumn(at) {
		return false
	}
	s.markMutated()
	return true
}

// Paste writes a rectangular block of cells anchored at (row, col), growing
// the grid as needed. The whole block counts as one mutation: exactly one
// sync happens regardless of block size.
func (s *Store) Paste(row, col int, block [][]string) {
	if len(block) == 0 || row < 0 || col < 0 {
		return
	}

	wide := 0
	for _, blockRow := range block {
		if len(blockRow) > wide {
			wide = len(blockRow)
		}
	}
	if wide == 0 {
		return
	}

	wasBatch := s.batch
	s.batch = true

	for s.grid.Rows() < row+len(block) {
		s.grid.AddRow(-1)
		s.state = SyncBatchPending
	}
	for s.grid.Cols() < col+wide {
		s.grid.AddColumn(-1)
		s.state = SyncBatchPending
	}
	for i, blockRow := range block {
		for j, value := range blockRow {
			if s.grid.SetCell(row+i, col+j, value) {
				s.state = SyncBatchPending
			}
		}
	}

	s.batch = wasBatch
	if wasBatch || s.state != SyncBatchPending {
		return
	}
	if s.path == "" {
		s.state = SyncDirty
		return
	}
	s.writeThrough()
}

// BeginBatch suspends per-mutation syncs until EndBatch. Batches do not
// nest; a second BeginBatch is a no-op.
func (s *Store) BeginBatch() {
	s.batch = true
}

// EndBatch closes the batch and flushes once if any mutation occurred
// during it. Without an open batch it is a no-op.
func (s *Store) EndBatch() error {
	if !s.batch {
		return nil
	}
	s.batch = false

	if s.state != SyncBatchPending {
		return nil
	}
	if s.path == "" {
		s.state = SyncDirty
		return nil
	}
	if err := s.flush(); err != nil {
		s.state = SyncDirty
		return err
	}
	s.state = SyncClean
	return nil
}

// markMutated records a grid mutation: inside a batch it only notes that a
// flush is owed; outside a batch it performs the write-through sync.
func (s *Store) markMutated() {
	if s.batch {
		s.state = SyncBatchPending
		return
	}
	if s.path == "" {
		s.state = SyncDirty
		return
	}
	s.writeThrough()
}

// writeThrough rewrites the bound file. Failures degrade to a logged
// warning and a dirty state; the in-memory mutation itself stands. The
// syncing flag guards against a sync re-entering itself.
func (s *Store) writeThrough() {
	if s.syncing {
		return
	}
	s.syncing = true
	defer func() { s.syncing = false }()

	if err := s.flush(); err != nil {
		slog.Warn("Sync failed", "path", s.path, "error", err)
		s.state = SyncDirty
		return
	}
	s.state = SyncClean
}
