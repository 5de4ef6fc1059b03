package tablestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lepinkainen/abacus/internal/csvutil"
	"github.com/lepinkainen/abacus/internal/errors"
	"github.com/lepinkainen/abacus/internal/fileutil"
	"github.com/lepinkainen/abacus/internal/grid"
)

// SaveAs serializes the grid to a file derived from name inside the storage
// directory. If a file of that name exists and overwrite is false, a
// timestamp suffix is appended to disambiguate. On success the store binds
// to the new path and returns it.
func (s *Store) SaveAs(name string, overwrite bool) (string, error) {
	if s.grid.Empty() {
		return "", fmt.Errorf("cannot save an empty table")
	}
	if name == "" {
		return "", fmt.Errorf("table name is required")
	}

	path := fileutil.TablePath(name, s.dir, s.ext)
	if fileutil.FileExists(path) && !overwrite {
		path = fileutil.TimestampedPath(path, time.Now())
	}

	if err := s.writeTo(path); err != nil {
		return "", fmt.Errorf("failed to save table: %w", err)
	}

	s.path = path
	s.name = name
	s.state = SyncClean
	return path, nil
}

// Save re-syncs the bound backing file. It is a no-op when the state is
// already clean and an error when no file is bound.
func (s *Store) Save() error {
	if s.path == "" {
		return fmt.Errorf("no backing file bound, use save-as first")
	}
	if s.state == SyncClean {
		return nil
	}
	if err := s.flush(); err != nil {
		s.state = SyncDirty
		return err
	}
	s.state = SyncClean
	return nil
}

// Load replaces the grid with the contents of the file at path, padding
// short rows to the widest observed row, and binds the path and name.
// Loading mid-batch is refused.
func (s *Store) Load(path string) error {
	if s.batch {
		return errors.NewBatchOpenError("load")
	}
	if !fileutil.FileExists(path) {
		return errors.NewTableNotFoundError(path)
	}

	rows, err := csvutil.ReadGrid(path, s.delim)
	if err != nil {
		return fmt.Errorf("failed to load table: %w", err)
	}

	s.grid = grid.FromRows(rows)
	s.path = path
	s.name = tableName(path)
	s.state = SyncClean
	return nil
}

// Delete removes the backing file at path. When it is the currently bound
// table, the in-memory grid and binding are cleared as well.
func (s *Store) Delete(path string) error {
	if !fileutil.FileExists(path) {
		return errors.NewTableNotFoundError(path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if path == s.path {
		s.Create(0, 0)
	}
	return nil
}

// flush rewrites the bound backing file from the grid.
func (s *Store) flush() error {
	return s.writeTo(s.path)
}

func (s *Store) writeTo(path string) error {
	return csvutil.WriteGrid(path, s.grid.Snapshot(), s.delim, 0o644)
}

// tableName derives a display name from a backing file path: the base name
// without the extension and without a collision timestamp suffix.
func tableName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fileutil.StripTimestampSuffix(base)
}
