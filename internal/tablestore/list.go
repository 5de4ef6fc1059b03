package tablestore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lepinkainen/abacus/internal/cache"
	"github.com/lepinkainen/abacus/internal/csvutil"
)

// TableInfo describes one table file in the storage directory.
type TableInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	Modified time.Time `json:"modified"`
}

// List enumerates every table file in the storage directory, sorted by most
// recently modified first. Dimension scans go through the stats cache when
// it is enabled; a file that cannot be scanned is listed with zero
// dimensions rather than failing the whole listing.
func (s *Store) List() ([]TableInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	var tables []TableInfo
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != s.ext {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		fi, err := entry.Info()
		if err != nil {
			slog.Warn("Failed to stat table file", "path", path, "error", err)
			continue
		}

		stats, _, err := cache.GetOrScan(path, fi.Size(), fi.ModTime(), func() (cache.TableStats, error) {
			rows, cols, err := csvutil.ScanDims(path, s.delim)
			if err != nil {
				return cache.TableStats{}, err
			}
			return cache.TableStats{Rows: rows, Cols: cols}, nil
		})
		if err != nil {
			slog.Warn("Failed to scan table file", "path", path, "error", err)
		}

		tables = append(tables, TableInfo{
			Name:     tableName(path),
			Path:     path,
			Rows:     stats.Rows,
			Cols:     stats.Cols,
			Modified: fi.ModTime(),
		})
	}

	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Modified.After(tables[j].Modified)
	})
	return tables, nil
}

// Info returns the identity and dimensions of the currently held table.
func (s *Store) Info() TableInfo {
	info := TableInfo{
		Name: s.name,
		Path: s.path,
		Rows: s.grid.Rows(),
		Cols: s.grid.Cols(),
	}
	if s.path != "" {
		if fi, err := os.Stat(s.path); err == nil {
			info.Modified = fi.ModTime()
		}
	}
	return info
}
