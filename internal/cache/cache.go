// Package cache memoizes table dimension scans in a SQLite database so
// listing a large storage directory does not re-read every file.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/viper"
	_ "modernc.org/sqlite"
)

const (
	// DefaultCacheTTL is the default time-to-live for cached entries (30 days)
	DefaultCacheTTL = 720 * time.Hour

	statsTable = "table_stats_cache"
)

// ScanFunc represents a function that scans a table file for its dimensions.
type ScanFunc func() (TableStats, error)

// TableStats holds the cached outcome of a dimension scan along with the
// file size and mtime the scan observed. A stats entry is only valid while
// both still match the file on disk.
type TableStats struct {
	Rows    int   `json:"rows"`
	Cols    int   `json:"cols"`
	Size    int64 `json:"size"`
	ModTime int64 `json:"mtime"`
}

// CacheDB manages the SQLite database connection for caching
type CacheDB struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

var (
	globalCache     *CacheDB
	globalCacheOnce sync.Once
)

// ResetGlobalCache closes the current global cache and resets the singleton
// so the next call to GetGlobalCache will create a new instance.
// This is primarily for testing purposes.
func ResetGlobalCache() error {
	if globalCache != nil {
		if err := globalCache.Close(); err != nil {
			return err
		}
	}
	globalCache = nil
	globalCacheOnce = sync.Once{}
	return nil
}

// GetGlobalCache returns the singleton cache database instance
func GetGlobalCache() (*CacheDB, error) {
	var initErr error
	globalCacheOnce.Do(func() {
		dbPath := viper.GetString("cache.dbfile")
		if dbPath == "" {
			dbPath = "./cache.db"
		}
		globalCache, initErr = NewCacheDB(dbPath)
		if initErr != nil {
			return
		}
		// Initialize all cache tables
		for _, schema := range AllCacheSchemas {
			if err := globalCache.CreateTable(schema); err != nil {
				initErr = fmt.Errorf("failed to create cache table: %w", err)
				return
			}
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	return globalCache, nil
}

// NewCacheDB creates a new CacheDB instance and opens the database connection
func NewCacheDB(dbPath string) (*CacheDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}

	return &CacheDB{
		db:   db,
		path: dbPath,
	}, nil
}

// CreateTable creates a table using the provided schema
func (c *CacheDB) CreateTable(schema string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *CacheDB) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InvalidateSource deletes all entries from the specified cache table.
// tableName must be one of the valid cache table names.
// Returns the number of rows deleted.
func (c *CacheDB) InvalidateSource(tableName string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Validate table name to prevent SQL injection
	if err := validateTableName(tableName); err != nil {
		return 0, err
	}

	// Delete all rows from the specified table
	query := fmt.Sprintf("DELETE FROM %s", tableName)
	result, err := c.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Debug("Cache table cleared", "table", tableName, "rows_deleted", rowsAffected)
	return rowsAffected, nil
}

// EntryCount returns the number of entries in the specified cache table.
func (c *CacheDB) EntryCount(tableName string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := validateTableName(tableName); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", tableName)
	var count int64
	if err := c.db.QueryRow(query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

// validateTableName checks if the table name is in the whitelist
// to prevent SQL injection attacks
func validateTableName(tableName string) error {
	if !ValidCacheTableNames[tableName] {
		return fmt.Errorf("invalid cache table name: %s", tableName)
	}
	return nil
}

// GetOrScan retrieves table stats from cache or scans the file using the
// provided function. path is the backing file path; size and modTime are
// the file's current stat values, used to invalidate stale entries.
// Returns the stats, whether they came from cache, and any error from the scan.
func GetOrScan(path string, size int64, modTime time.Time, scanFunc ScanFunc) (TableStats, bool, error) {
	var zero TableStats

	if !viper.GetBool("cache.enabled") {
		stats, err := scanFunc()
		return stats, false, err
	}

	cache, err := GetGlobalCache()
	if err != nil {
		// If cache initialization fails, fall back to a direct scan
		slog.Warn("Failed to initialize cache, scanning directly", "error", err)
		stats, scanErr := scanFunc()
		return stats, false, scanErr
	}

	// Get TTL duration from config
	ttlStr := viper.GetString("cache.ttl")
	if ttlStr == "" {
		ttlStr = "720h" // Default 30 days
	}
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		slog.Warn("Invalid cache TTL, using default", "ttl", ttlStr, "error", err)
		ttl = DefaultCacheTTL
	}

	// Check cache first
	cached, fromCache, err := cache.Get(statsTable, path, ttl)
	if err == nil && fromCache {
		var stats TableStats
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			if stats.Size == size && stats.ModTime == modTime.UnixNano() {
				slog.Debug("Cache hit", "table", statsTable, "key", path)
				return stats, true, nil
			}
			slog.Debug("Cache entry stale, rescanning", "key", path)
		} else {
			slog.Warn("Failed to unmarshal cached stats, will rescan", "key", path, "error", err)
		}
	}

	// Scan the file if not in cache
	slog.Debug("Cache miss, scanning table file", "key", path)
	stats, err := scanFunc()
	if err != nil {
		return zero, false, fmt.Errorf("failed to scan table file: %w", err)
	}
	stats.Size = size
	stats.ModTime = modTime.UnixNano()

	// Cache the result
	jsonData, err := json.Marshal(stats)
	if err != nil {
		slog.Warn("Failed to marshal stats for caching", "key", path, "error", err)
	} else {
		if err := cache.Set(statsTable, path, string(jsonData)); err != nil {
			// Log error but don't fail - caching failure shouldn't stop the listing
			slog.Warn("Failed to cache stats", "key", path, "error", err)
		} else {
			slog.Debug("Stats cached successfully", "key", path)
		}
	}

	return stats, false, nil
}

// Get retrieves a cached value from the specified table
// Returns the cached data, whether it was from cache, and any error
func (c *CacheDB) Get(tableName, key string, ttl time.Duration) (string, bool, error) {
	if err := validateTableName(tableName); err != nil {
		return "", false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	query := fmt.Sprintf(`
		SELECT data, cached_at
		FROM %s
		WHERE cache_key = ?
	`, tableName)

	var data string
	var cachedAt time.Time
	err := c.db.QueryRow(query, key).Scan(&data, &cachedAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query cache: %w", err)
	}

	// Check if cache has expired
	age := time.Now().UTC().Sub(cachedAt)
	if age > ttl {
		slog.Debug("Cache expired", "table", tableName, "key", key, "age", age)
		return "", false, nil
	}

	return data, true, nil
}

// Set stores a value in the cache
func (c *CacheDB) Set(tableName, key, data string) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (cache_key, data, cached_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`, tableName)

	_, err := c.db.Exec(query, key, data)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Delete removes a single entry from the specified cache table.
func (c *CacheDB) Delete(tableName, key string) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	query := fmt.Sprintf("DELETE FROM %s WHERE cache_key = ?", tableName)
	if _, err := c.db.Exec(query, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}
