package cache

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
)

// ClearCacheCmd represents the cache clear subcommand
type ClearCacheCmd struct{}

func (c *ClearCacheCmd) Run() error {
	cacheDB := viper.GetString("cache.dbfile")

	slog.Info("Clearing stats cache", "database", cacheDB)

	cacheInstance, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	rowsDeleted, err := cacheInstance.InvalidateSource(statsTable)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	slog.Info("Cache cleared", "rows_deleted", rowsDeleted)
	return nil
}

// StatsCacheCmd represents the cache stats subcommand
type StatsCacheCmd struct{}

func (s *StatsCacheCmd) Run() error {
	cacheInstance, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	count, err := cacheInstance.EntryCount(statsTable)
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	fmt.Printf("Cache database: %s\n", viper.GetString("cache.dbfile"))
	fmt.Printf("Cached table scans: %d\n", count)
	return nil
}
