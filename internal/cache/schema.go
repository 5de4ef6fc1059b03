package cache

// SQL schemas for cache tables
// All cache tables use "cache_key" as the primary key column for consistency

// TableStatsCacheSchema defines the schema for table dimension scans.
// The cache key is the backing file path; the data column holds the
// serialized stats including the file size and mtime they were scanned at.
const TableStatsCacheSchema = `
CREATE TABLE IF NOT EXISTS table_stats_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_table_stats_cached_at ON table_stats_cache(cached_at);
`

// AllCacheSchemas contains all cache table schemas for easy initialization
var AllCacheSchemas = []string{
	TableStatsCacheSchema,
}

// ValidCacheTableNames is the whitelist of allowed cache table names
// Used to prevent SQL injection when interpolating table names
var ValidCacheTableNames = map[string]bool{
	"table_stats_cache": true,
}
