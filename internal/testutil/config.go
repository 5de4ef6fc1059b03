package testutil

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/lepinkainen/abacus/internal/config"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	StorageDir     string
	TableExtension string
	OverwriteFiles bool
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		StorageDir:     config.StorageDir,
		TableExtension: config.TableExtension,
		OverwriteFiles: config.OverwriteFiles,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.StorageDir = state.StorageDir
	config.TableExtension = state.TableExtension
	config.OverwriteFiles = state.OverwriteFiles
}

// ResetConfig saves the current config state and schedules restoration
// when the test completes. It also resets viper.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetTestConfig sets up a test configuration with common defaults: tables
// live under the test environment and overwriting is allowed.
func SetTestConfig(t *testing.T, env *TestEnv) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	config.StorageDir = env.Path("tables")
	config.TableExtension = ".csv"
	config.OverwriteFiles = true
	env.MkdirAll("tables")

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetViperValue sets a viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		if hadValue {
			viper.Set(key, oldValue)
		}
		// Note: viper doesn't have an Unset function, so we can't
		// restore the "unset" state. This is a known limitation.
	})
}

// SetupTestCache configures viper for test caching with a temporary directory.
// It creates the cache directory and sets up viper configuration.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	cacheDir := env.Path("cache")
	env.MkdirAll("cache")

	viper.Set("cache.enabled", true)
	viper.Set("cache.dbfile", env.Path("cache", "test-cache.db"))
	viper.Set("cache.ttl", "24h")

	return cacheDir
}

// SetupMirrorDB configures a local sqlite mirror target for tests.
// It creates a temporary database file path and configures viper with
// automatic cleanup. Returns the database path.
func SetupMirrorDB(t *testing.T, env *TestEnv) string {
	t.Helper()

	dbPath := env.Path("mirror.db")

	SetViperValue(t, "mirror.mode", "local")
	SetViperValue(t, "mirror.dbfile", dbPath)

	return dbPath
}

// SetupMarkdownOutput points the markdown export directory at the test
// environment with automatic cleanup.
func SetupMarkdownOutput(t *testing.T, env *TestEnv) {
	t.Helper()

	SetViperValue(t, "markdownoutputdir", env.RootDir())
}
