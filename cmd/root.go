package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/abacus/internal/cache"
	"github.com/lepinkainen/abacus/internal/config"
)

// CLI represents the complete command structure for the abacus application
type CLI struct {
	// Global flags
	Overwrite  bool   `help:"Overwrite existing files instead of appending a timestamp suffix"`
	StorageDir string `help:"Directory holding the table backing files (defaults to config)"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)" default:"720h"`
	NoCache     bool   `help:"Disable the table stats cache"`

	New    NewCmd    `cmd:"" help:"Create a new table and save it to the store"`
	List   ListCmd   `cmd:"" help:"List tables in the store"`
	Show   ShowCmd   `cmd:"" help:"Print a table"`
	Get    GetCmd    `cmd:"" help:"Read one cell"`
	Set    SetCmd    `cmd:"" help:"Write one cell"`
	Row    RowCmd    `cmd:"" help:"Add or remove rows"`
	Col    ColCmd    `cmd:"" help:"Add or remove columns"`
	Paste  PasteCmd  `cmd:"" help:"Paste a TSV block from stdin into a table"`
	Copy   CopyCmd   `cmd:"" help:"Save a table under a new name"`
	Rm     RmCmd     `cmd:"" help:"Delete a table from the store"`
	Import ImportCmd `cmd:"" help:"Import an external CSV file into the store"`
	Export ExportCmd `cmd:"" help:"Export tables to markdown, JSON or SQLite"`
	Query  QueryCmd  `cmd:"" help:"Run SQL over store tables (@name references)"`
	Watch  WatchCmd  `cmd:"" help:"Watch the store for table file changes"`
	Cache  CacheCmd  `cmd:"" help:"Manage the table stats cache"`
}

// CacheCmd groups the cache maintenance subcommands
type CacheCmd struct {
	Clear cache.ClearCacheCmd `cmd:"" help:"Clear all cached table scans"`
	Stats cache.StatsCacheCmd `cmd:"" help:"Show cache statistics"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("abacus"),
		kong.Description("A CSV-backed table store with write-through disk sync."),
		kong.UsageOnError(),
	)

	// Update global config based on parsed flags
	updateGlobalConfig(&cli)

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetDefault("StorageDir", "./tables/")
	viper.SetDefault("TableExtension", ".csv")
	viper.SetDefault("OverwriteFiles", false)
	viper.SetDefault("MarkdownOutputDir", "./markdown/")
	viper.SetDefault("JSONOutputDir", "./json/")

	// Mirror defaults
	viper.SetDefault("mirror.mode", "local")
	viper.SetDefault("mirror.dbfile", "./abacus.db")

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h") // 30 days

	// Enable environment variable support
	viper.AutomaticEnv()
	if err := viper.BindEnv("StorageDir", "ABACUS_STORAGE_DIR"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file...")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
			os.Exit(0)
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	config.SetOverwriteFiles(cli.Overwrite || viper.GetBool("OverwriteFiles"))
	if cli.StorageDir != "" {
		config.SetStorageDir(cli.StorageDir)
	}

	// Update cache config
	viper.Set("cache.enabled", !cli.NoCache)
	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("cache.ttl", cli.CacheTTL)
}

func initLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("ABACUS_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
