package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/lepinkainen/abacus/internal/config"
	"github.com/lepinkainen/abacus/internal/datastore"
	"github.com/lepinkainen/abacus/internal/fileutil"
	"github.com/lepinkainen/abacus/internal/markdown"
	"github.com/lepinkainen/abacus/internal/tablestore"
)

// ExportCmd groups the export targets
type ExportCmd struct {
	Markdown ExportMarkdownCmd `cmd:"" help:"Export a table as a markdown document"`
	JSON     ExportJSONCmd     `cmd:"" help:"Export a table as JSON"`
	SQLite   ExportSQLiteCmd   `cmd:"" name:"sqlite" help:"Mirror tables into a SQLite database or Datasette"`
}

// ExportMarkdownCmd exports one table as a markdown document with
// frontmatter
type ExportMarkdownCmd struct {
	Path   string `arg:"" help:"Table name or path"`
	Output string `short:"o" help:"Output directory (defaults to MarkdownOutputDir)"`
}

func (e *ExportMarkdownCmd) Run() error {
	store := newStore()
	if err := store.Load(resolveTable(store, e.Path)); err != nil {
		return err
	}

	doc, err := markdown.Render(store.Info(), store.Grid().Snapshot())
	if err != nil {
		return err
	}

	outDir := e.Output
	if outDir == "" {
		outDir = viper.GetString("MarkdownOutputDir")
	}
	outPath := filepath.Join(outDir, fileutil.SanitizeFilename(store.Name())+".md")

	written, err := fileutil.WriteFileWithOverwrite(outPath, doc, 0o644, config.OverwriteFiles)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	if !written {
		slog.Info("Markdown file already exists, skipping", "path", outPath)
		return nil
	}

	fmt.Printf("Exported %s to %s\n", store.Name(), outPath)
	return nil
}

// tableExport is the JSON export shape: the table's identity plus its cells.
type tableExport struct {
	tablestore.TableInfo
	Cells [][]string `json:"cells"`
}

// ExportJSONCmd exports one table as JSON
type ExportJSONCmd struct {
	Path   string `arg:"" help:"Table name or path"`
	Output string `short:"o" help:"Output directory (defaults to JSONOutputDir)"`
}

func (e *ExportJSONCmd) Run() error {
	store := newStore()
	if err := store.Load(resolveTable(store, e.Path)); err != nil {
		return err
	}

	outDir := e.Output
	if outDir == "" {
		outDir = viper.GetString("JSONOutputDir")
	}
	outPath := filepath.Join(outDir, fileutil.SanitizeFilename(store.Name())+".json")

	export := tableExport{
		TableInfo: store.Info(),
		Cells:     store.Grid().Snapshot(),
	}
	written, err := fileutil.WriteJSONFile(export, outPath, config.OverwriteFiles)
	if err != nil {
		return err
	}
	if written {
		fmt.Printf("Exported %s to %s\n", store.Name(), outPath)
	}
	return nil
}

// ExportSQLiteCmd mirrors tables into the configured mirror target
type ExportSQLiteCmd struct {
	Paths []string `arg:"" optional:"" help:"Tables to mirror (all tables when omitted)"`
}

func (e *ExportSQLiteCmd) Run() error {
	store := newStore()

	var paths []string
	if len(e.Paths) > 0 {
		for _, arg := range e.Paths {
			paths = append(paths, resolveTable(store, arg))
		}
	} else {
		tables, err := store.List()
		if err != nil {
			return err
		}
		for _, table := range tables {
			paths = append(paths, table.Path)
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no tables to mirror")
	}

	records := make([]datastore.TableRecord, 0, len(paths))
	for _, path := range paths {
		if err := store.Load(path); err != nil {
			return err
		}
		info := store.Info()
		records = append(records, datastore.TableRecord{
			Name:     info.Name,
			Path:     info.Path,
			Modified: info.Modified,
			Cols:     info.Cols,
			Cells:    store.Grid().Snapshot(),
		})
	}

	// A local mirror is rebuilt from scratch on every export.
	if viper.GetString("mirror.mode") != "remote" {
		dbfile := viper.GetString("mirror.dbfile")
		if dbfile != "" && fileutil.FileExists(dbfile) {
			if err := os.Remove(dbfile); err != nil {
				return fmt.Errorf("failed to reset mirror database: %w", err)
			}
		}
	}

	target, err := datastore.NewFromConfig()
	if err != nil {
		return err
	}
	if err := target.Connect(); err != nil {
		return fmt.Errorf("failed to connect to mirror target: %w", err)
	}
	defer func() {
		if err := target.Close(); err != nil {
			slog.Warn("Failed to close mirror target", "error", err)
		}
	}()

	if err := datastore.Mirror(target, records); err != nil {
		return err
	}

	fmt.Printf("Mirrored %d tables\n", len(records))
	return nil
}
