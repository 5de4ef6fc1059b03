package cmd

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/abacus/internal/config"
	"github.com/lepinkainen/abacus/internal/csvutil"
	"github.com/lepinkainen/abacus/internal/fileutil"
	"github.com/lepinkainen/abacus/internal/grid"
	"github.com/lepinkainen/abacus/internal/tablestore"
	"github.com/lepinkainen/abacus/internal/tui"
)

// newStore builds a store over the configured storage directory.
func newStore() *tablestore.Store {
	return tablestore.New(config.StorageDir, tablestore.WithExtension(config.TableExtension))
}

// resolveTable maps a CLI argument to a backing file path. An argument that
// is an existing file path is used directly; anything else is treated as a
// table name inside the storage directory.
func resolveTable(store *tablestore.Store, arg string) string {
	if fileutil.FileExists(arg) {
		return arg
	}
	return fileutil.TablePath(arg, store.Dir(), store.Extension())
}

// pickTable runs the interactive picker over the store's tables. The second
// return value is false when the user skipped or cancelled.
func pickTable(store *tablestore.Store, title string) (string, bool, error) {
	tables, err := store.List()
	if err != nil {
		return "", false, err
	}

	result, err := tui.SelectTable(title, tables)
	if err != nil {
		return "", false, err
	}
	if result.Action != tui.ActionSelected {
		return "", false, nil
	}
	return result.Selection.Path, true, nil
}

// NewCmd creates a new table and saves it to the store
type NewCmd struct {
	Name string `arg:"" help:"Name for the new table"`
	Rows int    `help:"Number of rows" default:"10"`
	Cols int    `help:"Number of columns" default:"10"`
}

func (n *NewCmd) Run() error {
	if n.Rows < 1 || n.Cols < 1 {
		return fmt.Errorf("a table needs at least one row and one column")
	}

	store := newStore()
	store.Create(n.Rows, n.Cols)

	path, err := store.SaveAs(n.Name, config.OverwriteFiles)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s (%dx%d) at %s\n", n.Name, n.Rows, n.Cols, path)
	return nil
}

// ListCmd lists tables in the store
type ListCmd struct {
	JSON bool `help:"Print the listing as JSON"`
}

func (l *ListCmd) Run() error {
	store := newStore()
	tables, err := store.List()
	if err != nil {
		return err
	}

	if l.JSON {
		data, err := json.MarshalIndent(tables, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal listing: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(tables) == 0 {
		fmt.Println("No tables in", store.Dir())
		return nil
	}
	for _, table := range tables {
		fmt.Printf("%-30s %4d x %-4d %s\n", table.Name, table.Rows, table.Cols,
			table.Modified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// ShowCmd prints a table
type ShowCmd struct {
	Path string `arg:"" optional:"" help:"Table name or path (picker when omitted)"`
}

func (s *ShowCmd) Run() error {
	store := newStore()

	path := ""
	if s.Path != "" {
		path = resolveTable(store, s.Path)
	} else {
		picked, ok, err := pickTable(store, "Show which table?")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		path = picked
	}

	if err := store.Load(path); err != nil {
		return err
	}

	fmt.Println(renderGrid(store.Grid()))
	return nil
}

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// renderGrid lays the cells out in aligned columns inside a border.
func renderGrid(g *grid.Grid) string {
	widths := make([]int, g.Cols())
	for col := 0; col < g.Cols(); col++ {
		for row := 0; row < g.Rows(); row++ {
			if n := len(g.Cell(row, col)); n > widths[col] {
				widths[col] = n
			}
		}
	}

	lines := make([]string, 0, g.Rows())
	for row := 0; row < g.Rows(); row++ {
		fields := make([]string, g.Cols())
		for col := 0; col < g.Cols(); col++ {
			fields[col] = cellStyle.Render(fmt.Sprintf("%-*s", widths[col], g.Cell(row, col)))
		}
		lines = append(lines, strings.Join(fields, "|"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		Render(strings.Join(lines, "\n"))
}

// GetCmd reads one cell
type GetCmd struct {
	Path string `arg:"" help:"Table name or path"`
	Row  int    `arg:"" help:"Row index (0-based)"`
	Col  int    `arg:"" help:"Column index (0-based)"`
}

func (g *GetCmd) Run() error {
	store := newStore()
	if err := store.Load(resolveTable(store, g.Path)); err != nil {
		return err
	}
	if err := checkBounds(store, g.Row, g.Col); err != nil {
		return err
	}

	fmt.Println(store.Cell(g.Row, g.Col))
	return nil
}

// SetCmd writes one cell
type SetCmd struct {
	Path  string `arg:"" help:"Table name or path"`
	Row   int    `arg:"" help:"Row index (0-based)"`
	Col   int    `arg:"" help:"Column index (0-based)"`
	Value string `arg:"" help:"New cell value"`
}

func (s *SetCmd) Run() error {
	store := newStore()
	if err := store.Load(resolveTable(store, s.Path)); err != nil {
		return err
	}
	if err := checkBounds(store, s.Row, s.Col); err != nil {
		return err
	}

	store.SetCell(s.Row, s.Col, s.Value)
	if store.State() != tablestore.SyncClean {
		return fmt.Errorf("failed to sync %s", store.Path())
	}
	return nil
}

func checkBounds(store *tablestore.Store, row, col int) error {
	g := store.Grid()
	if row < 0 || row >= g.Rows() || col < 0 || col >= g.Cols() {
		return fmt.Errorf("cell (%d,%d) is outside the %dx%d table", row, col, g.Rows(), g.Cols())
	}
	return nil
}

// RowCmd adds or removes rows
type RowCmd struct {
	Add RowAddCmd `cmd:"" help:"Insert an empty row"`
	Rm  RowRmCmd  `cmd:"" help:"Remove a row"`
}

// RowAddCmd inserts an empty row
type RowAddCmd struct {
	Path string `arg:"" help:"Table name or path"`
	At   int    `help:"Row index to insert at (appends when omitted)" default:"-1"`
}

func (r *RowAddCmd) Run() error {
	store := newStore()
	if err := store.Load(resolveTable(store, r.Path)); err != nil {
		return err
	}
	store.AddRow(r.At)
	return nil
}

// RowRmCmd removes a row
type RowRmCmd struct {
	Path string `arg:"" help:"Table name or path"`
	At   int    `arg:"" help:"Row index to remove"`
}

func (r *RowRmCmd) Run() error {
	store := newStore()
	if err := store.Load(resolveTable(store, r.Path)); err != nil {
		return err
	}
	if !store.DeleteRow(r.At) {
		return fmt.Errorf("cannot remove row %d from a %dx%d table",
			r.At, store.Grid().Rows(), store.Grid().Cols())
	}
	return nil
}

// ColCmd adds or removes columns
type ColCmd struct {
	Add ColAddCmd `cmd:"" help:"Insert an empty column"`
	Rm  ColRmCmd  `cmd:"" help:"Remove a column"`
}

// ColAddCmd inserts an empty column
type ColAddCmd struct {
	Path string `arg:"" help:"Table name or path"`
	At   int    `help:"Column index to insert at (appends when omitted)" default:"-1"`
}

func (c *ColAddCmd) Run() error {
	store := newStore()
	if err := store.Load(resolveTable(store, c.Path)); err != nil {
		return err
	}
	store.AddColumn(c.At)
	return nil
}

// ColRmCmd removes a column
type ColRmCmd struct {
	Path string `arg:"" help:"Table name or path"`
	At   int    `arg:"" help:"Column index to remove"`
}

func (c *ColRmCmd) Run() error {
	store := newStore()
	if err := store.Load(resolveTable(store, c.Path)); err != nil {
		return err
	}
	if !store.DeleteColumn(c.At) {
		return fmt.Errorf("cannot remove column %d from a %dx%d table",
			c.At, store.Grid().Rows(), store.Grid().Cols())
	}
	return nil
}

// PasteCmd pastes a TSV block from stdin into a table
type PasteCmd struct {
	Path string `arg:"" help:"Table name or path"`
	At   string `help:"Anchor cell as row,col" default:"0,0"`
}

var pasteInput io.Reader = os.Stdin

func (p *PasteCmd) Run() error {
	row, col, err := parseAnchor(p.At)
	if err != nil {
		return err
	}

	block, err := readTSVBlock(pasteInput)
	if err != nil {
		return err
	}
	if len(block) == 0 {
		return fmt.Errorf("nothing to paste")
	}

	store := newStore()
	if err := store.Load(resolveTable(store, p.Path)); err != nil {
		return err
	}

	store.Paste(row, col, block)
	if store.State() != tablestore.SyncClean {
		return fmt.Errorf("failed to sync %s", store.Path())
	}

	fmt.Printf("Pasted %d rows at (%d,%d)\n", len(block), row, col)
	return nil
}

func parseAnchor(at string) (int, int, error) {
	parts := strings.SplitN(at, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid anchor %q, expected row,col", at)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid anchor row %q", parts[0])
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid anchor column %q", parts[1])
	}
	if row < 0 || col < 0 {
		return 0, 0, fmt.Errorf("anchor %q must be non-negative", at)
	}
	return row, col, nil
}

func readTSVBlock(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	block, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read TSV block: %w", err)
	}
	return block, nil
}

// CopyCmd saves a table under a new name
type CopyCmd struct {
	Path string `arg:"" help:"Source table name or path"`
	Name string `arg:"" help:"Name for the copy"`
}

func (c *CopyCmd) Run() error {
	store := newStore()
	if err := store.Load(resolveTable(store, c.Path)); err != nil {
		return err
	}

	path, err := store.SaveAs(c.Name, config.OverwriteFiles)
	if err != nil {
		return err
	}
	fmt.Printf("Copied to %s\n", path)
	return nil
}

// RmCmd deletes a table from the store
type RmCmd struct {
	Path string `arg:"" optional:"" help:"Table name or path (picker when omitted)"`
}

func (r *RmCmd) Run() error {
	store := newStore()

	path := ""
	if r.Path != "" {
		path = resolveTable(store, r.Path)
	} else {
		picked, ok, err := pickTable(store, "Delete which table?")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		path = picked
	}

	if err := store.Delete(path); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", path)
	return nil
}

// ImportCmd imports an external CSV file into the store
type ImportCmd struct {
	Input string `arg:"" help:"Path to the CSV file to import"`
	Name  string `help:"Table name (defaults to the file name)"`
}

func (i *ImportCmd) Run() error {
	if !fileutil.FileExists(i.Input) {
		return fmt.Errorf("input file not found: %s", i.Input)
	}

	store := newStore()
	rows, err := csvutil.ReadGrid(i.Input, store.Delimiter())
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", i.Input, err)
	}

	name := i.Name
	if name == "" {
		name = fileutil.SanitizeFilename(baseName(i.Input))
	}

	g := grid.FromRows(rows)
	if g.Empty() {
		return fmt.Errorf("nothing to import from %s", i.Input)
	}

	store.Create(0, 0)
	store.Paste(0, 0, g.Snapshot())

	path, err := store.SaveAs(name, config.OverwriteFiles)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %s as %s (%dx%d)\n", i.Input, path, g.Rows(), g.Cols())
	return nil
}

func baseName(path string) string {
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		path = path[idx+1:]
	}
	if dot := strings.LastIndex(path, "."); dot > 0 {
		path = path[:dot]
	}
	return path
}
