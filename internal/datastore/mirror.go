package datastore

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/viper"
)

// MirrorDatabase is the logical database name used for mirror inserts.
const MirrorDatabase = "abacus"

// CatalogSchema holds one row per mirrored table with its identity and
// dimensions, so a Datasette UI can navigate the store.
const CatalogSchema = `CREATE TABLE IF NOT EXISTS abacus_tables (
	name TEXT PRIMARY KEY,
	path TEXT,
	rows INTEGER,
	cols INTEGER,
	modified TEXT
)`

// TableRecord is one table to mirror: its identity plus the full cell data.
type TableRecord struct {
	Name     string
	Path     string
	Modified time.Time
	Cols     int
	Cells    [][]string
}

// NewFromConfig builds a mirror Store from viper configuration:
// mirror.mode "local" (default) uses a SQLite file at mirror.dbfile,
// "remote" posts to a Datasette instance at mirror.remote_url.
func NewFromConfig() (Store, error) {
	mode := viper.GetString("mirror.mode")
	switch mode {
	case "", "local":
		dbfile := viper.GetString("mirror.dbfile")
		if dbfile == "" {
			dbfile = "./abacus.db"
		}
		return NewSQLiteStore(dbfile), nil
	case "remote":
		baseURL := viper.GetString("mirror.remote_url")
		if baseURL == "" {
			return nil, fmt.Errorf("mirror.remote_url is required for remote mode")
		}
		return NewDatasetteClient(baseURL, MirrorDatabase, viper.GetString("mirror.api_token")), nil
	default:
		return nil, fmt.Errorf("invalid mirror mode: %s", mode)
	}
}

// Mirror writes the given tables into the store: each table becomes a data
// table of rownum + c1..cN TEXT columns, and the catalog gets one row per
// table. The caller is expected to mirror into a fresh target; rows are
// appended, not upserted.
func Mirror(store Store, tables []TableRecord) error {
	if err := store.CreateTable(CatalogSchema); err != nil {
		return fmt.Errorf("failed to create catalog table: %w", err)
	}

	var catalog [][]any
	for _, table := range tables {
		dataTable := MirrorTableName(table.Name)

		if err := store.CreateTable(dataTableSchema(dataTable, table.Cols)); err != nil {
			return fmt.Errorf("failed to create mirror of %s: %w", table.Name, err)
		}

		columns := make([]string, 0, table.Cols+1)
		columns = append(columns, "rownum")
		for j := 0; j < table.Cols; j++ {
			columns = append(columns, columnName(j))
		}

		rows := make([][]any, len(table.Cells))
		for i, row := range table.Cells {
			values := make([]any, 0, table.Cols+1)
			values = append(values, i+1)
			for j := 0; j < table.Cols; j++ {
				value := ""
				if j < len(row) {
					value = row[j]
				}
				values = append(values, value)
			}
			rows[i] = values
		}

		if err := store.InsertRows(dataTable, columns, rows); err != nil {
			return fmt.Errorf("failed to insert rows of %s: %w", table.Name, err)
		}

		catalog = append(catalog, []any{
			table.Name,
			table.Path,
			len(table.Cells),
			table.Cols,
			table.Modified.Format("2006-01-02 15:04:05"),
		})
	}

	columns := []string{"name", "path", "rows", "cols", "modified"}
	if err := store.InsertRows("abacus_tables", columns, catalog); err != nil {
		return fmt.Errorf("failed to insert catalog rows: %w", err)
	}
	return nil
}

// MirrorTableName maps a table display name to a SQL-safe data table name.
func MirrorTableName(name string) string {
	var b strings.Builder
	b.WriteString("table_")
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func dataTableSchema(dataTable string, cols int) string {
	columns := make([]string, 0, cols+1)
	columns = append(columns, "rownum INTEGER PRIMARY KEY")
	for j := 0; j < cols; j++ {
		columns = append(columns, columnName(j)+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", dataTable, strings.Join(columns, ", "))
}

func columnName(j int) string {
	return fmt.Sprintf("c%d", j+1)
}
