// Package query runs SQL over store tables. A query references tables as
// @name; each referenced table is loaded into an in-memory SQLite database
// with c1..cN TEXT columns and the rewritten query runs there.
package query

import (
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/lepinkainen/abacus/internal/csvutil"
	"github.com/lepinkainen/abacus/internal/errors"
	"github.com/lepinkainen/abacus/internal/fileutil"
	"github.com/lepinkainen/abacus/internal/grid"
	"github.com/lepinkainen/abacus/internal/tablestore"
)

// Result holds the output of a query: column names and stringified rows.
type Result struct {
	Columns []string
	Rows    [][]string
}

var tableRefRe = regexp.MustCompile(`@[a-zA-Z0-9_.-]+`)

// Execute resolves every @name reference in code against the store's
// directory, loads the referenced tables into an in-memory database, and
// runs the rewritten query.
func Execute(store *tablestore.Store, code string) (*Result, error) {
	refs := tableRefRe.FindAllString(code, -1)
	if len(refs) == 0 {
		return nil, fmt.Errorf("query references no tables (use @name)")
	}

	type loadedTable struct {
		tableName string
		cells     [][]string
		cols      int
	}
	loaded := map[string]*loadedTable{}
	taken := map[string]bool{}

	for _, ref := range refs {
		name := ref[1:] // strip @
		if _, ok := loaded[name]; ok {
			continue
		}

		path := fileutil.TablePath(name, store.Dir(), store.Extension())
		if !fileutil.FileExists(path) {
			return nil, errors.NewTableNotFoundError(path)
		}

		rows, err := csvutil.ReadGrid(path, store.Delimiter())
		if err != nil {
			return nil, fmt.Errorf("failed to read @%s: %w", name, err)
		}

		// Sanitizing can collide (@a.b and @a_b both map to a_b); suffix
		// later arrivals so each table gets its own identifier.
		ident := sanitizeIdent(name)
		for n := 2; taken[ident]; n++ {
			ident = fmt.Sprintf("%s_%d", sanitizeIdent(name), n)
		}
		taken[ident] = true

		g := grid.FromRows(rows)
		loaded[name] = &loadedTable{
			tableName: ident,
			cells:     g.Snapshot(),
			cols:      g.Cols(),
		}
	}

	// Rewrite @name -> "quoted_table", longest names first so one reference
	// is never rewritten as a prefix of another.
	names := make([]string, 0, len(loaded))
	for name := range loaded {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	rewritten := code
	for _, name := range names {
		rewritten = strings.ReplaceAll(rewritten, "@"+name, `"`+loaded[name].tableName+`"`)
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	defer func() { _ = db.Close() }()

	for name, table := range loaded {
		if err := loadIntoSQLite(db, table.tableName, table.cols, table.cells); err != nil {
			return nil, fmt.Errorf("failed to load @%s: %w", name, err)
		}
	}

	sqlRows, err := db.Query(rewritten)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = sqlRows.Close() }()

	return scanResults(sqlRows)
}

func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, c := range s {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func loadIntoSQLite(db *sql.DB, tableName string, cols int, cells [][]string) error {
	colDefs := make([]string, cols)
	for i := range colDefs {
		colDefs[i] = fmt.Sprintf("c%d TEXT", i+1)
	}
	if _, err := db.Exec(fmt.Sprintf(`CREATE TABLE "%s" (%s)`, tableName, strings.Join(colDefs, ", "))); err != nil {
		return fmt.Errorf("create table %s: %w", tableName, err)
	}

	if len(cells) == 0 {
		return nil
	}

	placeholders := make([]string, cols)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(`INSERT INTO "%s" VALUES (%s)`, tableName, strings.Join(placeholders, ","))

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, row := range cells {
		vals := make([]any, cols)
		for i := range vals {
			vals[i] = row[i]
		}
		if _, err := stmt.Exec(vals...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("insert into %s: %w", tableName, err)
		}
	}
	_ = stmt.Close()
	return tx.Commit()
}

func scanResults(sqlRows *sql.Rows) (*Result, error) {
	colNames, err := sqlRows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{Columns: colNames}
	for sqlRows.Next() {
		ptrs := make([]any, len(colNames))
		for i := range ptrs {
			ptrs[i] = new(any)
		}
		if err := sqlRows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make([]string, len(colNames))
		for i := range colNames {
			row[i] = stringify(*(ptrs[i].(*any)))
		}
		result.Rows = append(result.Rows, row)
	}

	return result, sqlRows.Err()
}

func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(value)
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}
