// Package datastore mirrors store tables into a local SQLite database or a
// remote Datasette instance so they can be browsed outside the editor.
package datastore

// Store is a mirror target. Rows arrive in the table's column order, one
// value per column.
type Store interface {
	Connect() error
	CreateTable(schema string) error
	InsertRows(table string, columns []string, rows [][]any) error
	Close() error
}
