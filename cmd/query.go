package cmd

import (
	"fmt"
	"strings"

	"github.com/lepinkainen/abacus/internal/query"
)

// QueryCmd runs SQL over store tables
type QueryCmd struct {
	SQL string `arg:"" help:"SQL with @name table references"`
}

func (q *QueryCmd) Run() error {
	store := newStore()

	result, err := query.Execute(store, q.SQL)
	if err != nil {
		return err
	}

	fmt.Println(strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		fmt.Println(strings.Join(row, "\t"))
	}
	return nil
}
