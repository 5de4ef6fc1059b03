// Package grid implements the in-memory cell grid backing a table.
package grid

// Grid is a rectangular store of text cells. Every row always has the same
// length; rows loaded from disk are padded with empty strings to the widest
// observed row.
type Grid struct {
	cells [][]string
	cols  int
}

// New creates an all-empty grid with the given dimensions.
// Nonpositive dimensions yield an empty 0x0 grid.
func New(rows, cols int) *Grid {
	if rows <= 0 || cols <= 0 {
		return &Grid{}
	}
	cells := make([][]string, rows)
	for i := range cells {
		cells[i] = make([]string, cols)
	}
	return &Grid{cells: cells, cols: cols}
}

// FromRows builds a grid from raw rows, padding short rows with empty
// strings to the maximum observed row length.
func FromRows(rows [][]string) *Grid {
	if len(rows) == 0 {
		return &Grid{}
	}

	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, cols)
		copy(cells[i], row)
	}
	return &Grid{cells: cells, cols: cols}
}

// Rows returns the number of rows.
func (g *Grid) Rows() int {
	return len(g.cells)
}

// Cols returns the number of columns.
func (g *Grid) Cols() int {
	return g.cols
}

// Empty reports whether the grid holds no cells at all.
func (g *Grid) Empty() bool {
	return len(g.cells) == 0 || g.cols == 0
}

func (g *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < len(g.cells) && col >= 0 && col < g.cols
}

// Cell returns the value at (row, col). Out-of-range reads return the
// empty string.
func (g *Grid) Cell(row, col int) string {
	if !g.inBounds(row, col) {
		return ""
	}
	return g.cells[row][col]
}

// SetCell stores value at (row, col) and reports whether the stored value
// changed. Out-of-range writes are no-ops.
func (g *Grid) SetCell(row, col int, value string) bool {
	if !g.inBounds(row, col) {
		return false
	}
	if g.cells[row][col] == value {
		return false
	}
	g.cells[row][col] = value
	return true
}

// AddRow inserts an empty row at the given index, shifting subsequent rows
// down. An index that is negative or past the end appends.
func (g *Grid) AddRow(at int) {
	row := make([]string, g.cols)
	if at < 0 || at >= len(g.cells) {
		g.cells = append(g.cells, row)
		return
	}
	g.cells = append(g.cells, nil)
	copy(g.cells[at+1:], g.cells[at:])
	g.cells[at] = row
}

// AddColumn inserts an empty column at the given index, shifting subsequent
// columns right. An index that is negative or past the end appends.
func (g *Grid) AddColumn(at int) {
	if at < 0 || at > g.cols {
		at = g.cols
	}
	for i, row := range g.cells {
		row = append(row, "")
		copy(row[at+1:], row[at:])
		row[at] = ""
		g.cells[i] = row
	}
	g.cols++
}

// DeleteRow removes the row at the given index and reports whether the
// deletion happened. Removing the last remaining row is refused so a
// non-empty grid never collapses to zero rows.
func (g *Grid) DeleteRow(at int) bool {
	if at < 0 || at >= len(g.cells) || len(g.cells) <= 1 {
		return false
	}
	g.cells = append(g.cells[:at], g.cells[at+1:]...)
	return true
}

// DeleteColumn removes the column at the given index and reports whether
// the deletion happened. Removing the last remaining column is refused.
func (g *Grid) DeleteColumn(at int) bool {
	if at < 0 || at >= g.cols || g.cols <= 1 {
		return false
	}
	for i, row := range g.cells {
		g.cells[i] = append(row[:at], row[at+1:]...)
	}
	g.cols--
	return true
}

// Snapshot returns a deep copy of the cells, suitable for serialization.
func (g *Grid) Snapshot() [][]string {
	out := make([][]string, len(g.cells))
	for i, row := range g.cells {
		out[i] = make([]string, len(row))
		copy(out[i], row)
	}
	return out
}
