package ledger

import (
	"fmt"
	"sort"
)

// Cell addresses one 1-based cell.
type Cell struct {
	Row int
	Col int
}

// Grid is an in-memory Sheet. It remembers which cells were written and which
// columns were inserted so a remote backend can replay them.
type Grid struct {
	rows     [][]string
	maxCol   int
	dirty    map[Cell]bool
	inserted []int
}

// NewGrid copies values (row 1 first) into a grid.
func NewGrid(values [][]string) *Grid {
	g := &Grid{dirty: make(map[Cell]bool)}
	for _, row := range values {
		cp := append([]string(nil), row...)
		g.rows = append(g.rows, cp)
		g.maxCol = max(g.maxCol, len(cp))
	}
	return g
}

func (g *Grid) Value(row, col int) string {
	if row < 1 || row > len(g.rows) {
		return ""
	}
	r := g.rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}

func (g *Grid) SetValue(row, col int, value string) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell (%d, %d)", row, col)
	}
	for len(g.rows) < row {
		g.rows = append(g.rows, nil)
	}
	r := g.rows[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = value
	g.rows[row-1] = r
	g.maxCol = max(g.maxCol, col)
	g.dirty[Cell{Row: row, Col: col}] = true
	return nil
}

func (g *Grid) SetRowValues(row, col int, values []string) error {
	for i, v := range values {
		if err := g.SetValue(row, col+i, v); err != nil {
			return err
		}
	}
	return nil
}

func (g *Grid) InsertColumn(col int) error {
	if col < 1 {
		return fmt.Errorf("invalid column %d", col)
	}
	for i, r := range g.rows {
		if len(r) < col {
			continue
		}
		r = append(r, "")
		copy(r[col:], r[col-1:])
		r[col-1] = ""
		g.rows[i] = r
	}
	if col <= g.maxCol {
		g.maxCol++
	}

	shifted := make(map[Cell]bool, len(g.dirty))
	for c := range g.dirty {
		if c.Col >= col {
			c.Col++
		}
		shifted[c] = true
	}
	g.dirty = shifted
	g.inserted = append(g.inserted, col)
	return nil
}

func (g *Grid) MaxRow() int    { return len(g.rows) }
func (g *Grid) MaxColumn() int { return g.maxCol }

// Inserted returns inserted column positions in the order they were applied.
func (g *Grid) Inserted() []int {
	return append([]int(nil), g.inserted...)
}

// Dirty returns written cells in row, then column order, using post-insert positions.
func (g *Grid) Dirty() []Cell {
	cells := make([]Cell, 0, len(g.dirty))
	for c := range g.dirty {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
	return cells
}

// ResetInserted forgets pending insertions once they were applied remotely.
func (g *Grid) ResetInserted() {
	g.inserted = nil
}

// ResetChanges forgets pending writes and insertions after they were persisted.
func (g *Grid) ResetChanges() {
	g.dirty = make(map[Cell]bool)
	g.inserted = nil
}
