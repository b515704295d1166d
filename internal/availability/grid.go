package availability

// Grid records, per slot (row) and weekday (column), whether a user has a class.
// The zero value is an empty grid.
type Grid [SlotCount][DayCount]bool

// Cell addresses one grid entry.
type Cell struct {
	Slot int `json:"slot"`
	Day  int `json:"day"`
}

// Valid reports whether the cell lies inside the grid.
func (c Cell) Valid() bool {
	return c.Slot >= 0 && c.Slot < SlotCount && c.Day >= 0 && c.Day < DayCount
}

// At returns the value of a cell. Out of range cells read as free.
func (g Grid) At(c Cell) bool {
	if !c.Valid() {
		return false
	}
	return g[c.Slot][c.Day]
}

// Set assigns a cell and reports whether the cell was in range.
func (g *Grid) Set(c Cell, busy bool) bool {
	if !c.Valid() {
		return false
	}
	g[c.Slot][c.Day] = busy
	return true
}

// Toggle flips a cell and reports whether the cell was in range.
func (g *Grid) Toggle(c Cell) bool {
	if !c.Valid() {
		return false
	}
	g[c.Slot][c.Day] = !g[c.Slot][c.Day]
	return true
}

// Clear marks every cell free.
func (g *Grid) Clear() {
	*g = Grid{}
}

// BusyCount returns the number of occupied cells.
func (g Grid) BusyCount() int {
	count := 0
	for _, row := range g {
		for _, busy := range row {
			if busy {
				count++
			}
		}
	}
	return count
}

// IsEmpty reports whether no cell is occupied.
func (g Grid) IsEmpty() bool {
	return g.BusyCount() == 0
}

// Rows returns the grid as nested slices, the shape used on the wire.
func (g Grid) Rows() [][]bool {
	rows := make([][]bool, SlotCount)
	for i := range g {
		row := make([]bool, DayCount)
		copy(row, g[i][:])
		rows[i] = row
	}
	return rows
}

// GridFromRows builds a grid from nested slices. It reports false when the
// shape is not exactly SlotCount rows of DayCount cells.
func GridFromRows(rows [][]bool) (Grid, bool) {
	var g Grid
	if len(rows) != SlotCount {
		return g, false
	}
	for i, row := range rows {
		if len(row) != DayCount {
			return Grid{}, false
		}
		copy(g[i][:], row)
	}
	return g, true
}
