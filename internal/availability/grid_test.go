package availability

import "testing"

func TestGrid_ToggleAndClear(t *testing.T) {
	t.Parallel()

	var g Grid
	if !g.IsEmpty() {
		t.Fatal("zero grid should be empty")
	}
	if !g.Toggle(Cell{Slot: 2, Day: 4}) {
		t.Fatal("toggle in range should succeed")
	}
	if !g.At(Cell{Slot: 2, Day: 4}) {
		t.Fatal("expected toggled cell to be busy")
	}
	g.Toggle(Cell{Slot: 2, Day: 4})
	if g.At(Cell{Slot: 2, Day: 4}) {
		t.Fatal("expected second toggle to free the cell")
	}

	g.Set(Cell{Slot: 0, Day: 0}, true)
	g.Set(Cell{Slot: 9, Day: 4}, true)
	if got := g.BusyCount(); got != 2 {
		t.Fatalf("BusyCount = %d, want 2", got)
	}
	g.Clear()
	if !g.IsEmpty() {
		t.Fatal("expected cleared grid to be empty")
	}
}

func TestGrid_OutOfRangeCells(t *testing.T) {
	t.Parallel()

	var g Grid
	for _, c := range []Cell{{Slot: -1}, {Slot: SlotCount}, {Day: -1}, {Day: DayCount}} {
		if g.Toggle(c) || g.Set(c, true) || g.At(c) {
			t.Fatalf("cell %+v should be rejected", c)
		}
	}
}

func TestGridFromRows(t *testing.T) {
	t.Parallel()

	var g Grid
	g[1][3] = true
	g[8][0] = true

	back, ok := GridFromRows(g.Rows())
	if !ok || back != g {
		t.Fatalf("GridFromRows(Rows()) = (%v,%v)", back, ok)
	}

	if _, ok := GridFromRows(make([][]bool, SlotCount-1)); ok {
		t.Fatal("expected short grid to be rejected")
	}
	rows := g.Rows()
	rows[4] = rows[4][:3]
	if _, ok := GridFromRows(rows); ok {
		t.Fatal("expected short row to be rejected")
	}
}

func TestGridReadsOnStoredValues(t *testing.T) {
	t.Parallel()

	var busy Grid
	busy.Set(Cell{Slot: 2, Day: 1}, true)
	byUser := map[string]Grid{"amy": busy, "ben": {}}

	if !byUser["amy"].At(Cell{Slot: 2, Day: 1}) || byUser["amy"].BusyCount() != 1 {
		t.Fatalf("expected one busy cell, got %v", byUser["amy"])
	}
	if byUser["amy"].IsEmpty() || !byUser["ben"].IsEmpty() {
		t.Fatal("IsEmpty disagrees with grid contents")
	}
	if rows := byUser["amy"].Rows(); !rows[2][1] {
		t.Fatalf("Rows lost the busy cell: %v", rows)
	}
}
