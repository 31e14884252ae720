package ledger

import "testing"

func TestGridInsertColumnShiftsValuesAndDirtyCells(t *testing.T) {
	g := NewGrid([][]string{
		{"a", "b", "c"},
		{"1"},
	})
	if err := g.SetValue(1, 3, "C"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := g.InsertColumn(2); err != nil {
		t.Fatalf("InsertColumn: %v", err)
	}

	if got := []string{g.Value(1, 1), g.Value(1, 2), g.Value(1, 3), g.Value(1, 4)}; !equalStrings(got, []string{"a", "", "b", "C"}) {
		t.Errorf("Expected [a  b C], got %q", got)
	}
	if g.Value(2, 1) != "1" || g.Value(2, 2) != "" {
		t.Errorf("Expected short row untouched, got %q %q", g.Value(2, 1), g.Value(2, 2))
	}
	if g.MaxColumn() != 4 {
		t.Errorf("Expected 4 columns, got %d", g.MaxColumn())
	}

	dirty := g.Dirty()
	if len(dirty) != 1 || dirty[0] != (Cell{Row: 1, Col: 4}) {
		t.Errorf("Expected dirty cell to follow the insert to (1,4), got %v", dirty)
	}
	if ins := g.Inserted(); len(ins) != 1 || ins[0] != 2 {
		t.Errorf("Expected inserted [2], got %v", ins)
	}

	g.ResetChanges()
	if len(g.Dirty()) != 0 || len(g.Inserted()) != 0 {
		t.Error("Expected no pending changes after reset")
	}
}

func TestGridSetValueGrows(t *testing.T) {
	g := NewGrid(nil)
	if err := g.SetRowValues(3, 2, []string{"x", "y"}); err != nil {
		t.Fatalf("SetRowValues: %v", err)
	}
	if g.MaxRow() != 3 || g.MaxColumn() != 3 {
		t.Errorf("Expected 3x3, got %dx%d", g.MaxRow(), g.MaxColumn())
	}
	if g.Value(3, 3) != "y" {
		t.Errorf("Expected y, got %q", g.Value(3, 3))
	}
	if err := g.SetValue(0, 1, "bad"); err == nil {
		t.Error("Expected error for row 0")
	}
}
