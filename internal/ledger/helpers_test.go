package ledger

import (
	"errors"
	"testing"
	"time"
)

// testLayout is a compact version of the real sheet: header on row 1, data from
// row 2, product id in A, keyword in B, row type in C, dates from D.
func testLayout() Layout {
	return Layout{
		HeaderRow:      1,
		FirstDataRow:   2,
		ProductIDCol:   1,
		KeywordCol:     2,
		KindCol:        3,
		DateStartCol:   4,
		RankMarker:     "순위",
		TrailerMarkers: []string{"직전", "비고", "서식", "공란"},
	}
}

func mustDate(t *testing.T, iso string) time.Time {
	t.Helper()
	d, err := ParseISO(iso)
	if err != nil {
		t.Fatalf("bad test date %q: %v", iso, err)
	}
	return d
}

func headerRow(sheet Sheet, layout Layout) []string {
	var out []string
	for col := layout.DateStartCol; col <= sheet.MaxColumn(); col++ {
		out = append(out, sheet.Value(layout.HeaderRow, col))
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// recordingSheet counts write calls on top of a Grid.
type recordingSheet struct {
	*Grid
	rangeWrites [][2]int // from, to
	cellWrites  []int
	failRange   bool
	failCols    map[int]bool
}

func newRecordingSheet(values [][]string) *recordingSheet {
	return &recordingSheet{Grid: NewGrid(values), failCols: map[int]bool{}}
}

func (s *recordingSheet) SetValue(row, col int, value string) error {
	if s.failCols[col] {
		return errWriteRefused
	}
	s.cellWrites = append(s.cellWrites, col)
	return s.Grid.SetValue(row, col, value)
}

func (s *recordingSheet) SetRowValues(row, col int, values []string) error {
	if s.failRange {
		return errWriteRefused
	}
	s.rangeWrites = append(s.rangeWrites, [2]int{col, col + len(values) - 1})
	return s.Grid.SetRowValues(row, col, values)
}

var errWriteRefused = errors.New("write refused")
