package ledger

import "testing"

func coverageSheet() *Grid {
	return NewGrid([][]string{
		{"id", "keyword", "kind", "1/1", "1/2", "1/3", "1/4", "1/5", "비고"},
		{"9001", "shampoo", "순위", "3", "", "0", "-", "", ""},
		{"9001", "shampoo", "노출수", "120", "88", "91", "77", "", ""},
		{"9002", "shampoo", "", "", "5", "", "", "", ""},
		{"9003", "soap", "순위(모바일)", "", "", "0.0", "None", "", ""},
	})
}

func TestMissingDatesOnlyLooksAtRankRows(t *testing.T) {
	layout := testLayout()
	g := coverageSheet()
	region := ScanDateColumns(g, layout, mustDate(t, "2026-01-01"))

	got := MissingDates(g, layout, region)
	// 1/1 has a rank; 1/2 only has values in a non-rank row and in a row without
	// a discriminator; 1/3..1/5 hold placeholders or nothing.
	want := []string{"2026-01-02", "2026-01-03", "2026-01-04", "2026-01-05"}
	if !equalStrings(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestMissingDatesWithoutDiscriminator(t *testing.T) {
	layout := testLayout()
	layout.KindCol = 0
	g := coverageSheet()
	region := ScanDateColumns(g, layout, mustDate(t, "2026-01-01"))

	got := MissingDates(g, layout, region)
	if !equalStrings(got, []string{"2026-01-05"}) {
		t.Errorf("Expected only 2026-01-05, got %v", got)
	}
}

func TestIsBlankRank(t *testing.T) {
	for _, v := range []string{"", " ", "0", "0.0", "-", "None"} {
		if !IsBlankRank(v) {
			t.Errorf("Expected %q to be blank", v)
		}
	}
	for _, v := range []string{"1", "X", "12", "0.5"} {
		if IsBlankRank(v) {
			t.Errorf("Expected %q not to be blank", v)
		}
	}
}

func TestGaps(t *testing.T) {
	g := coverageSheet()
	columns := map[string]int{"2026-01-01": 4, "2026-01-02": 5, "2026-01-03": 6}

	got := Gaps(g, []int{2}, columns, []string{"2026-01-01", "2026-01-02", "2026-01-03", "2026-02-01"})
	if !equalStrings(got, []string{"2026-01-02", "2026-01-03"}) {
		t.Errorf("Expected [2026-01-02 2026-01-03], got %v", got)
	}
	if got := Gaps(g, nil, columns, []string{"2026-01-02"}); len(got) != 0 {
		t.Errorf("Expected no gaps without rows, got %v", got)
	}
}
