package ledger

import (
	"strings"
)

var blankRankValues = map[string]bool{
	"":     true,
	"0":    true,
	"0.0":  true,
	"-":    true,
	"None": true,
}

// IsBlankRank reports whether a cell counts as "no rank recorded".
func IsBlankRank(value string) bool {
	return blankRankValues[strings.TrimSpace(value)]
}

// IsRankRow reports whether row is a rank row according to the discriminator column.
// A missing discriminator makes the row a non-rank row.
func IsRankRow(sheet Sheet, layout Layout, row int) bool {
	if layout.KindCol <= 0 {
		return true
	}
	kind := strings.TrimSpace(sheet.Value(row, layout.KindCol))
	return kind != "" && strings.Contains(kind, layout.RankMarker)
}

// RankRows lists the data rows flagged as rank rows.
func RankRows(sheet Sheet, layout Layout) []int {
	var rows []int
	for row := layout.FirstDataRow; row <= sheet.MaxRow(); row++ {
		if IsRankRow(sheet, layout, row) {
			rows = append(rows, row)
		}
	}
	return rows
}

// MissingDates returns, in column order, the ISO dates whose column holds no
// recorded rank in any rank row.
func MissingDates(sheet Sheet, layout Layout, region DateRegion) []string {
	rows := RankRows(sheet, layout)
	var missing []string
	for _, c := range region.Columns {
		if columnIsBlank(sheet, rows, c.Col) {
			missing = append(missing, c.ISO())
		}
	}
	return missing
}

func columnIsBlank(sheet Sheet, rows []int, col int) bool {
	for _, row := range rows {
		if !IsBlankRank(sheet.Value(row, col)) {
			return false
		}
	}
	return true
}

// Gaps narrows targets to the dates where at least one of rows has no rank yet.
// Dates without a column are dropped.
func Gaps(sheet Sheet, rows []int, columns map[string]int, targets []string) []string {
	var gaps []string
	for _, date := range targets {
		col, ok := columns[date]
		if !ok {
			continue
		}
		for _, row := range rows {
			if IsBlankRank(sheet.Value(row, col)) {
				gaps = append(gaps, date)
				break
			}
		}
	}
	return gaps
}
