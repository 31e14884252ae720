package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DateColumn is one resolved header column of the date region.
type DateColumn struct {
	Col  int
	Date time.Time
}

// ISO returns the column's date key.
func (c DateColumn) ISO() string {
	return c.Date.Format(ISOLayout)
}

// DateRegion is the run of date columns starting at Layout.DateStartCol.
// Boundary is the first column that is not a date.
type DateRegion struct {
	Columns  []DateColumn
	Boundary int
}

// ColumnMap returns ISO date -> column. The leftmost column wins if a date repeats.
func (r DateRegion) ColumnMap() map[string]int {
	m := make(map[string]int, len(r.Columns))
	for _, c := range r.Columns {
		if _, ok := m[c.ISO()]; !ok {
			m[c.ISO()] = c.Col
		}
	}
	return m
}

// ScanDateColumns reads the header row rightwards from the date start column.
// A blank, trailer-labelled, or unreadable header ends the region.
func ScanDateColumns(sheet Sheet, layout Layout, epoch time.Time) DateRegion {
	region := DateRegion{Boundary: layout.DateStartCol}
	var prev time.Time
	maxCol := sheet.MaxColumn()

	for col := layout.DateStartCol; col <= maxCol; col++ {
		raw := strings.TrimSpace(sheet.Value(layout.HeaderRow, col))
		if raw == "" || IsTrailer(raw, layout.TrailerMarkers) {
			region.Boundary = col
			return region
		}
		date, ok := ParseHeaderDate(raw, prev, epoch)
		if !ok {
			log.Debug().Int("col", col).Str("header", raw).Msg("Non-date header ends the date region")
			region.Boundary = col
			return region
		}
		region.Columns = append(region.Columns, DateColumn{Col: col, Date: date})
		prev = date
	}
	region.Boundary = max(maxCol+1, layout.DateStartCol)
	return region
}

// SyncDateColumns makes sure the header has a column for every day from epoch
// through today. Missing days are inserted in date order, so a day later than
// every existing column lands immediately left of the trailer columns. Existing
// columns are never moved relative to each other. It returns the inserted dates.
func SyncDateColumns(sheet Sheet, layout Layout, epoch, today time.Time) ([]string, error) {
	epoch, today = Day(epoch), Day(today)
	region := ScanDateColumns(sheet, layout, epoch)

	present := make(map[string]bool, len(region.Columns))
	for _, c := range region.Columns {
		present[c.ISO()] = true
	}

	var inserted []string
	for d := epoch; !d.After(today); d = d.AddDate(0, 0, 1) {
		iso := d.Format(ISOLayout)
		if present[iso] {
			continue
		}

		pos, at := region.Boundary, len(region.Columns)
		for i, c := range region.Columns {
			if c.Date.After(d) {
				pos, at = c.Col, i
				break
			}
		}

		if err := sheet.InsertColumn(pos); err != nil {
			return inserted, fmt.Errorf("failed to insert column for %s: %w", iso, err)
		}
		if err := sheet.SetValue(layout.HeaderRow, pos, MonthDay(d)); err != nil {
			return inserted, fmt.Errorf("failed to stamp header for %s: %w", iso, err)
		}

		for i := at; i < len(region.Columns); i++ {
			region.Columns[i].Col++
		}
		region.Columns = append(region.Columns, DateColumn{})
		copy(region.Columns[at+1:], region.Columns[at:])
		region.Columns[at] = DateColumn{Col: pos, Date: d}
		region.Boundary++
		present[iso] = true
		inserted = append(inserted, iso)

		log.Info().Int("col", pos).Str("date", iso).Str("header", MonthDay(d)).Msg("Inserted date column")
	}
	return inserted, nil
}
