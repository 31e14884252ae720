package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ISOLayout is the canonical date key used across the run.
const ISOLayout = "2006-01-02"

// Day truncates t to its calendar date in UTC so date arithmetic ignores clocks and zones.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseISO parses a YYYY-MM-DD date.
func ParseISO(s string) (time.Time, error) {
	return time.Parse(ISOLayout, strings.TrimSpace(s))
}

// MonthDay renders the "M/D" label stamped into new header cells.
func MonthDay(t time.Time) string {
	return strconv.Itoa(int(t.Month())) + "/" + strconv.Itoa(t.Day())
}

var fullDateLayouts = []string{
	ISOLayout,
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006.01.02",
	"2006-1-2",
	"2006/1/2",
}

// ParseHeaderDate resolves a header cell into a date. Full dates and spreadsheet
// serials carry their own year; "M/D" takes the year of prev (or of epoch when
// prev is zero) and rolls into the next year when it would go backwards.
func ParseHeaderDate(raw string, prev, epoch time.Time) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fullDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		// Serials below 1 or beyond year 9999 are not dates.
		if serial < 1 || serial > 2958465 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return Day(t), true
	}

	month, day, ok := splitMonthDay(s)
	if !ok {
		return time.Time{}, false
	}
	year := epoch.Year()
	if !prev.IsZero() {
		year = prev.Year()
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(month) {
		// 2/30 and friends normalise into the next month.
		return time.Time{}, false
	}
	if !prev.IsZero() && t.Before(prev) {
		t = t.AddDate(1, 0, 0)
	}
	return t, true
}

func splitMonthDay(s string) (int, int, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "일")
	var parts []string
	switch {
	case strings.Contains(s, "/"):
		parts = strings.Split(s, "/")
	case strings.Contains(s, "월"):
		parts = strings.Split(s, "월")
	case strings.Contains(s, "-"):
		parts = strings.Split(s, "-")
	default:
		return 0, 0, false
	}
	if len(parts) != 2 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || day < 1 || day > 31 {
		return 0, 0, false
	}
	return month, day, true
}

// IsTrailer reports whether a header cell belongs to the fixed columns after the dates.
func IsTrailer(raw string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(raw, m) {
			return true
		}
	}
	return false
}
