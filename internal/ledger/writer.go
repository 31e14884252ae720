package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// WriteOptions tunes WriteRanks.
type WriteOptions struct {
	// SkipUnchanged leaves cells alone when they already hold the new value.
	SkipUnchanged bool
}

// WriteResult counts what happened to each requested cell.
type WriteResult struct {
	Written int
	Skipped int
	Failed  int
}

func (r *WriteResult) Add(other WriteResult) {
	r.Written += other.Written
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

type pendingCell struct {
	col   int
	value string
	date  string
}

// WriteRanks writes ranks (date -> value) into row using columns (date -> column).
// Contiguous columns go out as one range write; isolated columns as single cells.
// A failed range write falls back to cell-by-cell; cells that still fail are
// counted and reported in the returned error. Nothing is rolled back.
func WriteRanks(sheet Sheet, row int, columns map[string]int, ranks map[string]string, opts WriteOptions) (WriteResult, error) {
	var result WriteResult
	var cells []pendingCell

	for date, value := range ranks {
		if value == "" {
			result.Skipped++
			continue
		}
		col, ok := columns[date]
		if !ok {
			log.Debug().Str("date", date).Int("row", row).Msg("No column for date; skipping")
			result.Skipped++
			continue
		}
		if opts.SkipUnchanged && sheet.Value(row, col) == value {
			result.Skipped++
			continue
		}
		cells = append(cells, pendingCell{col: col, value: value, date: date})
	}

	sort.Slice(cells, func(i, j int) bool { return cells[i].col < cells[j].col })

	var errs []error
	for _, run := range contiguousRuns(cells) {
		if len(run) == 1 {
			if err := sheet.SetValue(row, run[0].col, run[0].value); err != nil {
				result.Failed++
				errs = append(errs, fmt.Errorf("row %d col %d: %w", row, run[0].col, err))
				continue
			}
			result.Written++
			continue
		}

		values := make([]string, len(run))
		for i, c := range run {
			values[i] = c.value
		}
		err := sheet.SetRowValues(row, run[0].col, values)
		if err == nil {
			result.Written += len(run)
			continue
		}

		log.Warn().
			Err(err).
			Int("row", row).
			Int("from_col", run[0].col).
			Int("to_col", run[len(run)-1].col).
			Msg("Range write failed; falling back to single cells")
		for _, c := range run {
			if err := sheet.SetValue(row, c.col, c.value); err != nil {
				result.Failed++
				errs = append(errs, fmt.Errorf("row %d col %d: %w", row, c.col, err))
				continue
			}
			result.Written++
		}
	}

	return result, errors.Join(errs...)
}

func contiguousRuns(cells []pendingCell) [][]pendingCell {
	var runs [][]pendingCell
	start := 0
	for i := 1; i <= len(cells); i++ {
		if i == len(cells) || cells[i].col != cells[i-1].col+1 {
			runs = append(runs, cells[start:i])
			start = i
		}
	}
	return runs
}
