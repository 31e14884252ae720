package processing

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"top_rank_ledger/internal/ledger"
	"top_rank_ledger/internal/match"

	"github.com/rs/zerolog/log"
)

// Site is what a run needs from the ads website. Markup details stay behind it.
type Site interface {
	EnsureLoggedIn(ctx context.Context) error
	Search(ctx context.Context, term string) error
	Results(ctx context.Context) ([]match.ScrapedRow, error)
}

// SearchBy selects the unit of work searched on the site.
type SearchBy string

const (
	SearchByKeyword SearchBy = "keyword"
	SearchByProduct SearchBy = "product"
)

// ParseSearchBy accepts "keyword" or "product"; blank means keyword.
func ParseSearchBy(s string) (SearchBy, bool) {
	switch SearchBy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SearchByKeyword:
		return SearchByKeyword, true
	case SearchByProduct:
		return SearchByProduct, true
	}
	return "", false
}

type Options struct {
	Layout        ledger.Layout
	Epoch         time.Time
	Today         time.Time
	SearchBy      SearchBy
	Order         match.Order
	SkipUnchanged bool
}

// Summary describes what a run did.
type Summary struct {
	Inserted     []string
	Targets      []string
	Units        int
	Observations int
	Unmatched    int
	Saved        bool
	ledger.WriteResult
}

// SaveTimeout bounds the final save, which runs even after ctx is cancelled.
const SaveTimeout = 5 * time.Minute

// ErrLogin marks a run aborted because the site session could not be established.
var ErrLogin = errors.New("login failed")

// Run synchronizes the date columns, works out which dates still lack ranks,
// searches the site for each unit of work, and writes what it finds. The book is
// saved once at the end, including after a unit fails partway; it is not saved
// when there is nothing to do or when login fails.
func Run(ctx context.Context, book ledger.Book, site Site, opts Options) (Summary, error) {
	var summary Summary
	layout := opts.Layout

	inserted, err := ledger.SyncDateColumns(book, layout, opts.Epoch, opts.Today)
	summary.Inserted = inserted
	if err != nil {
		return summary, fmt.Errorf("failed to sync date columns: %w", err)
	}

	region := ledger.ScanDateColumns(book, layout, opts.Epoch)
	columns := region.ColumnMap()
	summary.Targets = ledger.MissingDates(book, layout, region)
	log.Info().
		Int("date_columns", len(region.Columns)).
		Int("inserted", len(inserted)).
		Strs("targets", summary.Targets).
		Msg("Computed target dates")

	if len(summary.Targets) == 0 {
		log.Info().Msg("Every date already has ranks; nothing to do")
		return summary, nil
	}

	if err := site.EnsureLoggedIn(ctx); err != nil {
		return summary, fmt.Errorf("%w: %w", ErrLogin, err)
	}

	index := ledger.BuildRowIndex(book, layout)
	matcher := match.Matcher{Order: opts.Order}
	writeOpts := ledger.WriteOptions{SkipUnchanged: opts.SkipUnchanged}

	for _, u := range units(index, opts.SearchBy) {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("Run interrupted; saving what was written")
			break
		}
		if err := processUnit(ctx, book, site, index, matcher, columns, summary.Targets, u, opts.SearchBy, writeOpts, &summary); err != nil {
			log.Error().Err(err).Str("unit", u.term).Msg("Unit aborted the search loop; saving what was written")
			break
		}
	}

	// An interrupted run still saves, so the save must outlive ctx.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SaveTimeout)
	defer cancel()
	if err := book.Save(saveCtx); err != nil {
		return summary, fmt.Errorf("failed to save ledger: %w", err)
	}
	summary.Saved = true

	log.Info().
		Int("units", summary.Units).
		Int("observations", summary.Observations).
		Int("written", summary.Written).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("unmatched", summary.Unmatched).
		Msg("Run complete")
	return summary, nil
}

type unit struct {
	term string
	rows []int
}

func units(index *ledger.RowIndex, by SearchBy) []unit {
	var out []unit
	if by == SearchByProduct {
		for _, id := range index.ProductIDs() {
			out = append(out, unit{term: id, rows: index.RowsForProduct(id)})
		}
		return out
	}
	for _, kw := range index.Keywords() {
		// "end" rows mark the bottom of a block in the sheet, not a real keyword.
		if strings.Contains(strings.ToLower(kw), "end") {
			continue
		}
		out = append(out, unit{term: kw, rows: index.RowsForKeyword(kw)})
	}
	return out
}

// processUnit handles one search. Expected failures (search box missing, table
// timeout) skip the unit and return nil; a panic is returned as an error so the
// caller stops searching and saves.
func processUnit(ctx context.Context, book ledger.Book, site Site, index *ledger.RowIndex, matcher match.Matcher,
	columns map[string]int, targets []string, u unit, by SearchBy, writeOpts ledger.WriteOptions, summary *Summary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("unit", u.term).Str("stack", string(debug.Stack())).Msgf("panic: %v", r)
			err = fmt.Errorf("panic while processing %q: %v", u.term, r)
		}
	}()

	dates := ledger.Gaps(book, u.rows, columns, targets)
	if len(dates) == 0 {
		log.Debug().Str("unit", u.term).Msg("No empty cells for unit; skipping")
		return nil
	}

	summary.Units++
	if err := site.Search(ctx, u.term); err != nil {
		log.Warn().Err(err).Str("unit", u.term).Msg("Search failed; skipping unit")
		return nil
	}
	rows, err := site.Results(ctx)
	if err != nil {
		log.Warn().Err(err).Str("unit", u.term).Msg("Failed to read results; skipping unit")
		return nil
	}
	for i := range rows {
		// The keyword column is sometimes blank; a keyword search implies it.
		if by != SearchByProduct && strings.TrimSpace(rows[i].Keyword) == "" {
			rows[i].Keyword = u.term
		}
	}

	result := matcher.Match(dates, rows)
	summary.Observations += result.Count()

	perRow := make(map[int]map[string]string)
	for _, date := range result.Dates() {
		for _, obs := range result[date] {
			row, ok := index.Lookup(obs.ProductID, obs.Keyword)
			if !ok {
				summary.Unmatched++
				log.Debug().
					Str("date", date).
					Str("keyword", obs.Keyword).
					Str("product_id", obs.ProductID).
					Msg("No ledger row for observation")
				continue
			}
			if perRow[row] == nil {
				perRow[row] = make(map[string]string)
			}
			perRow[row][date] = obs.Rank
		}
	}

	for row, ranks := range perRow {
		res, err := ledger.WriteRanks(book, row, columns, ranks, writeOpts)
		summary.WriteResult.Add(res)
		if err != nil {
			log.Error().Err(err).Int("row", row).Msg("Some cells could not be written")
		}
		log.Info().
			Str("unit", u.term).
			Int("row", row).
			Int("written", res.Written).
			Int("skipped", res.Skipped).
			Msg("Updated row")
	}
	return nil
}
