package match

import (
	"sort"
	"strings"
	"time"

	"top_rank_ledger/internal/ledger"

	"github.com/rs/zerolog/log"
)

// ScrapedRow is one result-table row as read from the site.
type ScrapedRow struct {
	Start     string
	End       string
	Keyword   string
	ProductID string
	RankText  string
}

// Observation is a rank for one tracked entity on one date.
type Observation struct {
	Keyword   string
	ProductID string
	Rank      string
}

// Result maps ISO target dates to the observations valid on that date.
type Result map[string][]Observation

// Dates returns the dates that received at least one observation, sorted.
func (r Result) Dates() []string {
	var dates []string
	for d, obs := range r {
		if len(obs) > 0 {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	return dates
}

// Count returns the total number of observations.
func (r Result) Count() int {
	n := 0
	for _, obs := range r {
		n += len(obs)
	}
	return n
}

// Order states what the matcher may assume about row order.
type Order int

const (
	// OrderUnknown scans every row.
	OrderUnknown Order = iota
	// OrderEndDescending assumes rows arrive newest first by end date and stops
	// at the first row that ended before the earliest target. The assumption is
	// checked while scanning; once a row ends later than its predecessor the
	// scan continues to the last row.
	OrderEndDescending
)

// ParseOrder maps a config value to an Order.
func ParseOrder(s string) (Order, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exhaustive", "unknown":
		return OrderUnknown, true
	case "descending", "end-descending":
		return OrderEndDescending, true
	}
	return OrderUnknown, false
}

type Matcher struct {
	Order Order
}

type target struct {
	iso  string
	date time.Time
}

type dedupKey struct {
	keyword   string
	productID string
}

// Match assigns each row to every target date inside its inclusive validity
// range. Repeated (keyword, product id) pairs on the same date keep the first
// occurrence. Rows whose dates cannot be read are skipped.
func (m Matcher) Match(targetDates []string, rows []ScrapedRow) Result {
	result := make(Result)
	targets := parseTargets(targetDates)
	if len(targets) == 0 {
		return result
	}
	for _, t := range targets {
		result[t.iso] = nil
	}
	earliest, latest := targets[0].date, targets[len(targets)-1].date

	seen := make(map[string]map[dedupKey]bool, len(targets))
	shortCircuit := m.Order == OrderEndDescending
	var prevEnd time.Time

	for i, row := range rows {
		start, errStart := ledger.ParseISO(row.Start)
		end, errEnd := ledger.ParseISO(row.End)
		if errStart != nil || errEnd != nil || end.Before(start) {
			log.Debug().
				Int("row", i).
				Str("start", row.Start).
				Str("end", row.End).
				Msg("Skipping result row with unreadable validity range")
			continue
		}

		if shortCircuit {
			if !prevEnd.IsZero() && end.After(prevEnd) {
				log.Warn().
					Int("row", i).
					Str("end", row.End).
					Str("previous_end", prevEnd.Format(ledger.ISOLayout)).
					Msg("Result rows are not in descending end-date order; scanning all rows")
				shortCircuit = false
			} else if end.Before(earliest) {
				log.Debug().Int("row", i).Str("end", row.End).Msg("Rows ended before the earliest target; stopping")
				break
			}
			prevEnd = end
		}

		if end.Before(earliest) || start.After(latest) {
			continue
		}

		obs := Observation{
			Keyword:   strings.TrimSpace(row.Keyword),
			ProductID: strings.TrimSpace(row.ProductID),
			Rank:      ParseRank(row.RankText),
		}
		key := dedupKey{keyword: obs.Keyword, productID: ledger.NormalizeProductID(obs.ProductID)}

		for _, t := range targets {
			if t.date.Before(start) || t.date.After(end) {
				continue
			}
			if seen[t.iso] == nil {
				seen[t.iso] = make(map[dedupKey]bool)
			}
			if seen[t.iso][key] {
				continue
			}
			seen[t.iso][key] = true
			result[t.iso] = append(result[t.iso], obs)
			log.Debug().
				Str("date", t.iso).
				Str("keyword", obs.Keyword).
				Str("product_id", obs.ProductID).
				Str("rank", obs.Rank).
				Msg("Matched result row")
		}
	}
	return result
}

func parseTargets(dates []string) []target {
	var targets []target
	seen := make(map[string]bool)
	for _, d := range dates {
		t, err := ledger.ParseISO(d)
		if err != nil {
			log.Warn().Str("date", d).Msg("Ignoring malformed target date")
			continue
		}
		iso := t.Format(ledger.ISOLayout)
		if seen[iso] {
			continue
		}
		seen[iso] = true
		targets = append(targets, target{iso: iso, date: t})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].date.Before(targets[j].date) })
	return targets
}
