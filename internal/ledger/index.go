package ledger

import (
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// NormalizeProductID collapses numeric ids to their integer form so "12345.0"
// read from a numeric cell matches "12345" scraped from a URL. Anything else is
// only trimmed.
func NormalizeProductID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	if math.Abs(f) < 1<<63 {
		return strconv.FormatInt(int64(f), 10)
	}
	// int64 conversion is undefined out here; truncate exactly instead.
	i, _ := big.NewFloat(f).Int(nil)
	return i.String()
}

// TrackedEntity identifies one ledger row.
type TrackedEntity struct {
	ProductID string
	Keyword   string
}

// NewTrackedEntity normalizes both parts of the key.
func NewTrackedEntity(productID, keyword string) TrackedEntity {
	return TrackedEntity{
		ProductID: NormalizeProductID(productID),
		Keyword:   strings.TrimSpace(keyword),
	}
}

// RowIndex maps tracked entities to rank rows. It is a snapshot: rebuild it
// after adding rows.
type RowIndex struct {
	rows map[TrackedEntity]int
}

// BuildRowIndex indexes every rank row that has both a product id and a keyword.
func BuildRowIndex(sheet Sheet, layout Layout) *RowIndex {
	idx := &RowIndex{rows: make(map[TrackedEntity]int)}
	for _, row := range RankRows(sheet, layout) {
		key := NewTrackedEntity(sheet.Value(row, layout.ProductIDCol), sheet.Value(row, layout.KeywordCol))
		if key.ProductID == "" || key.Keyword == "" {
			continue
		}
		if first, ok := idx.rows[key]; ok {
			log.Warn().
				Str("product_id", key.ProductID).
				Str("keyword", key.Keyword).
				Int("row", row).
				Int("first_row", first).
				Msg("Duplicate tracked entity; keeping first row")
			continue
		}
		idx.rows[key] = row
	}
	log.Debug().Int("entries", len(idx.rows)).Msg("Built row index")
	return idx
}

// Lookup finds the row for a product id and keyword.
func (idx *RowIndex) Lookup(productID, keyword string) (int, bool) {
	row, ok := idx.rows[NewTrackedEntity(productID, keyword)]
	return row, ok
}

func (idx *RowIndex) Len() int { return len(idx.rows) }

// Keywords returns the distinct keywords, sorted.
func (idx *RowIndex) Keywords() []string {
	return idx.distinct(func(k TrackedEntity) string { return k.Keyword })
}

// ProductIDs returns the distinct normalized product ids, sorted.
func (idx *RowIndex) ProductIDs() []string {
	return idx.distinct(func(k TrackedEntity) string { return k.ProductID })
}

// RowsForKeyword returns the rows tracking keyword, sorted.
func (idx *RowIndex) RowsForKeyword(keyword string) []int {
	keyword = strings.TrimSpace(keyword)
	return idx.filter(func(k TrackedEntity) bool { return k.Keyword == keyword })
}

// RowsForProduct returns the rows tracking productID, sorted.
func (idx *RowIndex) RowsForProduct(productID string) []int {
	productID = NormalizeProductID(productID)
	return idx.filter(func(k TrackedEntity) bool { return k.ProductID == productID })
}

func (idx *RowIndex) distinct(part func(TrackedEntity) string) []string {
	seen := make(map[string]bool)
	var out []string
	for k := range idx.rows {
		v := part(k)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func (idx *RowIndex) filter(keep func(TrackedEntity) bool) []int {
	var rows []int
	for k, row := range idx.rows {
		if keep(k) {
			rows = append(rows, row)
		}
	}
	sort.Ints(rows)
	return rows
}
