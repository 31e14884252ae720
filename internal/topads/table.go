package topads

import (
	"fmt"
	"strings"

	"top_rank_ledger/internal/match"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// ParseResultTable reads the search result rows out of a page's HTML.
// Rows missing any required cell are skipped; a lone "no data" row yields no rows.
func ParseResultTable(html string, cols TableColumns) ([]match.ScrapedRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page: %w", err)
	}

	trs := doc.Find(resultRowsQuery)
	if trs.Length() == 0 {
		return nil, nil
	}
	if trs.Length() == 1 && strings.Contains(trs.Text(), noResultsText) {
		log.Debug().Msg("Search returned no results")
		return nil, nil
	}

	var rows []match.ScrapedRow
	trs.Each(func(i int, tr *goquery.Selection) {
		row, ok := parseResultRow(tr, cols)
		if !ok {
			log.Debug().Int("row", i).Msg("Skipping result row with missing cells")
			return
		}
		rows = append(rows, row)
	})
	return rows, nil
}

func parseResultRow(tr *goquery.Selection, cols TableColumns) (match.ScrapedRow, bool) {
	tds := tr.ChildrenFiltered("td")
	cell := func(n int) *goquery.Selection {
		if n < 1 || n > tds.Length() {
			return nil
		}
		return tds.Eq(n - 1)
	}

	start, end, rank, product := cell(cols.Start), cell(cols.End), cell(cols.Rank), cell(cols.Product)
	if start == nil || end == nil || rank == nil || product == nil {
		return match.ScrapedRow{}, false
	}
	href, ok := product.Find("a").First().Attr("href")
	if !ok {
		return match.ScrapedRow{}, false
	}

	row := match.ScrapedRow{
		Start:     strings.TrimSpace(start.Text()),
		End:       strings.TrimSpace(end.Text()),
		ProductID: ProductIDFromURL(href),
		RankText:  strings.TrimSpace(rank.Text()),
	}
	if kw := cell(cols.Keyword); kw != nil {
		row.Keyword = strings.TrimSpace(kw.Text())
	}
	return row, true
}

// ProductIDFromURL returns what follows the last "=" of a product link,
// e.g. ".../products/123?vendorItemId=456" gives "456".
func ProductIDFromURL(href string) string {
	href = strings.TrimSpace(href)
	if i := strings.LastIndex(href, "="); i >= 0 {
		return href[i+1:]
	}
	return href
}
