package sheets

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"top_rank_ledger/internal/config"
	"top_rank_ledger/internal/ledger"
	"top_rank_ledger/internal/retry"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/sheets/v4"
)

// Book is a Google Sheets tab loaded into memory. Edits stay local until Save,
// which replays column inserts and then writes every changed cell.
type Book struct {
	*ledger.Grid
	client        *Client
	spreadsheetID string
	sheetName     string
	sheetID       int64
}

var _ ledger.Book = (*Book)(nil)

// Open reads the whole tab.
func Open(ctx context.Context, client *Client, spreadsheetID, sheetName string) (*Book, error) {
	sheetID, err := retry.WithRetry(ctx, config.DefaultResilienceConfig.SheetWrite, func(ctx context.Context) (int64, error) {
		return client.SheetID(ctx, spreadsheetID, sheetName)
	})
	if err != nil {
		return nil, err
	}

	raw, err := retry.WithRetry(ctx, config.DefaultResilienceConfig.SheetWrite, func(ctx context.Context) ([][]interface{}, error) {
		return client.ReadSheet(ctx, spreadsheetID, quoteSheet(sheetName))
	})
	if err != nil {
		return nil, err
	}

	b := &Book{
		Grid:          ledger.NewGrid(toStrings(raw)),
		client:        client,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		sheetID:       sheetID,
	}
	log.Debug().
		Str("spreadsheet_id", spreadsheetID).
		Str("sheet", sheetName).
		Int("rows", b.MaxRow()).
		Int("cols", b.MaxColumn()).
		Msg("Loaded sheet")
	return b, nil
}

// Save pushes pending column inserts, then changed values.
func (b *Book) Save(ctx context.Context) error {
	inserts := insertRequests(b.sheetID, b.Inserted())
	data, err := valueRanges(b.sheetName, b.Grid)
	if err != nil {
		return err
	}

	if err := retry.Do(ctx, config.DefaultResilienceConfig.SheetWrite, func(ctx context.Context) error {
		return b.client.BatchUpdate(ctx, b.spreadsheetID, inserts)
	}); err != nil {
		return err
	}
	// Inserts are applied; only values remain to be retried from here on.
	b.ResetInserted()

	if err := retry.Do(ctx, config.DefaultResilienceConfig.SheetWrite, func(ctx context.Context) error {
		return b.client.UpdateRanges(ctx, b.spreadsheetID, data)
	}); err != nil {
		return err
	}
	b.ResetChanges()

	log.Info().
		Int("inserted_columns", len(inserts)).
		Int("ranges", len(data)).
		Msg("Saved sheet")
	return nil
}

func (b *Book) Close() error { return nil }

func insertRequests(sheetID int64, cols []int) []*sheets.Request {
	var reqs []*sheets.Request
	for _, col := range cols {
		reqs = append(reqs, &sheets.Request{
			InsertDimension: &sheets.InsertDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: int64(col - 1),
					EndIndex:   int64(col),
				},
				InheritFromBefore: col > 1,
			},
		})
	}
	return reqs
}

// valueRanges groups changed cells into horizontal runs, one ValueRange each.
func valueRanges(sheetName string, grid *ledger.Grid) ([]*sheets.ValueRange, error) {
	var data []*sheets.ValueRange
	dirty := grid.Dirty()
	for i := 0; i < len(dirty); {
		j := i + 1
		for j < len(dirty) && dirty[j].Row == dirty[i].Row && dirty[j].Col == dirty[j-1].Col+1 {
			j++
		}

		from, err := excelize.CoordinatesToCellName(dirty[i].Col, dirty[i].Row)
		if err != nil {
			return nil, err
		}
		rng := quoteSheet(sheetName) + "!" + from
		if j-i > 1 {
			to, err := excelize.CoordinatesToCellName(dirty[j-1].Col, dirty[j-1].Row)
			if err != nil {
				return nil, err
			}
			rng += ":" + to
		}

		row := make([]interface{}, 0, j-i)
		for _, c := range dirty[i:j] {
			row = append(row, rawValue(grid.Value(c.Row, c.Col)))
		}
		data = append(data, &sheets.ValueRange{Range: rng, Values: [][]interface{}{row}})
		i = j
	}
	return data, nil
}

var integerPattern = regexp.MustCompile(`^[1-9][0-9]{0,8}$`)

// rawValue sends plain ranks as numbers; everything else, headers included,
// stays text.
func rawValue(v string) interface{} {
	if integerPattern.MatchString(v) {
		n, _ := strconv.Atoi(v)
		return n
	}
	return v
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toStrings(raw [][]interface{}) [][]string {
	out := make([][]string, len(raw))
	for i, row := range raw {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = cellString(v)
		}
	}
	return out
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
