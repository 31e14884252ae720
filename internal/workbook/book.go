package workbook

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"top_rank_ledger/internal/ledger"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// Book is a local workbook opened with excelize. Macro-enabled (.xlsm) files keep
// their VBA project when saved back to the same path.
type Book struct {
	file   *excelize.File
	path   string
	sheet  string
	maxRow int
	maxCol int
}

var _ ledger.Book = (*Book)(nil)

// Open opens path and selects sheet.
func Open(path, sheet string) (*Book, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		_ = f.Close()
		return nil, fmt.Errorf("sheet %q not found in %s", sheet, path)
	}

	b := &Book{file: f, path: path, sheet: sheet}
	if err := b.measure(); err != nil {
		_ = f.Close()
		return nil, err
	}

	log.Debug().
		Str("path", path).
		Str("sheet", sheet).
		Int("rows", b.maxRow).
		Int("cols", b.maxCol).
		Msg("Opened workbook")
	return b, nil
}

func (b *Book) measure() error {
	rows, err := b.file.Rows(b.sheet)
	if err != nil {
		return fmt.Errorf("failed to read rows of %s: %w", b.sheet, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return fmt.Errorf("failed to read row %d of %s: %w", n, b.sheet, err)
		}
		if len(cols) > 0 {
			b.maxRow = n
		}
		b.maxCol = max(b.maxCol, len(cols))
	}
	return rows.Error()
}

// Value returns the raw cell value, so native dates come back as serial numbers.
func (b *Book) Value(row, col int) string {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	v, err := b.file.GetCellValue(b.sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		log.Debug().Err(err).Str("cell", cell).Msg("Failed to read cell")
		return ""
	}
	return v
}

func (b *Book) SetValue(row, col int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := b.file.SetCellValue(b.sheet, cell, cellValue(value)); err != nil {
		return fmt.Errorf("failed to set %s: %w", cell, err)
	}
	b.grow(row, col)
	return nil
}

func (b *Book) SetRowValues(row, col int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = cellValue(v)
	}
	if err := b.file.SetSheetRow(b.sheet, cell, &vals); err != nil {
		return fmt.Errorf("failed to set row from %s: %w", cell, err)
	}
	b.grow(row, col+len(values)-1)
	return nil
}

func (b *Book) InsertColumn(col int) error {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}
	if err := b.file.InsertCols(b.sheet, name, 1); err != nil {
		return fmt.Errorf("failed to insert column %s: %w", name, err)
	}
	if col <= b.maxCol {
		b.maxCol++
	}
	return nil
}

func (b *Book) MaxRow() int    { return b.maxRow }
func (b *Book) MaxColumn() int { return b.maxCol }

func (b *Book) Save(ctx context.Context) error {
	if err := b.file.SaveAs(b.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", b.path, err)
	}
	log.Debug().Str("path", b.path).Msg("Saved workbook")
	return nil
}

func (b *Book) Close() error {
	return b.file.Close()
}

func (b *Book) grow(row, col int) {
	b.maxRow = max(b.maxRow, row)
	b.maxCol = max(b.maxCol, col)
}

var integerPattern = regexp.MustCompile(`^[1-9][0-9]{0,8}$`)

// cellValue stores plain ranks as numbers so the sheet's formulas can use them.
func cellValue(v string) interface{} {
	if integerPattern.MatchString(v) {
		n, _ := strconv.Atoi(v)
		return n
	}
	return v
}
