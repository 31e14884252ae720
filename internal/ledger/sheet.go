package ledger

import "context"

// Sheet is the cell-level view of the ledger that the reconciliation logic needs.
// Reads never fail: a cell that cannot be read is blank.
type Sheet interface {
	Value(row, col int) string
	SetValue(row, col int, value string) error
	// SetRowValues writes values into row starting at col, one per column.
	SetRowValues(row, col int, values []string) error
	// InsertColumn shifts col and everything right of it one column right.
	InsertColumn(col int) error
	MaxRow() int
	MaxColumn() int
}

// Book is an opened ledger that is saved once at the end of a run.
type Book interface {
	Sheet
	Save(ctx context.Context) error
	Close() error
}
