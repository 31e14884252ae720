package ledger

// Layout names the fixed positions of the ledger sheet. Rows and columns are
// 1-based, as the spreadsheet shows them.
type Layout struct {
	HeaderRow    int
	FirstDataRow int
	ProductIDCol int
	KeywordCol   int
	// KindCol holds the row-type discriminator. Zero disables the check and
	// every data row is treated as a rank row.
	KindCol      int
	DateStartCol int

	RankMarker     string
	TrailerMarkers []string
}

// DefaultLayout matches the 데이터 sheet of the traffic workbook: header on row 5,
// data from row 7, product id in F, keyword in J, row type in K, dates from BV.
func DefaultLayout() Layout {
	return Layout{
		HeaderRow:      5,
		FirstDataRow:   7,
		ProductIDCol:   6,
		KeywordCol:     10,
		KindCol:        11,
		DateStartCol:   74,
		RankMarker:     "순위",
		TrailerMarkers: []string{"직전", "비고", "서식", "공란"},
	}
}
