package topads

import "strconv"

// Everything that depends on the site's markup lives in this file and table.go.
const (
	idInputXPath       = `//label[contains(text(), "아이디")]/following-sibling::input`
	passwordInputXPath = `//label[contains(text(), "비밀번호")]/following-sibling::input`
	rememberCheckbox   = `#remember`
	loginButtonXPath   = `//button[contains(text(), "로그인")]`
	logoutButtonXPath  = `//button[contains(text(), "로그아웃")]`

	searchInputXPath  = `//input[contains(@placeholder, '슬롯번호, 아이디, 키워드')]`
	searchButtonXPath = `//button[contains(text(), '검색')]`
	searchButtonJS    = `Array.from(document.querySelectorAll('button')).find(b => b.textContent.includes('검색'))?.click()`

	resultRowsQuery = `tbody tr`
	noResultsText   = "정보가 없습니다"
)

// pageButtonXPath finds the pagination button for page n.
func pageButtonXPath(n int) string {
	label := strconv.Itoa(n)
	return `//button[normalize-space(text())="` + label + `"] | //a[normalize-space(text())="` + label + `"]`
}

// TableColumns are 1-based td positions in the result table.
type TableColumns struct {
	Keyword int
	Product int
	Rank    int
	Start   int
	End     int
}

// DefaultTableColumns matches the slot list on /ads.
func DefaultTableColumns() TableColumns {
	return TableColumns{
		Keyword: 7,
		Product: 8,
		Rank:    9,
		Start:   12,
		End:     13,
	}
}
