package match

import (
	"regexp"
	"strings"
)

// OutOfRange is recorded when the site reports the product outside the tracked ranks.
const OutOfRange = "X"

const outOfRangeMarker = "순위밖"

var rankPattern = regexp.MustCompile(`(\d+)\s*위`)

// ParseRank turns the site's rank cell ("3위", "순위밖", ...) into the value
// written to the ledger. Unrecognised text yields "".
func ParseRank(text string) string {
	if strings.Contains(text, outOfRangeMarker) {
		return OutOfRange
	}
	if m := rankPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
