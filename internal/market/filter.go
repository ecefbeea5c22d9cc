// Package market holds the pure policy logic of the listing pipeline: lore
// filters, price bounds, permission tiers, quota and tax.
package market

import (
	"strings"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

const (
	colorMarker = "§"
	escapeMark  = "&"
)

// normalize rewrites the in-game color marker to its markup escape form.
func normalize(line string) string {
	return strings.ReplaceAll(line, colorMarker, escapeMark)
}

// MatchesFilter reports whether any lore line of offer equals key after
// normalization.
func MatchesFilter(offer domain.ItemOffer, key string) bool {
	for _, line := range offer.Lore {
		if normalize(line) == key {
			return true
		}
	}
	return false
}

// MatchesInvocation is the anti-recursion guard: it reports whether the
// market's invocation token contains any normalized lore line. A blank lore
// line is contained in every token and therefore matches.
func MatchesInvocation(offer domain.ItemOffer, token string) bool {
	for _, line := range offer.Lore {
		if strings.Contains(token, normalize(line)) {
			return true
		}
	}
	return false
}
