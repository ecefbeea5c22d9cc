package market

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// ParseRange parses a "min-max" price range string.
func ParseRange(s string) (min, max int64, err error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: range %q is not min-max", domain.ErrInvalidPolicy, s)
	}
	min, err = strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: range %q min: %v", domain.ErrInvalidPolicy, s, err)
	}
	max, err = strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: range %q max: %v", domain.ErrInvalidPolicy, s, err)
	}
	if min > max {
		return 0, 0, fmt.Errorf("%w: range %q has min above max", domain.ErrInvalidPolicy, s)
	}
	return min, max, nil
}

// ResolvePrice returns the price bound that applies to offer. Overrides are
// scanned in configuration order and the first matching filter wins; with
// no match the market's global range applies.
func ResolvePrice(offer domain.ItemOffer, policy domain.MarketPolicy) (domain.PriceBound, error) {
	for _, o := range policy.Overrides {
		if !MatchesFilter(offer, o.Filter) {
			continue
		}
		min, max, err := ParseRange(o.Range)
		if err != nil {
			return domain.PriceBound{}, fmt.Errorf("market %s override %q: %w", policy.Key, o.Filter, err)
		}
		return domain.PriceBound{Min: min, Max: max, Override: true, Filter: o.Filter}, nil
	}
	if policy.MinPrice > policy.MaxPrice {
		return domain.PriceBound{}, fmt.Errorf("market %s: %w: min %d above max %d",
			policy.Key, domain.ErrInvalidPolicy, policy.MinPrice, policy.MaxPrice)
	}
	return domain.PriceBound{Min: policy.MinPrice, Max: policy.MaxPrice}, nil
}
