package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PayType identifies the economy provider that a market charges through.
type PayType string

const (
	PayTypeVault        PayType = "vault"
	PayTypePlayerPoints PayType = "playerpoints"
	PayTypeNyEconomy    PayType = "nyeconomy"
)

// Normalize lowercases and trims the provider identifier.
func (p PayType) Normalize() PayType {
	return PayType(strings.ToLower(strings.TrimSpace(string(p))))
}

// PriceOverride binds a lore filter key to a "min-max" price range string.
type PriceOverride struct {
	Filter string
	Range  string
}

// Tier is one (permission, value) pair of a permission-tiered setting.
type Tier struct {
	Permission string
	Value      decimal.Decimal
}

// Tiers is a permission-tiered numeric setting. Entries are ordered by
// descending priority; Default applies when the actor holds none of them.
type Tiers struct {
	Default decimal.Decimal
	Entries []Tier
}

// MarketPolicy is the read-only economic policy of one market.
type MarketPolicy struct {
	Key           string
	ShortCommand  string
	DisplayName   string
	Permission    string
	MinPrice      int64
	MaxPrice      int64
	DeniedTypes   map[string]bool
	Overrides     []PriceOverride
	LimitTiers    Tiers
	TaxTiers      Tiers
	PayType       PayType
	EcoType       string
	EconomyName   string
	SaleBroadcast bool
}

// Denies reports whether the item type is on the market's deny list.
func (p MarketPolicy) Denies(itemType string) bool {
	return p.DeniedTypes[strings.ToUpper(strings.TrimSpace(itemType))]
}

// PriceBound is the effective [Min, Max] price range for one offer.
type PriceBound struct {
	Min      int64
	Max      int64
	Override bool
	Filter   string // matched override filter, empty for the global range
}

// Contains reports whether price lies inside the bound, inclusive.
func (b PriceBound) Contains(price int64) bool {
	return price >= b.Min && price <= b.Max
}
