package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MSCMDD/ServerMarket/internal/domain"
	"github.com/MSCMDD/ServerMarket/internal/market"
)

// enabledProviders returns the economy providers switched on in [economy].
func (c *Config) enabledProviders() map[domain.PayType]bool {
	return map[domain.PayType]bool{
		domain.PayTypeVault:        c.Economy.Vault,
		domain.PayTypeNyEconomy:    c.Economy.NyEconomy,
		domain.PayTypePlayerPoints: c.Economy.PlayerPoints,
	}
}

func (c *Config) validateMarkets() []string {
	var errs []string
	if len(c.Markets) == 0 {
		errs = append(errs, "markets: at least one [[markets]] table is required")
	}

	providers := c.enabledProviders()
	keys := make(map[string]bool, len(c.Markets))
	commands := make(map[string]string, len(c.Markets))

	for i, m := range c.Markets {
		label := fmt.Sprintf("markets[%d]", i)
		if m.Key != "" {
			label = fmt.Sprintf("markets.%s", m.Key)
		}

		if m.Key == "" {
			errs = append(errs, label+": key must not be empty")
		} else if keys[m.Key] {
			errs = append(errs, label+": duplicate key")
		}
		keys[m.Key] = true

		if cmd := strings.ToLower(m.ShortCommand); cmd != "" {
			if other, dup := commands[cmd]; dup {
				errs = append(errs, fmt.Sprintf("%s: short_command %q already used by %s", label, m.ShortCommand, other))
			}
			commands[cmd] = m.Key
		}

		if m.MinPrice > m.MaxPrice {
			errs = append(errs, fmt.Sprintf("%s: min_price %d is above max_price %d", label, m.MinPrice, m.MaxPrice))
		}
		for _, o := range m.Overrides {
			if o.Filter == "" {
				errs = append(errs, label+": override filter must not be empty")
			}
			if _, _, err := market.ParseRange(o.Range); err != nil {
				errs = append(errs, fmt.Sprintf("%s: override %q: %v", label, o.Filter, err))
			}
		}

		if m.Limit.IsNegative() {
			errs = append(errs, label+": limit must be >= 0")
		}
		if m.Tax.IsNegative() {
			errs = append(errs, label+": tax must be >= 0")
		}
		for _, t := range append(append([]TierConfig{}, m.LimitTiers...), m.TaxTiers...) {
			if t.Permission == "" {
				errs = append(errs, label+": tier permission must not be empty")
			}
			if t.Value.IsNegative() {
				errs = append(errs, fmt.Sprintf("%s: tier %q value must be >= 0", label, t.Permission))
			}
		}

		pt := domain.PayType(m.PayType).Normalize()
		if enabled, known := providers[pt]; !known {
			errs = append(errs, fmt.Sprintf("%s: unknown pay_type %q (valid: vault, nyeconomy, playerpoints)", label, m.PayType))
		} else if !enabled {
			errs = append(errs, fmt.Sprintf("%s: pay_type %q is not enabled in [economy]", label, m.PayType))
		}
	}
	return errs
}

// Policies converts the [[markets]] tables into domain policies, in
// configuration order. Call Validate first.
func (c *Config) Policies() []domain.MarketPolicy {
	out := make([]domain.MarketPolicy, 0, len(c.Markets))
	for _, m := range c.Markets {
		out = append(out, m.Policy())
	}
	return out
}

// Policy converts one market table.
func (m MarketConfig) Policy() domain.MarketPolicy {
	denied := make(map[string]bool, len(m.DenyTypes))
	for _, t := range m.DenyTypes {
		denied[strings.ToUpper(strings.TrimSpace(t))] = true
	}

	overrides := make([]domain.PriceOverride, 0, len(m.Overrides))
	for _, o := range m.Overrides {
		overrides = append(overrides, domain.PriceOverride{Filter: o.Filter, Range: o.Range})
	}

	name := m.Name
	if name == "" {
		name = m.Key
	}
	ecoName := m.EconomyName
	if ecoName == "" {
		ecoName = m.EcoType
	}

	return domain.MarketPolicy{
		Key:           m.Key,
		ShortCommand:  m.ShortCommand,
		DisplayName:   name,
		Permission:    m.Permission,
		MinPrice:      m.MinPrice,
		MaxPrice:      m.MaxPrice,
		DeniedTypes:   denied,
		Overrides:     overrides,
		LimitTiers:    tiers(m.Limit, m.LimitTiers),
		TaxTiers:      tiers(m.Tax, m.TaxTiers),
		PayType:       domain.PayType(m.PayType).Normalize(),
		EcoType:       m.EcoType,
		EconomyName:   ecoName,
		SaleBroadcast: m.SaleBroadcast,
	}
}

func tiers(def decimal.Decimal, entries []TierConfig) domain.Tiers {
	out := domain.Tiers{Default: def, Entries: make([]domain.Tier, 0, len(entries))}
	for _, t := range entries {
		out.Entries = append(out.Entries, domain.Tier{Permission: t.Permission, Value: t.Value})
	}
	return out
}
