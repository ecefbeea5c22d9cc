package market

import (
	"fmt"
	"strings"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// Policies is the read-only set of configured markets, kept in configuration
// order.
type Policies struct {
	order     []domain.MarketPolicy
	byKey     map[string]int
	byCommand map[string]int
}

// NewPolicies indexes list by key and short command. Keys must be unique.
func NewPolicies(list []domain.MarketPolicy) (*Policies, error) {
	p := &Policies{
		order:     make([]domain.MarketPolicy, 0, len(list)),
		byKey:     make(map[string]int, len(list)),
		byCommand: make(map[string]int, len(list)),
	}
	for _, m := range list {
		if m.Key == "" {
			return nil, fmt.Errorf("market: %w: empty key", domain.ErrInvalidPolicy)
		}
		if _, dup := p.byKey[m.Key]; dup {
			return nil, fmt.Errorf("market: %w: duplicate key %q", domain.ErrInvalidPolicy, m.Key)
		}
		p.byKey[m.Key] = len(p.order)
		if cmd := strings.ToLower(m.ShortCommand); cmd != "" {
			p.byCommand[cmd] = len(p.order)
		}
		p.order = append(p.order, m)
	}
	return p, nil
}

// Lookup returns the market with the given key.
func (p *Policies) Lookup(key string) (domain.MarketPolicy, bool) {
	i, ok := p.byKey[key]
	if !ok {
		return domain.MarketPolicy{}, false
	}
	return p.order[i], true
}

// ByCommand returns the market invoked by the given short command.
func (p *Policies) ByCommand(cmd string) (domain.MarketPolicy, bool) {
	i, ok := p.byCommand[strings.ToLower(cmd)]
	if !ok {
		return domain.MarketPolicy{}, false
	}
	return p.order[i], true
}

// All returns every market in configuration order.
func (p *Policies) All() []domain.MarketPolicy {
	out := make([]domain.MarketPolicy, len(p.order))
	copy(out, p.order)
	return out
}
