package handler

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// PolicySource exposes the configured market policies.
type PolicySource interface {
	All() []domain.MarketPolicy
	Lookup(key string) (domain.MarketPolicy, bool)
}

// MarketHandler serves read-only market policy endpoints.
type MarketHandler struct {
	markets PolicySource
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(markets PolicySource, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{markets: markets, logger: logger}
}

type overrideView struct {
	Filter string `json:"filter"`
	Range  string `json:"range"`
}

type tierView struct {
	Permission string `json:"permission"`
	Value      string `json:"value"`
}

type marketView struct {
	Key           string         `json:"key"`
	Command       string         `json:"command"`
	Name          string         `json:"name"`
	Permission    string         `json:"permission,omitempty"`
	MinPrice      int64          `json:"min_price"`
	MaxPrice      int64          `json:"max_price"`
	DeniedTypes   []string       `json:"denied_types"`
	Overrides     []overrideView `json:"overrides"`
	Limit         string         `json:"limit"`
	LimitTiers    []tierView     `json:"limit_tiers"`
	Tax           string         `json:"tax"`
	TaxTiers      []tierView     `json:"tax_tiers"`
	PayType       string         `json:"pay_type"`
	EcoType       string         `json:"eco_type,omitempty"`
	EconomyName   string         `json:"economy_name"`
	SaleBroadcast bool           `json:"sale_broadcast"`
}

func newMarketView(p domain.MarketPolicy) marketView {
	denied := make([]string, 0, len(p.DeniedTypes))
	for t, on := range p.DeniedTypes {
		if on {
			denied = append(denied, t)
		}
	}
	sort.Strings(denied)

	overrides := make([]overrideView, len(p.Overrides))
	for i, o := range p.Overrides {
		overrides[i] = overrideView{Filter: o.Filter, Range: o.Range}
	}

	return marketView{
		Key:           p.Key,
		Command:       p.ShortCommand,
		Name:          p.DisplayName,
		Permission:    p.Permission,
		MinPrice:      p.MinPrice,
		MaxPrice:      p.MaxPrice,
		DeniedTypes:   denied,
		Overrides:     overrides,
		Limit:         p.LimitTiers.Default.String(),
		LimitTiers:    tierViews(p.LimitTiers),
		Tax:           p.TaxTiers.Default.String(),
		TaxTiers:      tierViews(p.TaxTiers),
		PayType:       string(p.PayType),
		EcoType:       p.EcoType,
		EconomyName:   p.EconomyName,
		SaleBroadcast: p.SaleBroadcast,
	}
}

func tierViews(t domain.Tiers) []tierView {
	out := make([]tierView, len(t.Entries))
	for i, e := range t.Entries {
		out[i] = tierView{Permission: e.Permission, Value: e.Value.String()}
	}
	return out
}

// ListMarkets returns every configured market policy.
// GET /api/markets
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	policies := h.markets.All()
	views := make([]marketView, len(policies))
	for i, p := range policies {
		views[i] = newMarketView(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"markets": views})
}

// GetMarket returns one market policy by key.
// GET /api/markets/{market}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("market")
	p, ok := h.markets.Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}
	writeJSON(w, http.StatusOK, newMarketView(p))
}
