// Package economy selects the currency backend a market charges through.
package economy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// Registry maps provider ids to economy bridges. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	bridges map[domain.PayType]domain.EconomyBridge
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{bridges: make(map[domain.PayType]domain.EconomyBridge)}
}

// Register binds provider to bridge, replacing any previous binding.
func (r *Registry) Register(provider domain.PayType, bridge domain.EconomyBridge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bridges[provider.Normalize()] = bridge
}

// Bridge returns the bridge registered for provider.
func (r *Registry) Bridge(provider domain.PayType) (domain.EconomyBridge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bridges[provider.Normalize()]
	if !ok {
		return nil, fmt.Errorf("economy: %w: %q", domain.ErrUnknownProvider, provider)
	}
	return b, nil
}

// Providers returns the registered provider ids, sorted.
func (r *Registry) Providers() []domain.PayType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PayType, 0, len(r.bridges))
	for p := range r.bridges {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
