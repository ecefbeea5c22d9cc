package domain

import (
	"context"
	"sync/atomic"
)

// ListingCreated is published once per committed listing.
type ListingCreated struct {
	Actor   Actor
	Policy  MarketPolicy
	Listing Listing

	cancelled atomic.Bool
}

// Cancel suppresses the public broadcast for this listing. The listing and
// the tax debit are already committed and stay so.
func (e *ListingCreated) Cancel() { e.cancelled.Store(true) }

// Cancelled reports whether an observer suppressed the broadcast.
func (e *ListingCreated) Cancelled() bool { return e.cancelled.Load() }

// ListingObserver reacts to committed listings. Errors are logged by the
// publisher and never undo the listing.
type ListingObserver interface {
	Name() string
	OnListingCreated(ctx context.Context, evt *ListingCreated) error
}

// Messenger renders message keys with %placeholder% substitutions.
type Messenger interface {
	Tell(ctx context.Context, actor Actor, key string, vars map[string]string)
	Broadcast(ctx context.Context, key string, vars map[string]string)
}
