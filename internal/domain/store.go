package domain

import (
	"context"
	"time"
)

// ListingStore persists committed listings.
type ListingStore interface {
	// CountActive returns how many listings the seller currently has in the market.
	CountActive(ctx context.Context, sellerID, marketKey string) (int, error)
	Add(ctx context.Context, marketKey string, listing Listing) error
	GetByID(ctx context.Context, id string) (Listing, error)
	// ListBefore returns listings created strictly before the cutoff, oldest first.
	ListBefore(ctx context.Context, before time.Time) ([]Listing, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	ListRecent(ctx context.Context, limit int) ([]AuditEntry, error)
}
