package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// Bus channel and stream that carry committed listings.
const (
	ListingsChannel = "listings"
	ListingsStream  = "listings"
)

// AuditObserver writes a listing_created entry for every committed listing.
type AuditObserver struct {
	audit domain.AuditStore
}

// NewAuditObserver creates an AuditObserver.
func NewAuditObserver(audit domain.AuditStore) *AuditObserver {
	return &AuditObserver{audit: audit}
}

func (o *AuditObserver) Name() string { return "audit" }

func (o *AuditObserver) OnListingCreated(ctx context.Context, evt *domain.ListingCreated) error {
	l := evt.Listing
	return o.audit.Log(ctx, "listing_created", map[string]any{
		"listing_id": l.ID,
		"market":     l.MarketKey,
		"seller_id":  l.SellerID,
		"item_type":  l.Item.Type,
		"amount":     l.Item.Amount,
		"price":      l.Price,
		"pay_type":   string(l.PayType),
	})
}

// ListingMessage is the JSON payload published on the listings channel.
type ListingMessage struct {
	Event   string         `json:"event"`
	Market  string         `json:"market"`
	Listing domain.Listing `json:"listing"`
}

// BusObserver publishes committed listings on the signal bus and appends
// them to the durable listings stream.
type BusObserver struct {
	bus domain.SignalBus
}

// NewBusObserver creates a BusObserver.
func NewBusObserver(bus domain.SignalBus) *BusObserver {
	return &BusObserver{bus: bus}
}

func (o *BusObserver) Name() string { return "bus" }

func (o *BusObserver) OnListingCreated(ctx context.Context, evt *domain.ListingCreated) error {
	payload, err := marshalListing(evt)
	if err != nil {
		return fmt.Errorf("bus observer: %w", err)
	}
	if err := o.bus.Publish(ctx, ListingsChannel, payload); err != nil {
		return fmt.Errorf("bus observer: publish %s: %w", evt.Listing.ID, err)
	}
	if err := o.bus.StreamAppend(ctx, ListingsStream, payload); err != nil {
		return fmt.Errorf("bus observer: stream %s: %w", evt.Listing.ID, err)
	}
	return nil
}

// ListingFeed receives committed listings for local delivery.
type ListingFeed interface {
	PublishListing(ctx context.Context, payload []byte) error
}

// FeedObserver hands committed listings straight to a local feed. It stands
// in for the bus on single-instance deployments.
type FeedObserver struct {
	feed ListingFeed
}

// NewFeedObserver creates a FeedObserver.
func NewFeedObserver(feed ListingFeed) *FeedObserver {
	return &FeedObserver{feed: feed}
}

func (o *FeedObserver) Name() string { return "feed" }

func (o *FeedObserver) OnListingCreated(ctx context.Context, evt *domain.ListingCreated) error {
	payload, err := marshalListing(evt)
	if err != nil {
		return fmt.Errorf("feed observer: %w", err)
	}
	if err := o.feed.PublishListing(ctx, payload); err != nil {
		return fmt.Errorf("feed observer: publish %s: %w", evt.Listing.ID, err)
	}
	return nil
}

func marshalListing(evt *domain.ListingCreated) ([]byte, error) {
	payload, err := json.Marshal(ListingMessage{
		Event:   "listing_created",
		Market:  evt.Policy.Key,
		Listing: evt.Listing,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal listing %s: %w", evt.Listing.ID, err)
	}
	return payload, nil
}

var (
	_ domain.ListingObserver = (*AuditObserver)(nil)
	_ domain.ListingObserver = (*BusObserver)(nil)
	_ domain.ListingObserver = (*FeedObserver)(nil)
)
