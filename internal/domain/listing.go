package domain

import (
	"bytes"
	"strings"
	"time"
)

// airTypes are the placeholder item types that represent an empty slot.
var airTypes = map[string]bool{
	"AIR":      true,
	"CAVE_AIR": true,
	"VOID_AIR": true,
}

// ItemOffer is the item a player holds and wants to list. Payload is the
// opaque serialized item; the remaining fields are derived metadata.
type ItemOffer struct {
	Payload     []byte   `json:"payload,omitempty"`
	Type        string   `json:"type"`
	DisplayName string   `json:"display_name,omitempty"`
	Lore        []string `json:"lore,omitempty"`
	Amount      int      `json:"amount"`
}

// Empty reports whether the offer represents an empty hand.
func (o ItemOffer) Empty() bool {
	t := strings.ToUpper(strings.TrimSpace(o.Type))
	return t == "" || o.Amount <= 0 || airTypes[t]
}

// SameAs reports whether o and other are the same stack: type, amount and
// payload. An empty offer is never the same as anything.
func (o ItemOffer) SameAs(other ItemOffer) bool {
	if o.Empty() || other.Empty() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(o.Type), strings.TrimSpace(other.Type)) &&
		o.Amount == other.Amount &&
		bytes.Equal(o.Payload, other.Payload)
}

// Name returns the display name, or the type name when none is set.
func (o ItemOffer) Name() string {
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.Type
}

// Listing is a committed sale offer. It is never mutated after creation.
type Listing struct {
	ID         string    `json:"id"`
	MarketKey  string    `json:"market_key"`
	SellerID   string    `json:"seller_id"`
	SellerName string    `json:"seller_name"`
	Item       ItemOffer `json:"item"`
	PayType    PayType   `json:"pay_type"`
	EcoType    string    `json:"eco_type"`
	Price      int64     `json:"price"`
	CreatedAt  time.Time `json:"created_at"`
}
