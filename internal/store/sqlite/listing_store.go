package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// ListingStore implements domain.ListingStore on SQLite.
type ListingStore struct {
	db *gorm.DB
}

// NewListingStore creates a ListingStore on the given handle.
func NewListingStore(db *gorm.DB) *ListingStore {
	return &ListingStore{db: db}
}

// CountActive returns how many listings the seller holds in the market.
func (s *ListingStore) CountActive(ctx context.Context, sellerID, marketKey string) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&listingRow{}).
		Where("seller_id = ? AND market_key = ?", sellerID, marketKey).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("sqlite: count listings for %s in %s: %w", sellerID, marketKey, err)
	}
	return int(n), nil
}

// Add inserts a committed listing under marketKey.
func (s *ListingStore) Add(ctx context.Context, marketKey string, l domain.Listing) error {
	row := listingRow{
		ID:          l.ID,
		MarketKey:   marketKey,
		SellerID:    l.SellerID,
		SellerName:  l.SellerName,
		ItemType:    l.Item.Type,
		ItemName:    l.Item.DisplayName,
		ItemLore:    l.Item.Lore,
		ItemAmount:  l.Item.Amount,
		ItemPayload: l.Item.Payload,
		PayType:     string(l.PayType),
		EcoType:     l.EcoType,
		Price:       l.Price,
		CreatedAt:   l.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("sqlite: add listing %s: %w", l.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("sqlite: add listing %s: %w", l.ID, err)
	}
	return nil
}

// GetByID retrieves a single listing.
func (s *ListingStore) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	var row listingRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Listing{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Listing{}, fmt.Errorf("sqlite: get listing %s: %w", id, err)
	}
	return row.toDomain(), nil
}

// ListBefore returns listings created before the cutoff, oldest first.
func (s *ListingStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Listing, error) {
	var rows []listingRow
	err := s.db.WithContext(ctx).
		Where("created_at < ?", before).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite: list listings before %s: %w", before.Format(time.RFC3339), err)
	}

	out := make([]domain.Listing, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (r listingRow) toDomain() domain.Listing {
	return domain.Listing{
		ID:         r.ID,
		MarketKey:  r.MarketKey,
		SellerID:   r.SellerID,
		SellerName: r.SellerName,
		Item: domain.ItemOffer{
			Payload:     r.ItemPayload,
			Type:        r.ItemType,
			DisplayName: r.ItemName,
			Lore:        r.ItemLore,
			Amount:      r.ItemAmount,
		},
		PayType:   domain.PayType(r.PayType),
		EcoType:   r.EcoType,
		Price:     r.Price,
		CreatedAt: r.CreatedAt.UTC(),
	}
}
