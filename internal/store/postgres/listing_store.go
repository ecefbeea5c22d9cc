package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// ListingStore implements domain.ListingStore using PostgreSQL.
type ListingStore struct {
	pool *pgxpool.Pool
}

// NewListingStore creates a new ListingStore backed by the given connection pool.
func NewListingStore(pool *pgxpool.Pool) *ListingStore {
	return &ListingStore{pool: pool}
}

// CountActive returns how many listings the seller holds in the market.
func (s *ListingStore) CountActive(ctx context.Context, sellerID, marketKey string) (int, error) {
	const query = `SELECT COUNT(*) FROM listings WHERE seller_id = $1 AND market_key = $2`

	var n int
	if err := s.pool.QueryRow(ctx, query, sellerID, marketKey).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count listings for %s in %s: %w", sellerID, marketKey, err)
	}
	return n, nil
}

// Add inserts a committed listing under marketKey.
func (s *ListingStore) Add(ctx context.Context, marketKey string, l domain.Listing) error {
	lore, err := json.Marshal(nonNilLore(l.Item.Lore))
	if err != nil {
		return fmt.Errorf("postgres: marshal lore for listing %s: %w", l.ID, err)
	}

	const query = `
		INSERT INTO listings (
			id, market_key, seller_id, seller_name,
			item_type, item_name, item_lore, item_amount, item_payload,
			pay_type, eco_type, price, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = s.pool.Exec(ctx, query,
		l.ID, marketKey, l.SellerID, l.SellerName,
		l.Item.Type, l.Item.DisplayName, lore, l.Item.Amount, l.Item.Payload,
		string(l.PayType), l.EcoType, l.Price, l.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("postgres: add listing %s: %w", l.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: add listing %s: %w", l.ID, err)
	}
	return nil
}

const listingSelectCols = `id, market_key, seller_id, seller_name,
	item_type, item_name, item_lore, item_amount, item_payload,
	pay_type, eco_type, price, created_at`

// GetByID retrieves a single listing.
func (s *ListingStore) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	query := `SELECT ` + listingSelectCols + ` FROM listings WHERE id = $1`

	l, err := scanListing(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Listing{}, domain.ErrNotFound
		}
		return domain.Listing{}, fmt.Errorf("postgres: get listing %s: %w", id, err)
	}
	return l, nil
}

// ListBefore returns listings created before the cutoff, oldest first.
func (s *ListingStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Listing, error) {
	query := `SELECT ` + listingSelectCols + ` FROM listings WHERE created_at < $1 ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list listings before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan listing: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list listings rows: %w", err)
	}
	return out, nil
}

func scanListing(scanner interface{ Scan(dest ...any) error }) (domain.Listing, error) {
	var l domain.Listing
	var payType string
	var lore []byte

	err := scanner.Scan(
		&l.ID, &l.MarketKey, &l.SellerID, &l.SellerName,
		&l.Item.Type, &l.Item.DisplayName, &lore, &l.Item.Amount, &l.Item.Payload,
		&payType, &l.EcoType, &l.Price, &l.CreatedAt,
	)
	if err != nil {
		return domain.Listing{}, err
	}
	if len(lore) > 0 {
		if err := json.Unmarshal(lore, &l.Item.Lore); err != nil {
			return domain.Listing{}, fmt.Errorf("unmarshal lore: %w", err)
		}
	}
	l.PayType = domain.PayType(payType)
	return l, nil
}

func nonNilLore(lore []string) []string {
	if lore == nil {
		return []string{}
	}
	return lore
}
