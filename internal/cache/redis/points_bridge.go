package redis

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

//go:embed scripts/debit_points.lua
var debitPointsLua string

// PointsBridge implements domain.EconomyBridge for the "playerpoints"
// provider. Balances are whole points in a hash per currency, keyed by
// player id.
type PointsBridge struct {
	rdb    *redis.Client
	prefix string
	debit  *redis.Script
}

// NewPointsBridge creates a PointsBridge storing balances under
// "<prefix>:<currency>".
func NewPointsBridge(c *Client, prefix string) *PointsBridge {
	if prefix == "" {
		prefix = "points"
	}
	return &PointsBridge{
		rdb:    c.Underlying(),
		prefix: prefix,
		debit:  redis.NewScript(debitPointsLua),
	}
}

// Name returns the provider id.
func (b *PointsBridge) Name() string { return string(domain.PayTypePlayerPoints) }

func (b *PointsBridge) key(currency string) string {
	if currency == "" {
		currency = "default"
	}
	return b.prefix + ":" + currency
}

// Balance returns the player's points; a missing entry reads as zero.
func (b *PointsBridge) Balance(ctx context.Context, playerID, currency string) (decimal.Decimal, error) {
	n, err := b.rdb.HGet(ctx, b.key(currency), playerID).Int64()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("redis: points balance for %s: %w", playerID, err)
	}
	return decimal.NewFromInt(n), nil
}

// Debit takes amount points, rounded up to a whole point, in one script
// call. It reports false when the balance does not cover it.
func (b *PointsBridge) Debit(ctx context.Context, playerID, currency string, amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, fmt.Errorf("redis: points debit %s: %w", amount, domain.ErrInvalidAmount)
	}
	points := amount.Ceil().IntPart()

	res, err := b.debit.Run(ctx, b.rdb, []string{b.key(currency)}, playerID, points).Int64()
	if err != nil {
		return false, fmt.Errorf("redis: points debit for %s: %w", playerID, err)
	}
	return res == 1, nil
}

// Deposit adds amount points, rounded down to a whole point.
func (b *PointsBridge) Deposit(ctx context.Context, playerID, currency string, amount decimal.Decimal) error {
	points := amount.Floor().IntPart()
	if points <= 0 {
		return fmt.Errorf("redis: points deposit %s: %w", amount, domain.ErrInvalidAmount)
	}
	if err := b.rdb.HIncrBy(ctx, b.key(currency), playerID, points).Err(); err != nil {
		return fmt.Errorf("redis: points deposit for %s: %w", playerID, err)
	}
	return nil
}

var _ domain.EconomyBridge = (*PointsBridge)(nil)
