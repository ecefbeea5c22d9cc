package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// DefaultCurrency is the currency id single-currency ledgers store under.
const DefaultCurrency = "default"

// LedgerBridge implements domain.EconomyBridge over the economy_accounts
// table. A single-currency ledger ignores the requested currency.
type LedgerBridge struct {
	pool           *pgxpool.Pool
	provider       domain.PayType
	singleCurrency bool
}

// NewVaultBridge returns the single-currency "vault" ledger.
func NewVaultBridge(pool *pgxpool.Pool) *LedgerBridge {
	return &LedgerBridge{pool: pool, provider: domain.PayTypeVault, singleCurrency: true}
}

// NewNyEconomyBridge returns the multi-currency "nyeconomy" ledger.
func NewNyEconomyBridge(pool *pgxpool.Pool) *LedgerBridge {
	return &LedgerBridge{pool: pool, provider: domain.PayTypeNyEconomy}
}

// Name returns the provider id.
func (b *LedgerBridge) Name() string { return string(b.provider) }

func (b *LedgerBridge) currency(c string) string {
	if b.singleCurrency || c == "" {
		return DefaultCurrency
	}
	return c
}

// Balance returns the player's balance; a missing account reads as zero.
func (b *LedgerBridge) Balance(ctx context.Context, playerID, currency string) (decimal.Decimal, error) {
	const query = `
		SELECT balance::text FROM economy_accounts
		WHERE provider = $1 AND player_id = $2 AND currency = $3`

	var raw string
	err := b.pool.QueryRow(ctx, query, string(b.provider), playerID, b.currency(currency)).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("postgres: %s balance for %s: %w", b.provider, playerID, err)
	}

	bal, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("postgres: parse %s balance %q: %w", b.provider, raw, err)
	}
	return bal, nil
}

// Debit subtracts amount in one conditional UPDATE. It reports false when
// the account is missing or holds less than amount.
func (b *LedgerBridge) Debit(ctx context.Context, playerID, currency string, amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, fmt.Errorf("postgres: %s debit %s: %w", b.provider, amount, domain.ErrInvalidAmount)
	}

	const query = `
		UPDATE economy_accounts
		SET balance = balance - $4::numeric, updated_at = NOW()
		WHERE provider = $1 AND player_id = $2 AND currency = $3
		  AND balance >= $4::numeric`

	tag, err := b.pool.Exec(ctx, query, string(b.provider), playerID, b.currency(currency), amount.String())
	if err != nil {
		return false, fmt.Errorf("postgres: %s debit for %s: %w", b.provider, playerID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Deposit credits amount, creating the account when needed.
func (b *LedgerBridge) Deposit(ctx context.Context, playerID, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("postgres: %s deposit %s: %w", b.provider, amount, domain.ErrInvalidAmount)
	}

	const query = `
		INSERT INTO economy_accounts (provider, player_id, currency, balance)
		VALUES ($1, $2, $3, $4::numeric)
		ON CONFLICT (provider, player_id, currency)
		DO UPDATE SET balance = economy_accounts.balance + EXCLUDED.balance, updated_at = NOW()`

	if _, err := b.pool.Exec(ctx, query, string(b.provider), playerID, b.currency(currency), amount.String()); err != nil {
		return fmt.Errorf("postgres: %s deposit for %s: %w", b.provider, playerID, err)
	}
	return nil
}
