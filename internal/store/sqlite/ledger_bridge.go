package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// DefaultCurrency is the currency id single-currency ledgers store under.
const DefaultCurrency = "default"

// LedgerBridge implements domain.EconomyBridge over economy_accounts.
// Balances are stored as decimal text, so the debit compares in Go inside a
// transaction instead of in SQL.
type LedgerBridge struct {
	db             *gorm.DB
	provider       domain.PayType
	singleCurrency bool
}

// NewVaultBridge returns the single-currency "vault" ledger.
func NewVaultBridge(db *gorm.DB) *LedgerBridge {
	return &LedgerBridge{db: db, provider: domain.PayTypeVault, singleCurrency: true}
}

// NewNyEconomyBridge returns the multi-currency "nyeconomy" ledger.
func NewNyEconomyBridge(db *gorm.DB) *LedgerBridge {
	return &LedgerBridge{db: db, provider: domain.PayTypeNyEconomy}
}

// Name returns the provider id.
func (b *LedgerBridge) Name() string { return string(b.provider) }

func (b *LedgerBridge) currency(c string) string {
	if b.singleCurrency || c == "" {
		return DefaultCurrency
	}
	return c
}

func (b *LedgerBridge) account(tx *gorm.DB, playerID, currency string) (accountRow, error) {
	var row accountRow
	err := tx.First(&row, "provider = ? AND player_id = ? AND currency = ?",
		string(b.provider), playerID, b.currency(currency)).Error
	return row, err
}

// Balance returns the player's balance; a missing account reads as zero.
func (b *LedgerBridge) Balance(ctx context.Context, playerID, currency string) (decimal.Decimal, error) {
	row, err := b.account(b.db.WithContext(ctx), playerID, currency)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("sqlite: %s balance for %s: %w", b.provider, playerID, err)
	}
	return row.Balance, nil
}

// Debit subtracts amount when the account covers it and reports false
// otherwise.
func (b *LedgerBridge) Debit(ctx context.Context, playerID, currency string, amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, fmt.Errorf("sqlite: %s debit %s: %w", b.provider, amount, domain.ErrInvalidAmount)
	}

	debited := false
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := b.account(tx, playerID, currency)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if row.Balance.LessThan(amount) {
			return nil
		}

		res := tx.Model(&accountRow{}).
			Where("provider = ? AND player_id = ? AND currency = ? AND balance = ?",
				row.Provider, row.PlayerID, row.Currency, row.Balance).
			Update("balance", row.Balance.Sub(amount))
		if res.Error != nil {
			return res.Error
		}
		debited = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("sqlite: %s debit for %s: %w", b.provider, playerID, err)
	}
	return debited, nil
}

// Deposit credits amount, creating the account when needed.
func (b *LedgerBridge) Deposit(ctx context.Context, playerID, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("sqlite: %s deposit %s: %w", b.provider, amount, domain.ErrInvalidAmount)
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := b.account(tx, playerID, currency)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = accountRow{
				Provider: string(b.provider),
				PlayerID: playerID,
				Currency: b.currency(currency),
				Balance:  decimal.Zero,
			}
		case err != nil:
			return err
		}
		row.Balance = row.Balance.Add(amount)
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("sqlite: %s deposit for %s: %w", b.provider, playerID, err)
	}
	return nil
}
