package market

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// ErrInsufficientFunds is returned by Withdraw when the balance check or the
// debit itself fails for lack of funds.
var ErrInsufficientFunds = domain.ErrInsufficientFunds

// BridgeResolver selects an economy bridge by provider id.
type BridgeResolver interface {
	Bridge(provider domain.PayType) (domain.EconomyBridge, error)
}

// ComputeTax returns the listing tax the actor owes in the market.
func ComputeTax(actor PermissionHolder, policy domain.MarketPolicy) decimal.Decimal {
	return ResolveTier(policy.TaxTiers, actor)
}

// Withdraw charges amount from the player through the market's provider.
// The balance is queried before any debit; a non-positive amount touches
// neither. It reports whether a debit happened.
func Withdraw(ctx context.Context, bridges BridgeResolver, playerID string, policy domain.MarketPolicy, amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, nil
	}

	bridge, err := bridges.Bridge(policy.PayType)
	if err != nil {
		return false, fmt.Errorf("market: select bridge %q: %w", policy.PayType, err)
	}

	balance, err := bridge.Balance(ctx, playerID, policy.EcoType)
	if err != nil {
		return false, fmt.Errorf("market: %s balance for %s: %w", bridge.Name(), playerID, err)
	}
	if balance.LessThan(amount) {
		return false, ErrInsufficientFunds
	}

	ok, err := bridge.Debit(ctx, playerID, policy.EcoType, amount)
	if err != nil {
		return false, fmt.Errorf("market: %s debit for %s: %w", bridge.Name(), playerID, err)
	}
	if !ok {
		return false, ErrInsufficientFunds
	}
	return true, nil
}
