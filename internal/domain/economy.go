package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// EconomyBridge is a pluggable currency backend. Debit must be atomic from the
// bridge's point of view: it either takes the full amount or nothing.
type EconomyBridge interface {
	Name() string
	Balance(ctx context.Context, playerID, currency string) (decimal.Decimal, error)
	// Debit withdraws amount and reports false when the balance could not
	// cover it at the moment of the call.
	Debit(ctx context.Context, playerID, currency string, amount decimal.Decimal) (bool, error)
}
