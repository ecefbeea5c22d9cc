package market

import (
	"context"
	"fmt"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// ListingCounter is the storage query the quota check relies on.
type ListingCounter interface {
	CountActive(ctx context.Context, sellerID, marketKey string) (int, error)
}

// QuotaDecision is the outcome of a quota check.
type QuotaDecision struct {
	Allowed bool
	Count   int
	Limit   int
}

// CheckQuota compares the seller's active listing count in the market with
// their permission-tiered maximum. It is advisory: nothing reserves the slot
// between this check and the commit.
func CheckQuota(ctx context.Context, actor domain.Actor, policy domain.MarketPolicy, counter ListingCounter) (QuotaDecision, error) {
	limit := int(ResolveTier(policy.LimitTiers, actor).IntPart())

	count, err := counter.CountActive(ctx, actor.ID(), policy.Key)
	if err != nil {
		return QuotaDecision{}, fmt.Errorf("market: count listings for %s in %s: %w", actor.ID(), policy.Key, err)
	}
	return QuotaDecision{Allowed: count < limit, Count: count, Limit: limit}, nil
}
