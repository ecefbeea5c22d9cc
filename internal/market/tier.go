package market

import (
	"github.com/shopspring/decimal"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// PermissionHolder is the part of an actor that tier resolution needs.
type PermissionHolder interface {
	HasPermission(permission string) bool
}

// ResolveTier returns the value of the first tier whose permission the
// holder has, or the default. Entries are expected in descending priority.
func ResolveTier(tiers domain.Tiers, holder PermissionHolder) decimal.Decimal {
	for _, t := range tiers.Entries {
		if t.Permission != "" && holder.HasPermission(t.Permission) {
			return t.Value
		}
	}
	return tiers.Default
}
