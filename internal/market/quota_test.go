package market

import (
	"context"
	"errors"
	"testing"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

func TestCheckQuota(t *testing.T) {
	policy := domain.MarketPolicy{
		Key:        "default",
		LimitTiers: domain.Tiers{Default: dec(3)},
	}
	ctx := context.Background()

	tests := []struct {
		name  string
		count int
		want  bool
	}{
		{name: "empty", count: 0, want: true},
		{name: "one below limit", count: 2, want: true},
		{name: "at limit", count: 3, want: false},
		{name: "above limit", count: 4, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := CheckQuota(ctx, newActor("p1"), policy, fakeCounter{count: tt.count})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Allowed != tt.want {
				t.Fatalf("Allowed = %v, want %v (count=%d limit=%d)", d.Allowed, tt.want, d.Count, d.Limit)
			}
			if d.Limit != 3 {
				t.Fatalf("Limit = %d, want 3", d.Limit)
			}
		})
	}

	t.Run("storage error is returned", func(t *testing.T) {
		_, err := CheckQuota(ctx, newActor("p1"), policy, fakeCounter{err: errBoom})
		if !errors.Is(err, errBoom) {
			t.Fatalf("err = %v, want errBoom", err)
		}
	})
}
