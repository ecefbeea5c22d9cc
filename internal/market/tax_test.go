package market

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

func TestComputeTax(t *testing.T) {
	policy := domain.MarketPolicy{
		TaxTiers: domain.Tiers{
			Default: decimal.RequireFromString("5"),
			Entries: []domain.Tier{{Permission: "market.tax.vip", Value: decimal.RequireFromString("1.5")}},
		},
	}
	if got := ComputeTax(newActor("a"), policy); !got.Equal(dec(5)) {
		t.Errorf("default tax = %s, want 5", got)
	}
	if got := ComputeTax(newActor("b", "market.tax.vip"), policy); !got.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("vip tax = %s, want 1.5", got)
	}
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	policy := domain.MarketPolicy{Key: "default", PayType: domain.PayTypeVault, EcoType: "coins"}

	t.Run("zero tax touches nothing", func(t *testing.T) {
		b := &fakeBridge{balance: dec(0)}
		charged, err := Withdraw(ctx, fakeResolver{bridge: b}, "p", policy, decimal.Zero)
		if err != nil || charged {
			t.Fatalf("charged=%v err=%v, want false nil", charged, err)
		}
		if b.balanceCalls != 0 || b.debitCalls != 0 {
			t.Fatalf("bridge called: balance=%d debit=%d", b.balanceCalls, b.debitCalls)
		}
	})

	t.Run("sufficient balance debits once", func(t *testing.T) {
		b := &fakeBridge{balance: dec(100), debitOK: true}
		charged, err := Withdraw(ctx, fakeResolver{bridge: b}, "p", policy, dec(5))
		if err != nil || !charged {
			t.Fatalf("charged=%v err=%v, want true nil", charged, err)
		}
		if b.balanceCalls != 1 || b.debitCalls != 1 {
			t.Fatalf("balance=%d debit=%d, want 1 1", b.balanceCalls, b.debitCalls)
		}
	})

	t.Run("exact balance is enough", func(t *testing.T) {
		b := &fakeBridge{balance: dec(5), debitOK: true}
		if _, err := Withdraw(ctx, fakeResolver{bridge: b}, "p", policy, dec(5)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("insufficient balance never debits", func(t *testing.T) {
		b := &fakeBridge{balance: dec(4), debitOK: true}
		_, err := Withdraw(ctx, fakeResolver{bridge: b}, "p", policy, dec(5))
		if !errors.Is(err, ErrInsufficientFunds) {
			t.Fatalf("err = %v, want ErrInsufficientFunds", err)
		}
		if b.debitCalls != 0 {
			t.Fatalf("debit called %d times", b.debitCalls)
		}
	})

	t.Run("debit refused after balance check", func(t *testing.T) {
		b := &fakeBridge{balance: dec(100), debitOK: false}
		_, err := Withdraw(ctx, fakeResolver{bridge: b}, "p", policy, dec(5))
		if !errors.Is(err, ErrInsufficientFunds) {
			t.Fatalf("err = %v, want ErrInsufficientFunds", err)
		}
	})

	t.Run("bridge errors are not insufficient funds", func(t *testing.T) {
		for _, b := range []*fakeBridge{
			{balanceErr: errBoom},
			{balance: dec(100), debitErr: errBoom},
		} {
			_, err := Withdraw(ctx, fakeResolver{bridge: b}, "p", policy, dec(5))
			if !errors.Is(err, errBoom) || errors.Is(err, ErrInsufficientFunds) {
				t.Fatalf("err = %v, want wrapped errBoom", err)
			}
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := Withdraw(ctx, fakeResolver{}, "p", policy, dec(5))
		if !errors.Is(err, domain.ErrUnknownProvider) {
			t.Fatalf("err = %v, want ErrUnknownProvider", err)
		}
	})
}
