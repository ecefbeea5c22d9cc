package economy

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

type stubBridge struct{ name string }

func (s stubBridge) Name() string { return s.name }

func (s stubBridge) Balance(context.Context, string, string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (s stubBridge) Debit(context.Context, string, string, decimal.Decimal) (bool, error) {
	return true, nil
}

func TestRegistryBridge(t *testing.T) {
	r := NewRegistry()
	r.Register(domain.PayTypeVault, stubBridge{name: "ledger"})
	r.Register(" PlayerPoints ", stubBridge{name: "points"})

	b, err := r.Bridge("VAULT")
	if err != nil {
		t.Fatalf("Bridge(VAULT): %v", err)
	}
	if b.Name() != "ledger" {
		t.Fatalf("got %q, want ledger", b.Name())
	}

	b, err = r.Bridge(domain.PayTypePlayerPoints)
	if err != nil {
		t.Fatalf("Bridge(playerpoints): %v", err)
	}
	if b.Name() != "points" {
		t.Fatalf("got %q, want points", b.Name())
	}

	if _, err := r.Bridge("gold"); !errors.Is(err, domain.ErrUnknownProvider) {
		t.Fatalf("err = %v, want ErrUnknownProvider", err)
	}

	got := r.Providers()
	if len(got) != 2 || got[0] != domain.PayTypePlayerPoints || got[1] != domain.PayTypeVault {
		t.Fatalf("Providers() = %v", got)
	}
}
