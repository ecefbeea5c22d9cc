package market

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

type fakeActor struct {
	id    string
	perms map[string]bool
}

func newActor(id string, perms ...string) *fakeActor {
	a := &fakeActor{id: id, perms: map[string]bool{}}
	for _, p := range perms {
		a.perms[p] = true
	}
	return a
}

func (a *fakeActor) ID() string                     { return a.id }
func (a *fakeActor) Name() string                   { return a.id }
func (a *fakeActor) HasPermission(p string) bool    { return a.perms[p] }
func (a *fakeActor) HeldItem() domain.ItemOffer     { return domain.ItemOffer{} }
func (a *fakeActor) TakeHeldItem() domain.ItemOffer { return domain.ItemOffer{} }
func (a *fakeActor) Tell(string)                    {}

type fakeCounter struct {
	count int
	err   error
}

func (c fakeCounter) CountActive(context.Context, string, string) (int, error) {
	return c.count, c.err
}

type fakeBridge struct {
	balance    decimal.Decimal
	balanceErr error
	debitOK    bool
	debitErr   error

	balanceCalls int
	debitCalls   int
}

func (b *fakeBridge) Name() string { return "fake" }

func (b *fakeBridge) Balance(context.Context, string, string) (decimal.Decimal, error) {
	b.balanceCalls++
	return b.balance, b.balanceErr
}

func (b *fakeBridge) Debit(context.Context, string, string, decimal.Decimal) (bool, error) {
	b.debitCalls++
	return b.debitOK, b.debitErr
}

type fakeResolver struct {
	bridge *fakeBridge
}

func (r fakeResolver) Bridge(domain.PayType) (domain.EconomyBridge, error) {
	if r.bridge == nil {
		return nil, domain.ErrUnknownProvider
	}
	return r.bridge, nil
}

var errBoom = errors.New("boom")

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
