package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "market.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleListing(id, seller, market string, created time.Time) domain.Listing {
	return domain.Listing{
		ID:         id,
		MarketKey:  market,
		SellerID:   seller,
		SellerName: "Steve",
		Item: domain.ItemOffer{
			Payload:     []byte{0x01, 0x02},
			Type:        "DIAMOND_SWORD",
			DisplayName: "&bExcalibur",
			Lore:        []string{"&6Rare", "Sharp"},
			Amount:      1,
		},
		PayType:   domain.PayTypeVault,
		EcoType:   "default",
		Price:     250,
		CreatedAt: created,
	}
}

func TestListingStore_AddAndCount(t *testing.T) {
	s := setupTestStore(t)
	store := NewListingStore(s.DB())
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, l := range []domain.Listing{
		sampleListing("a", "p1", "market", now),
		sampleListing("b", "p1", "market", now),
		sampleListing("c", "p1", "other", now),
		sampleListing("d", "p2", "market", now),
	} {
		if err := store.Add(ctx, l.MarketKey, l); err != nil {
			t.Fatalf("Add #%d: %v", i, err)
		}
	}

	n, err := store.CountActive(ctx, "p1", "market")
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	got, err := store.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Item.DisplayName != "&bExcalibur" || len(got.Item.Lore) != 2 || got.Item.Lore[0] != "&6Rare" {
		t.Errorf("item not round-tripped: %+v", got.Item)
	}
	if string(got.Item.Payload) != "\x01\x02" || got.Price != 250 || !got.CreatedAt.Equal(now) {
		t.Errorf("listing not round-tripped: %+v", got)
	}
}

func TestListingStore_DuplicateAndMissing(t *testing.T) {
	s := setupTestStore(t)
	store := NewListingStore(s.DB())
	ctx := context.Background()

	l := sampleListing("dup", "p1", "market", time.Now().UTC())
	if err := store.Add(ctx, "market", l); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Add(ctx, "market", l); err == nil {
		t.Fatal("expected error on duplicate id")
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID missing = %v, want ErrNotFound", err)
	}
}

func TestListingStore_ListBefore(t *testing.T) {
	s := setupTestStore(t)
	store := NewListingStore(s.DB())
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = store.Add(ctx, "market", sampleListing("new", "p1", "market", base.Add(48*time.Hour)))
	_ = store.Add(ctx, "market", sampleListing("old2", "p1", "market", base.Add(2*time.Hour)))
	_ = store.Add(ctx, "market", sampleListing("old1", "p1", "market", base.Add(time.Hour)))

	got, err := store.ListBefore(ctx, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListBefore: %v", err)
	}
	if len(got) != 2 || got[0].ID != "old1" || got[1].ID != "old2" {
		t.Errorf("ListBefore = %+v, want old1, old2", got)
	}
}

func TestAuditStore_LogAndList(t *testing.T) {
	s := setupTestStore(t)
	audit := NewAuditStore(s.DB())
	ctx := context.Background()

	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	audit.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	if err := audit.Log(ctx, "listing_created", map[string]any{"listing_id": "a"}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := audit.Log(ctx, "listing_commit_failed", map[string]any{"error": "disk full"}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := audit.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Event != "listing_commit_failed" || entries[0].Detail["error"] != "disk full" {
		t.Errorf("newest entry = %+v", entries[0])
	}
}

func TestLedgerBridge_DebitAndBalance(t *testing.T) {
	s := setupTestStore(t)
	vault := NewVaultBridge(s.DB())
	ctx := context.Background()

	bal, err := vault.Balance(ctx, "p1", "anything")
	if err != nil || !bal.IsZero() {
		t.Fatalf("missing account balance = %s, %v", bal, err)
	}

	if err := vault.Deposit(ctx, "p1", "", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	ok, err := vault.Debit(ctx, "p1", "ignored-currency", decimal.NewFromInt(5))
	if err != nil || !ok {
		t.Fatalf("Debit = %t, %v", ok, err)
	}
	bal, _ = vault.Balance(ctx, "p1", "")
	if !bal.Equal(decimal.NewFromInt(95)) {
		t.Errorf("balance = %s, want 95", bal)
	}

	ok, err = vault.Debit(ctx, "p1", "", decimal.NewFromInt(96))
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if ok {
		t.Errorf("debit above balance succeeded")
	}

	ok, err = vault.Debit(ctx, "nobody", "", decimal.NewFromInt(1))
	if err != nil || ok {
		t.Errorf("debit on missing account = %t, %v", ok, err)
	}

	if _, err := vault.Debit(ctx, "p1", "", decimal.Zero); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("zero debit err = %v, want ErrInvalidAmount", err)
	}
}

func TestLedgerBridge_MultiCurrency(t *testing.T) {
	s := setupTestStore(t)
	ny := NewNyEconomyBridge(s.DB())
	ctx := context.Background()

	_ = ny.Deposit(ctx, "p1", "gems", decimal.NewFromInt(10))
	_ = ny.Deposit(ctx, "p1", "gold", decimal.RequireFromString("2.5"))

	gems, _ := ny.Balance(ctx, "p1", "gems")
	gold, _ := ny.Balance(ctx, "p1", "gold")
	if !gems.Equal(decimal.NewFromInt(10)) || !gold.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("gems=%s gold=%s", gems, gold)
	}

	ok, _ := ny.Debit(ctx, "p1", "gold", decimal.NewFromInt(3))
	if ok {
		t.Errorf("gold debit should fail")
	}
	ok, _ = ny.Debit(ctx, "p1", "gems", decimal.NewFromInt(3))
	if !ok {
		t.Errorf("gems debit should succeed")
	}

	// the vault ledger is a separate provider
	vaultBal, _ := NewVaultBridge(s.DB()).Balance(ctx, "p1", "gems")
	if !vaultBal.IsZero() {
		t.Errorf("vault sees nyeconomy balance %s", vaultBal)
	}
}

func TestLedgerBridge_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	s := setupTestStore(t)
	vault := NewVaultBridge(s.DB())
	ctx := context.Background()
	_ = vault.Deposit(ctx, "p1", "", decimal.NewFromInt(10))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := vault.Debit(ctx, "p1", "", decimal.NewFromInt(3))
			if err == nil && ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	bal, _ := vault.Balance(ctx, "p1", "")
	if bal.IsNegative() {
		t.Fatalf("balance went negative: %s", bal)
	}
	if want := decimal.NewFromInt(10 - int64(3*succeeded)); !bal.Equal(want) {
		t.Errorf("balance = %s after %d debits, want %s", bal, succeeded, want)
	}
}
