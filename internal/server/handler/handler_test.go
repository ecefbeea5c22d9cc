package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MSCMDD/ServerMarket/internal/domain"
	"github.com/MSCMDD/ServerMarket/internal/service"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sellFunc func(ctx context.Context, req service.SellRequest) (service.SellResult, error)

func (f sellFunc) Sell(ctx context.Context, req service.SellRequest) (service.SellResult, error) {
	return f(ctx, req)
}

func serveSell(t *testing.T, svc ListingService, market, body string) (*httptest.ResponseRecorder, sellResponse) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/markets/{market}/sell", NewListingHandler(svc, policySource{}, quietLogger()).Sell)

	req := httptest.NewRequest(http.MethodPost, "/api/markets/"+market+"/sell", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp sellResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

const sellBody = `{
	"player": {"id": "p1", "name": "Steve", "permissions": ["market.vip"]},
	"item": {"type": "DIAMOND", "amount": 3, "lore": ["&6Rare"], "payload": "AQI="},
	"price": "150"
}`

func TestSell_Committed(t *testing.T) {
	var got service.SellRequest
	svc := sellFunc(func(_ context.Context, req service.SellRequest) (service.SellResult, error) {
		got = req
		if !req.Actor.HasPermission("market.vip") || req.Actor.HasPermission("market.admin") {
			t.Errorf("permissions not carried")
		}
		held := req.Actor.HeldItem()
		if held.Type != "DIAMOND" || held.Amount != 3 || string(held.Payload) != "\x01\x02" {
			t.Errorf("held item = %+v", held)
		}
		item := req.Actor.TakeHeldItem()
		req.Actor.Tell("listed")
		return service.SellResult{
			Listing: domain.Listing{ID: "l-1", MarketKey: req.MarketKey, Item: item, Price: 150},
			Tax:     decimal.NewFromInt(5),
		}, nil
	})

	rec, resp := serveSell(t, svc, "global", sellBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got.MarketKey != "global" || got.Price != "150" || got.Actor.ID() != "p1" || got.Actor.Name() != "Steve" {
		t.Errorf("request = %+v", got)
	}
	if resp.Status != "committed" || !resp.ClearHand || resp.Tax != "5" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Listing == nil || resp.Listing.ID != "l-1" {
		t.Errorf("listing = %+v", resp.Listing)
	}
	if len(resp.Messages) != 1 || resp.Messages[0] != "listed" {
		t.Errorf("messages = %v", resp.Messages)
	}
}

func TestSell_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		take      bool
		wantCode  int
		wantClear bool
	}{
		{"validation", domain.Reject(domain.ReasonPriceTooLow, domain.MsgMinPrice, nil), false, http.StatusUnprocessableEntity, false},
		{"economy down", domain.RejectWith(domain.MsgEconomyError, errors.New("redis")), false, http.StatusBadGateway, false},
		{"commit failed after take", domain.RejectWith(domain.MsgStorageError, errors.New("disk")), true, http.StatusBadGateway, true},
		{"unknown market", fmt.Errorf("wrap: %w", domain.ErrUnknownMarket), false, http.StatusNotFound, false},
		{"unexpected", errors.New("boom"), false, http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := sellFunc(func(_ context.Context, req service.SellRequest) (service.SellResult, error) {
				if tt.take {
					req.Actor.TakeHeldItem()
				}
				req.Actor.Tell("why")
				return service.SellResult{}, tt.err
			})
			rec, resp := serveSell(t, svc, "global", sellBody)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body)
			}
			if resp.ClearHand != tt.wantClear {
				t.Errorf("clear_hand = %t, want %t", resp.ClearHand, tt.wantClear)
			}
			if r, ok := domain.AsRejection(tt.err); ok {
				if resp.Status != "rejected" || resp.Reason != string(r.Reason) || len(resp.Messages) != 1 {
					t.Errorf("response = %+v", resp)
				}
			}
		})
	}
}

func TestSell_BadRequest(t *testing.T) {
	svc := sellFunc(func(context.Context, service.SellRequest) (service.SellResult, error) {
		t.Fatal("service called")
		return service.SellResult{}, nil
	})
	for _, body := range []string{`not json`, `{"player":{"name":"x"},"price":"1"}`} {
		if rec, _ := serveSell(t, svc, "global", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d", body, rec.Code)
		}
	}
}

func TestRequestActor(t *testing.T) {
	a := newRequestActor(playerBody{ID: "p1", Permissions: []string{"*"}}, domain.ItemOffer{Type: "STONE", Amount: 1, Lore: []string{"a"}})
	if !a.HasPermission("anything") {
		t.Errorf("wildcard permission not honoured")
	}

	held := a.HeldItem()
	held.Lore[0] = "mutated"
	if a.HeldItem().Lore[0] != "a" {
		t.Errorf("HeldItem returned shared lore")
	}

	if taken := a.TakeHeldItem(); taken.Type != "STONE" {
		t.Errorf("taken = %+v", taken)
	}
	if !a.HeldItem().Empty() {
		t.Errorf("hand not empty after take")
	}
	if _, clear := a.result(); !clear {
		t.Errorf("clear_hand not reported")
	}
}

type policySource []domain.MarketPolicy

func (p policySource) All() []domain.MarketPolicy { return p }

func (p policySource) Lookup(key string) (domain.MarketPolicy, bool) {
	for _, m := range p {
		if m.Key == key {
			return m, true
		}
	}
	return domain.MarketPolicy{}, false
}

func (p policySource) ByCommand(cmd string) (domain.MarketPolicy, bool) {
	for _, m := range p {
		if strings.EqualFold(m.ShortCommand, cmd) {
			return m, true
		}
	}
	return domain.MarketPolicy{}, false
}

func TestMarketHandler(t *testing.T) {
	src := policySource{{
		Key:          "global",
		ShortCommand: "gm",
		DisplayName:  "Global",
		MinPrice:     10,
		MaxPrice:     1000,
		DeniedTypes:  map[string]bool{"BEDROCK": true, "BARRIER": true},
		Overrides:    []domain.PriceOverride{{Filter: "Rare", Range: "100-500"}},
		LimitTiers:   domain.Tiers{Default: decimal.NewFromInt(3)},
		TaxTiers: domain.Tiers{Default: decimal.NewFromInt(5), Entries: []domain.Tier{
			{Permission: "market.vip", Value: decimal.NewFromInt(1)},
		}},
		PayType: domain.PayTypeVault,
	}}
	h := NewMarketHandler(src, quietLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/markets", h.ListMarkets)
	mux.HandleFunc("GET /api/markets/{market}", h.GetMarket)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets", nil))
	var list struct {
		Markets []marketView `json:"markets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Markets) != 1 {
		t.Fatalf("markets = %+v", list.Markets)
	}
	m := list.Markets[0]
	if m.Command != "gm" || m.Tax != "5" || m.Limit != "3" || len(m.TaxTiers) != 1 || m.TaxTiers[0].Value != "1" {
		t.Errorf("view = %+v", m)
	}
	if len(m.DeniedTypes) != 2 || m.DeniedTypes[0] != "BARRIER" {
		t.Errorf("denied = %v", m.DeniedTypes)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown market status = %d", rec.Code)
	}
}

func TestSellByCommand(t *testing.T) {
	var market string
	svc := sellFunc(func(_ context.Context, req service.SellRequest) (service.SellResult, error) {
		market = req.MarketKey
		return service.SellResult{}, nil
	})
	h := NewListingHandler(svc, policySource{{Key: "global", ShortCommand: "gm"}}, quietLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/commands/{command}/sell", h.SellByCommand)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/commands/GM/sell", strings.NewReader(sellBody)))
	if rec.Code != http.StatusOK || market != "global" {
		t.Errorf("status = %d market = %q", rec.Code, market)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/commands/nope/sell", strings.NewReader(sellBody)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown command status = %d", rec.Code)
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	NewHealthHandler(map[string]Pinger{"store": ok}, quietLogger()).
		HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthy status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewHealthHandler(map[string]Pinger{"store": ok, "redis": down}, quietLogger()).
		HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("degraded = %d %s", rec.Code, rec.Body)
	}
}

type auditList []domain.AuditEntry

func (a auditList) Log(context.Context, string, map[string]any) error { return nil }

func (a auditList) ListRecent(_ context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit < len(a) {
		return a[:limit], nil
	}
	return a, nil
}

func TestAuditHandler(t *testing.T) {
	entries := auditList{{ID: 2, Event: "listing_created"}, {ID: 1, Event: "listing_created"}}
	rec := httptest.NewRecorder()
	NewAuditHandler(entries, quietLogger()).
		ListRecent(rec, httptest.NewRequest(http.MethodGet, "/api/audit?limit=1", nil))

	var body struct {
		Entries []domain.AuditEntry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Entries) != 1 || body.Entries[0].ID != 2 {
		t.Errorf("entries = %+v", body.Entries)
	}
}
