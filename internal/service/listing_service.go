package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MSCMDD/ServerMarket/internal/domain"
	"github.com/MSCMDD/ServerMarket/internal/market"
)

// PolicyLookup resolves a market key to its policy.
type PolicyLookup interface {
	Lookup(key string) (domain.MarketPolicy, bool)
}

// Alerter delivers operator-facing alerts.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// ErrHeldItemChanged reports that the item removed from the seller's hand is
// not the item that was validated.
var ErrHeldItemChanged = errors.New("held item changed during listing")

// SellRequest is one invocation of a market's sell command.
type SellRequest struct {
	MarketKey string
	Actor     domain.Actor
	// Price is the raw price argument; empty means it was not given.
	Price string
}

// SellResult describes a committed listing.
type SellResult struct {
	Listing domain.Listing
	Bound   domain.PriceBound
	Tax     decimal.Decimal
	Charged bool
}

// ListingService runs the listing-transaction pipeline: validate, price,
// quota, tax, commit, notify. Each run is synchronous; concurrent runs for
// the same seller may both pass the quota check before either commits.
type ListingService struct {
	markets   PolicyLookup
	listings  domain.ListingStore
	bridges   market.BridgeResolver
	messenger domain.Messenger
	observers []domain.ListingObserver
	audit     domain.AuditStore
	alerter   Alerter
	now       func() time.Time
	newID     func() string
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewListingService creates a ListingService with all required dependencies.
func NewListingService(
	markets PolicyLookup,
	listings domain.ListingStore,
	bridges market.BridgeResolver,
	messenger domain.Messenger,
	logger *slog.Logger,
) *ListingService {
	return &ListingService{
		markets:   markets,
		listings:  listings,
		bridges:   bridges,
		messenger: messenger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		tracer:    otel.Tracer("github.com/MSCMDD/ServerMarket/internal/service"),
		logger:    logger.With(slog.String("component", "listing_service")),
	}
}

// WithObservers appends observers notified after every committed listing.
func (s *ListingService) WithObservers(obs ...domain.ListingObserver) *ListingService {
	s.observers = append(s.observers, obs...)
	return s
}

// WithAudit records commit failures in the audit log.
func (s *ListingService) WithAudit(audit domain.AuditStore) *ListingService {
	s.audit = audit
	return s
}

// WithAlerter sends an operator alert when currency was taken but the
// listing could not be stored.
func (s *ListingService) WithAlerter(a Alerter) *ListingService {
	s.alerter = a
	return s
}

// WithClock overrides the timestamp source.
func (s *ListingService) WithClock(now func() time.Time) *ListingService {
	s.now = now
	return s
}

// WithIDGenerator overrides the listing id source.
func (s *ListingService) WithIDGenerator(gen func() string) *ListingService {
	s.newID = gen
	return s
}

// Sell runs the pipeline for one request. A rejected run returns a
// *domain.Rejection and has already told the actor why; an unknown market
// returns domain.ErrUnknownMarket and tells nobody.
func (s *ListingService) Sell(ctx context.Context, req SellRequest) (SellResult, error) {
	ctx, span := s.tracer.Start(ctx, "ListingService.Sell", trace.WithAttributes(
		attribute.String("market", req.MarketKey),
		attribute.String("seller", req.Actor.ID()),
	))
	defer span.End()

	policy, ok := s.markets.Lookup(req.MarketKey)
	if !ok {
		span.SetStatus(codes.Error, "unknown market")
		return SellResult{}, fmt.Errorf("listing_service: %w: %q", domain.ErrUnknownMarket, req.MarketKey)
	}

	res, rej := s.run(ctx, policy, req)
	if rej != nil {
		span.SetAttributes(attribute.String("outcome", string(rej.Reason)))
		if rej.Reason == domain.ReasonCollaboratorFailure {
			span.SetStatus(codes.Error, rej.Error())
		}
		s.messenger.Tell(ctx, req.Actor, rej.MessageKey, rej.Vars)
		s.logger.InfoContext(ctx, "listing_service: listing rejected",
			slog.String("market", policy.Key),
			slog.String("seller", req.Actor.ID()),
			slog.String("reason", string(rej.Reason)),
		)
		return SellResult{}, rej
	}

	span.SetAttributes(
		attribute.String("outcome", "committed"),
		attribute.String("listing_id", res.Listing.ID),
	)
	s.notify(ctx, req.Actor, policy, res)
	return res, nil
}

// run executes steps 1-9. It returns a rejection for every early stop.
func (s *ListingService) run(ctx context.Context, policy domain.MarketPolicy, req SellRequest) (SellResult, *domain.Rejection) {
	actor := req.Actor

	// 1. Permission gate.
	if policy.Permission != "" && !actor.HasPermission(policy.Permission) {
		return SellResult{}, domain.Reject(domain.ReasonNoPermission, domain.MsgNoPermission, nil)
	}

	// 2. Price argument present.
	rawPrice := strings.TrimSpace(req.Price)
	if rawPrice == "" {
		return SellResult{}, domain.Reject(domain.ReasonPriceMissing, domain.MsgPriceNull, nil)
	}

	// 3. Held item.
	offer := actor.HeldItem()
	if offer.Empty() {
		return SellResult{}, domain.Reject(domain.ReasonEmptyHand, domain.MsgHandAir, nil)
	}

	// 4. Deny list and self-reference guard.
	if policy.Denies(offer.Type) || market.MatchesInvocation(offer, policy.ShortCommand) {
		return SellResult{}, domain.Reject(domain.ReasonDeniedItem, domain.MsgDenyItem, nil)
	}

	// 5. Price parse.
	price, err := strconv.ParseInt(rawPrice, 10, 64)
	if err != nil {
		return SellResult{}, domain.Reject(domain.ReasonMalformedPrice, domain.MsgWrongNumber, nil)
	}

	// 6. Price bound.
	bound, err := market.ResolvePrice(offer, policy)
	if err != nil {
		s.logger.ErrorContext(ctx, "listing_service: market policy is malformed",
			slog.String("market", policy.Key),
			slog.String("error", err.Error()),
		)
		rej := domain.Reject(domain.ReasonInvalidPolicy, domain.MsgInvalidPolicy, nil)
		rej.Err = err
		return SellResult{}, rej
	}
	if !bound.Contains(price) {
		if price < bound.Min {
			return SellResult{}, domain.Reject(domain.ReasonPriceTooLow, domain.MsgMinPrice, map[string]string{
				"min": strconv.FormatInt(bound.Min, 10),
			})
		}
		return SellResult{}, domain.Reject(domain.ReasonPriceTooHigh, domain.MsgMaxPrice, map[string]string{
			"max": strconv.FormatInt(bound.Max, 10),
		})
	}

	// 7. Quota.
	quota, err := market.CheckQuota(ctx, actor, policy, s.listings)
	if err != nil {
		return SellResult{}, s.collaboratorFailure(ctx, domain.MsgStorageError, policy, actor, err)
	}
	if !quota.Allowed {
		return SellResult{}, domain.Reject(domain.ReasonQuotaExceeded, domain.MsgMaximumSale, map[string]string{
			"limit": strconv.Itoa(quota.Limit),
		})
	}

	// 8. Tax.
	tax := market.ComputeTax(actor, policy)
	charged, err := market.Withdraw(ctx, s.bridges, actor.ID(), policy, tax)
	if err != nil {
		if errors.Is(err, market.ErrInsufficientFunds) {
			return SellResult{}, domain.Reject(domain.ReasonInsufficientFunds, domain.MsgShoutTax, map[string]string{
				"economy": policy.EconomyName,
				"tax":     tax.String(),
			})
		}
		return SellResult{}, s.collaboratorFailure(ctx, domain.MsgEconomyError, policy, actor, err)
	}

	// 9. Commit. The listing carries the offer validated above; the item
	// taken from the hand must still be that offer.
	listing := domain.Listing{
		ID:         s.newID(),
		MarketKey:  policy.Key,
		SellerID:   actor.ID(),
		SellerName: actor.Name(),
		Item:       offer,
		PayType:    policy.PayType,
		EcoType:    policy.EcoType,
		Price:      price,
		CreatedAt:  s.now(),
	}
	if taken := actor.TakeHeldItem(); !taken.SameAs(offer) {
		err := fmt.Errorf("listing_service: held item changed from %s x%d to %s x%d: %w",
			offer.Type, offer.Amount, taken.Type, taken.Amount, ErrHeldItemChanged)
		s.commitFailed(ctx, listing, tax, charged, err)
		return SellResult{}, domain.RejectWith(domain.MsgStorageError, err)
	}
	if err := s.listings.Add(ctx, policy.Key, listing); err != nil {
		s.commitFailed(ctx, listing, tax, charged, err)
		return SellResult{}, domain.RejectWith(domain.MsgStorageError, fmt.Errorf("listing_service: add listing %s: %w", listing.ID, err))
	}

	s.logger.InfoContext(ctx, "listing_service: listing created",
		slog.String("listing_id", listing.ID),
		slog.String("market", policy.Key),
		slog.String("seller", listing.SellerID),
		slog.Int64("price", listing.Price),
		slog.String("tax", tax.String()),
		slog.Bool("override", bound.Override),
	)

	return SellResult{Listing: listing, Bound: bound, Tax: tax, Charged: charged}, nil
}

func (s *ListingService) collaboratorFailure(ctx context.Context, key string, policy domain.MarketPolicy, actor domain.Actor, err error) *domain.Rejection {
	s.logger.WarnContext(ctx, "listing_service: collaborator failed",
		slog.String("market", policy.Key),
		slog.String("seller", actor.ID()),
		slog.String("error", err.Error()),
	)
	return domain.RejectWith(key, err)
}

// commitFailed reports a commit that failed after the item left the player's
// hand and possibly after tax was taken. Nothing is refunded automatically.
func (s *ListingService) commitFailed(ctx context.Context, listing domain.Listing, tax decimal.Decimal, charged bool, cause error) {
	s.logger.ErrorContext(ctx, "listing_service: listing commit failed after withdrawal",
		slog.String("listing_id", listing.ID),
		slog.String("market", listing.MarketKey),
		slog.String("seller", listing.SellerID),
		slog.String("tax", tax.String()),
		slog.Bool("tax_charged", charged),
		slog.String("error", cause.Error()),
	)

	if s.audit != nil {
		if auditErr := s.audit.Log(ctx, "listing_commit_failed", map[string]any{
			"listing":     listing,
			"tax":         tax.String(),
			"tax_charged": charged,
			"error":       cause.Error(),
		}); auditErr != nil {
			s.logger.WarnContext(ctx, "listing_service: audit log failed",
				slog.String("listing_id", listing.ID),
				slog.String("error", auditErr.Error()),
			)
		}
	}

	if s.alerter != nil {
		msg := fmt.Sprintf("seller %s (%s) lost %s x%d in market %s; tax %s charged=%t: %v",
			listing.SellerName, listing.SellerID, listing.Item.Name(), listing.Item.Amount,
			listing.MarketKey, tax.String(), charged, cause)
		if err := s.alerter.Notify(ctx, "listing_commit_failed", "Listing commit failed", msg); err != nil {
			s.logger.WarnContext(ctx, "listing_service: operator alert failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

// notify runs step 10: observers, the seller's confirmation and the
// optional public broadcast. Nothing here can undo the listing.
func (s *ListingService) notify(ctx context.Context, actor domain.Actor, policy domain.MarketPolicy, res SellResult) {
	evt := &domain.ListingCreated{Actor: actor, Policy: policy, Listing: res.Listing}
	for _, obs := range s.observers {
		s.deliver(ctx, obs, evt)
	}

	s.messenger.Tell(ctx, actor, domain.MsgSell, map[string]string{
		"price":       strconv.FormatInt(res.Listing.Price, 10),
		"tax":         res.Tax.String(),
		"market_name": policy.DisplayName,
	})

	if policy.SaleBroadcast && !evt.Cancelled() {
		s.messenger.Broadcast(ctx, domain.MsgBroadcast, map[string]string{
			"item":        res.Listing.Item.Name(),
			"market_name": policy.DisplayName,
			"amount":      strconv.Itoa(res.Listing.Item.Amount),
			"player":      actor.Name(),
		})
	}
}

func (s *ListingService) deliver(ctx context.Context, obs domain.ListingObserver, evt *domain.ListingCreated) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "listing_service: observer panicked",
				slog.String("observer", obs.Name()),
				slog.String("listing_id", evt.Listing.ID),
				slog.Any("panic", r),
			)
		}
	}()
	if err := obs.OnListingCreated(ctx, evt); err != nil {
		s.logger.WarnContext(ctx, "listing_service: observer failed",
			slog.String("observer", obs.Name()),
			slog.String("listing_id", evt.Listing.ID),
			slog.String("error", err.Error()),
		)
	}
}
