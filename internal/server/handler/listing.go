package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MSCMDD/ServerMarket/internal/domain"
	"github.com/MSCMDD/ServerMarket/internal/service"
)

// maxSellBody bounds the request body; item payloads are serialized stacks.
const maxSellBody = 1 << 20

// ListingService is the part of the service layer the listing handler uses.
type ListingService interface {
	Sell(ctx context.Context, req service.SellRequest) (service.SellResult, error)
}

// CommandResolver maps a market's short command to its policy.
type CommandResolver interface {
	ByCommand(cmd string) (domain.MarketPolicy, bool)
}

// ListingHandler runs a market's sell command on behalf of a game server.
type ListingHandler struct {
	listings ListingService
	commands CommandResolver
	logger   *slog.Logger
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(listings ListingService, commands CommandResolver, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, commands: commands, logger: logger}
}

type playerBody struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// sellRequest is the POST body. Price is the raw command argument and is
// validated by the pipeline, so it stays a string here.
type sellRequest struct {
	Player playerBody       `json:"player"`
	Item   domain.ItemOffer `json:"item"`
	Price  string           `json:"price"`
}

type sellResponse struct {
	Status    string          `json:"status"`
	Reason    string          `json:"reason,omitempty"`
	Messages  []string        `json:"messages"`
	ClearHand bool            `json:"clear_hand"`
	Listing   *domain.Listing `json:"listing,omitempty"`
	Tax       string          `json:"tax,omitempty"`
}

// Sell lists the player's held item.
// POST /api/markets/{market}/sell
//
// 200 committed, 422 rejected by validation or policy, 502 when storage or
// the economy failed, 404 for an unknown market.
func (h *ListingHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.sell(w, r, r.PathValue("market"))
}

// SellByCommand is Sell addressed by the market's short command, the way a
// player types it in game.
// POST /api/commands/{command}/sell
func (h *ListingHandler) SellByCommand(w http.ResponseWriter, r *http.Request) {
	policy, ok := h.commands.ByCommand(r.PathValue("command"))
	if !ok {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}
	h.sell(w, r, policy.Key)
}

func (h *ListingHandler) sell(w http.ResponseWriter, r *http.Request, marketKey string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSellBody)

	var body sellRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(body.Player.ID) == "" {
		writeError(w, http.StatusBadRequest, "player.id is required")
		return
	}
	if body.Player.Name == "" {
		body.Player.Name = body.Player.ID
	}

	actor := newRequestActor(body.Player, body.Item)
	res, err := h.listings.Sell(r.Context(), service.SellRequest{
		MarketKey: marketKey,
		Actor:     actor,
		Price:     body.Price,
	})
	messages, clearHand := actor.result()

	if err == nil {
		listing := res.Listing
		writeJSON(w, http.StatusOK, sellResponse{
			Status:    "committed",
			Messages:  messages,
			ClearHand: clearHand,
			Listing:   &listing,
			Tax:       res.Tax.String(),
		})
		return
	}

	if errors.Is(err, domain.ErrUnknownMarket) {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}

	rej, ok := domain.AsRejection(err)
	if !ok {
		h.logger.ErrorContext(r.Context(), "handler: sell failed",
			slog.String("market", marketKey),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "sell failed")
		return
	}

	status := http.StatusUnprocessableEntity
	if rej.Reason == domain.ReasonCollaboratorFailure {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, sellResponse{
		Status:    "rejected",
		Reason:    string(rej.Reason),
		Messages:  messages,
		ClearHand: clearHand,
	})
}
