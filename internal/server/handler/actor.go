package handler

import (
	"sync"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// requestActor is the domain.Actor for one HTTP sell request. The game
// server reports the player's permissions and held item; messages and
// whether the hand must be cleared are reported back in the response.
type requestActor struct {
	id    string
	name  string
	perms map[string]bool

	mu       sync.Mutex
	item     domain.ItemOffer
	taken    bool
	messages []string
}

func newRequestActor(p playerBody, item domain.ItemOffer) *requestActor {
	perms := make(map[string]bool, len(p.Permissions))
	for _, perm := range p.Permissions {
		perms[perm] = true
	}
	return &requestActor{id: p.ID, name: p.Name, perms: perms, item: item}
}

func (a *requestActor) ID() string   { return a.id }
func (a *requestActor) Name() string { return a.name }

// HasPermission treats "*" as holding every permission.
func (a *requestActor) HasPermission(permission string) bool {
	return a.perms[permission] || a.perms["*"]
}

func (a *requestActor) HeldItem() domain.ItemOffer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.held()
}

func (a *requestActor) held() domain.ItemOffer {
	if a.taken {
		return domain.ItemOffer{}
	}
	item := a.item
	item.Lore = append([]string(nil), a.item.Lore...)
	return item
}

func (a *requestActor) TakeHeldItem() domain.ItemOffer {
	a.mu.Lock()
	defer a.mu.Unlock()
	item := a.held()
	a.taken = true
	return item
}

func (a *requestActor) Tell(text string) {
	a.mu.Lock()
	a.messages = append(a.messages, text)
	a.mu.Unlock()
}

func (a *requestActor) result() (messages []string, clearHand bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string{}, a.messages...), a.taken
}

var _ domain.Actor = (*requestActor)(nil)
