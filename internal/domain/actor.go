package domain

// Actor is the player invoking the sell command. Implementations are
// supplied by the command surface.
type Actor interface {
	ID() string
	Name() string
	HasPermission(permission string) bool
	// HeldItem returns a copy of the item in the main hand.
	HeldItem() ItemOffer
	// TakeHeldItem clears the main hand and returns what was in it.
	TakeHeldItem() ItemOffer
	// Tell delivers an already rendered message to the actor.
	Tell(text string)
}
