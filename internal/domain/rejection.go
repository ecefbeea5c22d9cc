package domain

import (
	"errors"
	"fmt"
)

// RejectReason classifies why a listing attempt did not produce a listing.
type RejectReason string

const (
	ReasonNoPermission        RejectReason = "no_permission"
	ReasonPriceMissing        RejectReason = "price_missing"
	ReasonEmptyHand           RejectReason = "empty_hand"
	ReasonDeniedItem          RejectReason = "denied_item"
	ReasonMalformedPrice      RejectReason = "malformed_price"
	ReasonPriceTooLow         RejectReason = "price_too_low"
	ReasonPriceTooHigh        RejectReason = "price_too_high"
	ReasonQuotaExceeded       RejectReason = "quota_exceeded"
	ReasonInsufficientFunds   RejectReason = "insufficient_funds"
	ReasonInvalidPolicy       RejectReason = "invalid_policy"
	ReasonCollaboratorFailure RejectReason = "collaborator_failure"
)

// Message keys rendered for the actor.
const (
	MsgNoPermission  = "no-permission"
	MsgPriceNull     = "price-null"
	MsgHandAir       = "hand-air"
	MsgDenyItem      = "deny-item"
	MsgWrongNumber   = "wrong-number"
	MsgMinPrice      = "min-price"
	MsgMaxPrice      = "max-price"
	MsgMaximumSale   = "maximum-sale"
	MsgShoutTax      = "shout-tax"
	MsgInvalidPolicy = "invalid-policy"
	MsgStorageError  = "storage-error"
	MsgEconomyError  = "economy-error"
	MsgSell          = "sell"
	MsgBroadcast     = "broadcast"
)

// Rejection is the typed outcome of a pipeline run that stopped early. It
// carries the message key and substitutions used to tell the actor why.
type Rejection struct {
	Reason     RejectReason
	MessageKey string
	Vars       map[string]string
	Err        error
}

// Reject builds a Rejection for reason with the given message key.
func Reject(reason RejectReason, key string, vars map[string]string) *Rejection {
	return &Rejection{Reason: reason, MessageKey: key, Vars: vars}
}

// RejectWith builds a CollaboratorFailure rejection wrapping cause.
func RejectWith(key string, cause error) *Rejection {
	return &Rejection{Reason: ReasonCollaboratorFailure, MessageKey: key, Err: cause}
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("listing rejected (%s): %v", r.Reason, r.Err)
	}
	return fmt.Sprintf("listing rejected (%s)", r.Reason)
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

// Is lets errors.Is match ErrRejected for every rejection and the sentinel
// of its own reason.
func (r *Rejection) Is(target error) bool {
	if target == ErrRejected {
		return true
	}
	sentinel, ok := reasonErrors[r.Reason]
	return ok && target == sentinel
}

// AsRejection extracts a *Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
