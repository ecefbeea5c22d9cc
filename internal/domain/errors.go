package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrLockHeld        = errors.New("lock already held")
	ErrUnknownMarket   = errors.New("unknown market")
	ErrUnknownProvider = errors.New("unknown economy provider")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrRejected        = errors.New("listing rejected")
)

// One sentinel per RejectReason; a *Rejection matches its own.
var (
	ErrNoPermission      = errors.New("no permission")
	ErrPriceMissing      = errors.New("price missing")
	ErrEmptyHand         = errors.New("empty hand")
	ErrDeniedItem        = errors.New("denied item")
	ErrMalformedPrice    = errors.New("malformed price")
	ErrPriceTooLow       = errors.New("price too low")
	ErrPriceTooHigh      = errors.New("price too high")
	ErrQuotaExceeded     = errors.New("quota exceeded")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidPolicy     = errors.New("invalid market policy")
	ErrCollaboratorDown  = errors.New("collaborator failure")
)

var reasonErrors = map[RejectReason]error{
	ReasonNoPermission:        ErrNoPermission,
	ReasonPriceMissing:        ErrPriceMissing,
	ReasonEmptyHand:           ErrEmptyHand,
	ReasonDeniedItem:          ErrDeniedItem,
	ReasonMalformedPrice:      ErrMalformedPrice,
	ReasonPriceTooLow:         ErrPriceTooLow,
	ReasonPriceTooHigh:        ErrPriceTooHigh,
	ReasonQuotaExceeded:       ErrQuotaExceeded,
	ReasonInsufficientFunds:   ErrInsufficientFunds,
	ReasonInvalidPolicy:       ErrInvalidPolicy,
	ReasonCollaboratorFailure: ErrCollaboratorDown,
}
