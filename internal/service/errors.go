package service

import (
	"errors"
	"fmt"

	"inventory-service/internal/store"
	"inventory-service/internal/util"
)

// Kind classifies a failed operation for callers that need to pick a response
type Kind int

const (
	KindValidation Kind = iota + 1
	KindPrecondition
	KindNotFound
	KindPersistence
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPrecondition:
		return "precondition"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Error is returned by every workflow operation that refuses or fails
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	ErrInvalidQuantity         = errors.New("quantity must be a positive whole number")
	ErrProductNotFound         = errors.New("product not found")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrAmazonNotEnabled        = errors.New("product is not enabled for Amazon")
	ErrInsufficientAmazonStock = errors.New("insufficient Amazon stock")
	ErrMissingSKU              = errors.New("sku is required")
	ErrMissingName             = errors.New("name is required")
	ErrUnknownCategory         = errors.New("unknown category")
	ErrNegativeValue           = errors.New("value must not be negative")

	ErrMissingRecipient = errors.New("recipient name is required")
	ErrEmptyOrder       = errors.New("order has no items")
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNotPending  = errors.New("order is not pending")
	ErrMissingSignature = errors.New("signature is required")
	ErrDeleteDisabled   = errors.New("order deletion is not configured")
	ErrWrongPassword    = errors.New("wrong delete password")
	ErrNotConfirmed     = errors.New("deletion was not confirmed")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotLoaded          = errors.New("state has not been loaded")
)

// KindOf returns the Kind of err, or 0 when err did not come from this package
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// reject builds a refusal that happened before any write and counts it
func reject(kind Kind, cause error, message string) error {
	util.OperationsRejectedTotal.WithLabelValues(rejectReason(cause)).Inc()
	return &Error{Kind: kind, Message: message, Err: cause}
}

func persistenceFailure(op string, err error) error {
	util.PersistenceFailuresTotal.WithLabelValues(op).Inc()
	if errors.Is(err, store.ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: "record no longer exists", Err: err}
	}
	return &Error{Kind: KindPersistence, Message: "failed to " + op, Err: err}
}

func rejectReason(cause error) string {
	switch {
	case errors.Is(cause, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(cause, ErrProductNotFound):
		return "product_not_found"
	case errors.Is(cause, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(cause, ErrAmazonNotEnabled):
		return "amazon_not_enabled"
	case errors.Is(cause, ErrInsufficientAmazonStock):
		return "insufficient_amazon_stock"
	case errors.Is(cause, ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(cause, ErrOrderNotPending):
		return "order_not_pending"
	case errors.Is(cause, ErrWrongPassword), errors.Is(cause, ErrDeleteDisabled), errors.Is(cause, ErrNotConfirmed):
		return "delete_refused"
	case errors.Is(cause, ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "invalid_input"
	}
}
