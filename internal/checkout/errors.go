package checkout

import "errors"

var (
	ErrEmptyCart              = errors.New("cart is empty, nothing to checkout")
	ErrSessionNotFound        = errors.New("checkout session not found")
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	ErrSessionCompleted       = errors.New("checkout session already completed")
	ErrSessionAbandoned       = errors.New("checkout session abandoned")
	ErrSubmissionInFlight     = errors.New("submission already in progress")
	ErrIllegalTransition      = errors.New("illegal checkout status transition")
)
