package domain

import "errors"

var (
	ErrInvalidTransition         = errors.New("invalid transition")
	ErrTerminalState             = errors.New("booking is in a terminal state")
	ErrCancellationWindowExpired = errors.New("cancellation window expired")
	ErrAmountMismatch            = errors.New("amount mismatch")
	ErrDuplicateReview           = errors.New("booking already reviewed")
	// ErrConcurrencyConflict is the only error a caller may retry, with backoff.
	ErrConcurrencyConflict = errors.New("booking is being modified concurrently")

	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidSchedule     = errors.New("invalid schedule")
	ErrProviderNotBookable = errors.New("provider is not accepting bookings")
)
