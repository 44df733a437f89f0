package service

import "errors"

var (
	// ErrValidation is returned for malformed input. Caller's fault, no retry.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when an operation would violate the
	// ride or payment state machine.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrStaleState is returned when an optimistic check loses to a
	// concurrent writer. The caller should reload and may retry.
	ErrStaleState = errors.New("state changed concurrently")

	// ErrNotEligible is returned when a policy gate fails, e.g. a driver
	// that is not approved or not assigned to the ride.
	ErrNotEligible = errors.New("not eligible")

	// ErrVehicleLocked is returned while the 30-day vehicle edit lock is
	// active.
	ErrVehicleLocked = errors.New("vehicle update locked")

	// ErrNoDriverAvailable is returned when no driver can be auto-assigned.
	ErrNoDriverAvailable = errors.New("no driver available")

	// ErrGatewayUnavailable is returned when the payment gateway cannot be
	// reached or is not configured. Transient; retryable with backoff.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrUnknownReference is returned for a callback reference with no
	// matching payment. No ride is mutated.
	ErrUnknownReference = errors.New("unknown payment reference")

	// ErrReconciliationConflict is returned when a verified gateway payment
	// cannot be applied because the ride is no longer valid. Requires
	// manual operator intervention; never auto-resolved.
	ErrReconciliationConflict = errors.New("payment requires manual reconciliation")

	// ErrAlreadyRated is returned when a ride already has a rating.
	ErrAlreadyRated = errors.New("ride already rated")

	// ErrTransient is returned on store-level contention or timeout.
	// Retryable.
	ErrTransient = errors.New("transient error")
)
