package repository

import (
	"context"

	"ridebook/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment attempt.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByReference retrieves a payment by its external reference.
	GetByReference(ctx context.Context, reference string) (*domain.Payment, error)

	// GetByReferenceForUpdate retrieves a payment by reference and locks the
	// row for the duration of the surrounding transaction.
	GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.Payment, error)

	// GetPendingByRideForUpdate retrieves the ride's pending payment row, if
	// any, with a row lock. Returns (nil, nil) when no pending row exists.
	GetPendingByRideForUpdate(ctx context.Context, rideID string) (*domain.Payment, error)

	// ListByRide retrieves all payment attempts for a ride, newest first.
	ListByRide(ctx context.Context, rideID string) ([]*domain.Payment, error)

	// Update persists changes to an existing payment.
	Update(ctx context.Context, payment *domain.Payment) error
}
