package repository

import (
	"context"

	"ridebook/internal/domain"
)

// RideRepository defines the persistence operations for rides. Soft-retired
// rows are excluded from every query.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetByIDForUpdate retrieves a ride by ID and locks the row for the
	// duration of the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error)

	// ListByPassenger retrieves a passenger's rides, newest first.
	ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Ride, error)

	// ListByDriver retrieves a driver's rides, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error)

	// CountPendingByPassenger counts a passenger's rides in pending status.
	CountPendingByPassenger(ctx context.Context, passengerID string) (int, error)

	// Update persists changes to an existing ride.
	Update(ctx context.Context, ride *domain.Ride) error
}
