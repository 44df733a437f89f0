package repository

import (
	"context"

	"ridebook/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create persists a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByIDForUpdate retrieves a driver by ID and locks the row for the
	// duration of the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Driver, error)

	// ListAvailable retrieves approved, available drivers ordered by
	// vehicle name. The order doubles as the auto-assignment tie-break.
	ListAvailable(ctx context.Context) ([]*domain.Driver, error)

	// Update persists changes to an existing driver.
	Update(ctx context.Context, driver *domain.Driver) error
}
