package repository

import (
	"context"

	"ridebook/internal/domain"
)

// RatingRepository defines the persistence operations for ratings.
type RatingRepository interface {
	// Create persists a new rating. Returns ErrDuplicate if the ride is
	// already rated.
	Create(ctx context.Context, rating *domain.Rating) error

	// GetByRideID retrieves the rating for a ride. Returns (nil, nil) when
	// the ride has not been rated.
	GetByRideID(ctx context.Context, rideID string) (*domain.Rating, error)

	// AverageForDriver returns the mean score and rating count for a driver.
	AverageForDriver(ctx context.Context, driverID string) (float64, int, error)
}
