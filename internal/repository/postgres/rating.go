package postgres

import (
	"context"
	"database/sql"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

// RatingRepository is a PostgreSQL implementation of repository.RatingRepository.
type RatingRepository struct {
	q Querier
}

// NewRatingRepository creates a new PostgreSQL rating repository.
func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{q: db}
}

// NewRatingRepositoryWithTx creates a rating repository using a transaction.
func NewRatingRepositoryWithTx(tx *sql.Tx) *RatingRepository {
	return &RatingRepository{q: tx}
}

// Create persists a new rating. The unique index on ride_id turns a
// concurrent double-submit into ErrDuplicate.
func (r *RatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO ratings (id, ride_id, passenger_id, driver_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		rating.ID,
		rating.RideID,
		rating.PassengerID,
		rating.DriverID,
		rating.Score,
		nullString(rating.Comment),
		rating.CreatedAt,
	)

	return mapError(err)
}

// GetByRideID retrieves the rating for a ride. Returns (nil, nil) when the
// ride has not been rated.
func (r *RatingRepository) GetByRideID(ctx context.Context, rideID string) (*domain.Rating, error) {
	query := `
		SELECT id, ride_id, passenger_id, driver_id, score, COALESCE(comment, ''), created_at
		FROM ratings WHERE ride_id = $1 AND retired_at IS NULL
	`

	var rating domain.Rating
	err := r.q.QueryRowContext(ctx, query, rideID).Scan(
		&rating.ID,
		&rating.RideID,
		&rating.PassengerID,
		&rating.DriverID,
		&rating.Score,
		&rating.Comment,
		&rating.CreatedAt,
	)
	if err != nil {
		if mapped := mapError(err); mapped == repository.ErrNotFound {
			return nil, nil
		}
		return nil, mapError(err)
	}

	return &rating, nil
}

// AverageForDriver returns the mean score and rating count for a driver.
func (r *RatingRepository) AverageForDriver(ctx context.Context, driverID string) (float64, int, error) {
	query := `
		SELECT COALESCE(AVG(score), 0), COUNT(*)
		FROM ratings WHERE driver_id = $1 AND retired_at IS NULL
	`

	var avg float64
	var count int
	if err := r.q.QueryRowContext(ctx, query, driverID).Scan(&avg, &count); err != nil {
		return 0, 0, mapError(err)
	}
	return avg, count, nil
}
