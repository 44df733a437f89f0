package postgres

import (
	"context"
	"database/sql"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `id, reference, passenger_id, driver_id, pickup, destination, scheduled_at, fare, payment_method, payment_status, status, created_at, updated_at`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (id, reference, passenger_id, driver_id, pickup, destination, scheduled_at, fare, payment_method, payment_status, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.Reference,
		ride.PassengerID,
		ride.DriverID,
		ride.Pickup,
		ride.Destination,
		ride.ScheduledAt,
		ride.Fare,
		ride.PaymentMethod,
		ride.PaymentStatus,
		ride.Status,
		ride.CreatedAt,
		ride.UpdatedAt,
	)

	return mapError(err)
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1 AND retired_at IS NULL`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a ride by ID with a row lock held until the
// surrounding transaction ends.
func (r *RideRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1 AND retired_at IS NULL FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// ListByPassenger retrieves a passenger's rides, newest first.
func (r *RideRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE passenger_id = $1 AND retired_at IS NULL ORDER BY created_at DESC`
	return r.list(ctx, query, passengerID)
}

// ListByDriver retrieves a driver's rides, newest first.
func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE driver_id = $1 AND retired_at IS NULL ORDER BY created_at DESC`
	return r.list(ctx, query, driverID)
}

// CountPendingByPassenger counts a passenger's pending rides. Callers that
// enforce the booking cap run this inside the same transaction as the insert.
func (r *RideRepository) CountPendingByPassenger(ctx context.Context, passengerID string) (int, error) {
	query := `SELECT COUNT(*) FROM rides WHERE passenger_id = $1 AND status = $2 AND retired_at IS NULL`

	var count int
	if err := r.q.QueryRowContext(ctx, query, passengerID, domain.RideStatusPending).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// Update persists changes to an existing ride.
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET driver_id = $1, pickup = $2, destination = $3, scheduled_at = $4, fare = $5,
		    payment_method = $6, payment_status = $7, status = $8, updated_at = $9
		WHERE id = $10 AND retired_at IS NULL
	`

	result, err := r.q.ExecContext(ctx, query,
		ride.DriverID,
		ride.Pickup,
		ride.Destination,
		ride.ScheduledAt,
		ride.Fare,
		ride.PaymentMethod,
		ride.PaymentStatus,
		ride.Status,
		ride.UpdatedAt,
		ride.ID,
	)
	if err != nil {
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *RideRepository) scanOne(row *sql.Row) (*domain.Ride, error) {
	var ride domain.Ride
	var scheduledAt sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.Reference,
		&ride.PassengerID,
		&ride.DriverID,
		&ride.Pickup,
		&ride.Destination,
		&scheduledAt,
		&ride.Fare,
		&ride.PaymentMethod,
		&ride.PaymentStatus,
		&ride.Status,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	if scheduledAt.Valid {
		ride.ScheduledAt = scheduledAt.Time
	}

	return &ride, nil
}

func (r *RideRepository) list(ctx context.Context, query string, arg any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		var ride domain.Ride
		var scheduledAt sql.NullTime
		if err := rows.Scan(
			&ride.ID,
			&ride.Reference,
			&ride.PassengerID,
			&ride.DriverID,
			&ride.Pickup,
			&ride.Destination,
			&scheduledAt,
			&ride.Fare,
			&ride.PaymentMethod,
			&ride.PaymentStatus,
			&ride.Status,
			&ride.CreatedAt,
			&ride.UpdatedAt,
		); err != nil {
			return nil, mapError(err)
		}
		if scheduledAt.Valid {
			ride.ScheduledAt = scheduledAt.Time
		}
		rides = append(rides, &ride)
	}
	return rides, rows.Err()
}
