package postgres

import (
	"context"
	"database/sql"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

const paymentColumns = `id, ride_id, amount, COALESCE(reference, ''), payment_method, status, paid_at, created_at, updated_at`

// Create persists a new payment attempt.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, ride_id, amount, reference, payment_method, status, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.RideID,
		payment.Amount,
		nullString(payment.Reference),
		payment.Method,
		payment.Status,
		nullTime(payment.PaidAt),
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	return mapError(err)
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND retired_at IS NULL`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByReference retrieves a payment by its external reference.
func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1 AND retired_at IS NULL`
	return r.scanOne(r.q.QueryRowContext(ctx, query, reference))
}

// GetByReferenceForUpdate retrieves a payment by reference with a row lock
// held until the surrounding transaction ends. Gateway callbacks for the
// same reference serialize here.
func (r *PaymentRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1 AND retired_at IS NULL FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, reference))
}

// GetPendingByRideForUpdate retrieves the ride's pending payment row with a
// row lock. Returns (nil, nil) when the ride has no pending attempt, so the
// caller can decide between update and insert.
func (r *PaymentRepository) GetPendingByRideForUpdate(ctx context.Context, rideID string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE ride_id = $1 AND status = $2 AND retired_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`

	payment, err := r.scanOne(r.q.QueryRowContext(ctx, query, rideID, domain.PaymentStatusPending))
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

// ListByRide retrieves all payment attempts for a ride, newest first.
func (r *PaymentRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ride_id = $1 AND retired_at IS NULL ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, rideID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		var payment domain.Payment
		var paidAt sql.NullTime
		if err := rows.Scan(
			&payment.ID,
			&payment.RideID,
			&payment.Amount,
			&payment.Reference,
			&payment.Method,
			&payment.Status,
			&paidAt,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		); err != nil {
			return nil, mapError(err)
		}
		if paidAt.Valid {
			payment.PaidAt = paidAt.Time
		}
		payments = append(payments, &payment)
	}
	return payments, rows.Err()
}

// Update persists changes to an existing payment.
func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET amount = $1, reference = $2, payment_method = $3, status = $4, paid_at = $5, updated_at = $6
		WHERE id = $7 AND retired_at IS NULL
	`

	result, err := r.q.ExecContext(ctx, query,
		payment.Amount,
		nullString(payment.Reference),
		payment.Method,
		payment.Status,
		nullTime(payment.PaidAt),
		payment.UpdatedAt,
		payment.ID,
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

func (r *PaymentRepository) scanOne(row *sql.Row) (*domain.Payment, error) {
	var payment domain.Payment
	var paidAt sql.NullTime

	err := row.Scan(
		&payment.ID,
		&payment.RideID,
		&payment.Amount,
		&payment.Reference,
		&payment.Method,
		&payment.Status,
		&paidAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	if paidAt.Valid {
		payment.PaidAt = paidAt.Time
	}

	return &payment, nil
}
