package postgres

import (
	"context"
	"database/sql"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

const driverColumns = `id, name, phone, COALESCE(vehicle_name, ''), COALESCE(plate_number, ''), COALESCE(vehicle_photo_path, ''), status, is_available, vehicle_updated_at, created_at, updated_at`

// Create persists a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (id, name, phone, vehicle_name, plate_number, vehicle_photo_path, status, is_available, vehicle_updated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.Name,
		driver.Phone,
		nullString(driver.VehicleName),
		nullString(driver.PlateNumber),
		nullString(driver.VehiclePhotoPath),
		driver.Approval,
		driver.IsAvailable,
		nullTime(driver.VehicleUpdatedAt),
		driver.CreatedAt,
		driver.UpdatedAt,
	)

	return mapError(err)
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1 AND retired_at IS NULL`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a driver by ID with a row lock held until the
// surrounding transaction ends.
func (r *DriverRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1 AND retired_at IS NULL FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// ListAvailable retrieves approved, available drivers ordered by vehicle
// name. The order is the auto-assignment tie-break: no load balancing.
func (r *DriverRepository) ListAvailable(ctx context.Context) ([]*domain.Driver, error) {
	query := `
		SELECT ` + driverColumns + `
		FROM drivers
		WHERE status = $1 AND is_available = TRUE AND retired_at IS NULL
		ORDER BY vehicle_name
	`

	rows, err := r.q.QueryContext(ctx, query, domain.DriverApprovalApproved)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		var driver domain.Driver
		var vehicleUpdatedAt sql.NullTime
		if err := rows.Scan(
			&driver.ID,
			&driver.Name,
			&driver.Phone,
			&driver.VehicleName,
			&driver.PlateNumber,
			&driver.VehiclePhotoPath,
			&driver.Approval,
			&driver.IsAvailable,
			&vehicleUpdatedAt,
			&driver.CreatedAt,
			&driver.UpdatedAt,
		); err != nil {
			return nil, mapError(err)
		}
		if vehicleUpdatedAt.Valid {
			driver.VehicleUpdatedAt = vehicleUpdatedAt.Time
		}
		drivers = append(drivers, &driver)
	}
	return drivers, rows.Err()
}

// Update persists changes to an existing driver.
func (r *DriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	query := `
		UPDATE drivers
		SET name = $1, phone = $2, vehicle_name = $3, plate_number = $4, vehicle_photo_path = $5,
		    status = $6, is_available = $7, vehicle_updated_at = $8, updated_at = $9
		WHERE id = $10 AND retired_at IS NULL
	`

	result, err := r.q.ExecContext(ctx, query,
		driver.Name,
		driver.Phone,
		nullString(driver.VehicleName),
		nullString(driver.PlateNumber),
		nullString(driver.VehiclePhotoPath),
		driver.Approval,
		driver.IsAvailable,
		nullTime(driver.VehicleUpdatedAt),
		driver.UpdatedAt,
		driver.ID,
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

func (r *DriverRepository) scanOne(row *sql.Row) (*domain.Driver, error) {
	var driver domain.Driver
	var vehicleUpdatedAt sql.NullTime

	err := row.Scan(
		&driver.ID,
		&driver.Name,
		&driver.Phone,
		&driver.VehicleName,
		&driver.PlateNumber,
		&driver.VehiclePhotoPath,
		&driver.Approval,
		&driver.IsAvailable,
		&vehicleUpdatedAt,
		&driver.CreatedAt,
		&driver.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	if vehicleUpdatedAt.Valid {
		driver.VehicleUpdatedAt = vehicleUpdatedAt.Time
	}

	return &driver, nil
}
