package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ridebook/internal/domain"
	"ridebook/internal/redis"
	"ridebook/internal/repository"
)

// vehicleEditLock is how long a driver must wait between vehicle
// descriptor changes.
const vehicleEditLock = 30 * 24 * time.Hour

// DriverService owns driver registration, approval, and the availability
// gate that decides who can be booked.
type DriverService struct {
	tx    repository.TxManager
	audit *AuditLogger
	cache redis.DriverCacheInterface
	now   func() time.Time
}

// NewDriverService creates a new DriverService.
func NewDriverService(tx repository.TxManager, audit *AuditLogger, cache redis.DriverCacheInterface) *DriverService {
	return &DriverService{
		tx:    tx,
		audit: audit,
		cache: cache,
		now:   time.Now,
	}
}

// RegisterDriverRequest contains the parameters for registering a driver.
type RegisterDriverRequest struct {
	Name             string
	Phone            string
	VehicleName      string
	PlateNumber      string
	VehiclePhotoPath string
}

// Register creates a driver in the pending approval state. Vehicle details
// are optional at registration and can be supplied later; the driver
// cannot go available without them.
func (s *DriverService) Register(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if req.Phone == "" {
		return nil, fmt.Errorf("%w: phone required", ErrValidation)
	}

	now := s.now()
	driver := &domain.Driver{
		ID:               uuid.New().String(),
		Name:             req.Name,
		Phone:            req.Phone,
		VehicleName:      req.VehicleName,
		PlateNumber:      req.PlateNumber,
		VehiclePhotoPath: req.VehiclePhotoPath,
		Approval:         domain.DriverApprovalPending,
		IsAvailable:      false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if driver.HasVehicle() {
		driver.VehicleUpdatedAt = now
	}

	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		return tx.Drivers.Create(ctx, driver)
	})
	if err != nil {
		return nil, err
	}

	return driver, nil
}

// SetAvailability sets whether the driver accepts new bookings. Going
// available requires approval and a complete vehicle descriptor; going
// unavailable is always allowed.
func (s *DriverService) SetAvailability(ctx context.Context, driverID string, available bool) (*domain.Driver, error) {
	var driver *domain.Driver

	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		driver, err = tx.Drivers.GetByIDForUpdate(ctx, driverID)
		if err != nil {
			return err
		}

		if available {
			if driver.Approval != domain.DriverApprovalApproved {
				return fmt.Errorf("%w: driver is not approved", ErrNotEligible)
			}
			if !driver.HasVehicle() {
				return fmt.Errorf("%w: vehicle details are incomplete", ErrNotEligible)
			}
		}

		driver.IsAvailable = available
		driver.UpdatedAt = s.now()
		if err := tx.Drivers.Update(ctx, driver); err != nil {
			return err
		}

		s.audit.LogInTx(ctx, tx, driver.ID, "driver", "driver.availability", "driver", driver.ID, map[string]any{
			"available": available,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)

	return driver, nil
}

// UpdateVehicleRequest contains the new vehicle descriptor.
type UpdateVehicleRequest struct {
	DriverID         string
	VehicleName      string
	PlateNumber      string
	VehiclePhotoPath string
}

// UpdateVehicle replaces the driver's vehicle descriptor. Edits are locked
// for thirty days after the last change, and any change puts the driver
// back through approval and off the road until an admin signs off again.
func (s *DriverService) UpdateVehicle(ctx context.Context, req UpdateVehicleRequest) (*domain.Driver, error) {
	if req.VehicleName == "" || req.PlateNumber == "" {
		return nil, fmt.Errorf("%w: vehicle name and plate number required", ErrValidation)
	}

	var driver *domain.Driver

	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		driver, err = tx.Drivers.GetByIDForUpdate(ctx, req.DriverID)
		if err != nil {
			return err
		}

		now := s.now()
		if !driver.VehicleUpdatedAt.IsZero() {
			unlockAt := driver.VehicleUpdatedAt.Add(vehicleEditLock)
			if now.Before(unlockAt) {
				return fmt.Errorf("%w: vehicle can be edited again at %s", ErrVehicleLocked, unlockAt.Format(time.RFC3339))
			}
		}

		driver.VehicleName = req.VehicleName
		driver.PlateNumber = req.PlateNumber
		if req.VehiclePhotoPath != "" {
			driver.VehiclePhotoPath = req.VehiclePhotoPath
		}
		driver.VehicleUpdatedAt = now
		driver.Approval = domain.DriverApprovalPending
		driver.IsAvailable = false
		driver.UpdatedAt = now
		if err := tx.Drivers.Update(ctx, driver); err != nil {
			return err
		}

		s.audit.LogInTx(ctx, tx, driver.ID, "driver", "driver.vehicle_updated", "driver", driver.ID, map[string]any{
			"vehicle_name": req.VehicleName,
			"plate_number": req.PlateNumber,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)

	return driver, nil
}

// SetApproval records an admin's approval decision. Revoking approval also
// takes the driver off the road so an unapproved driver can never be
// bookable.
func (s *DriverService) SetApproval(ctx context.Context, driverID, adminID string, approval domain.DriverApproval) (*domain.Driver, error) {
	if approval != domain.DriverApprovalApproved && approval != domain.DriverApprovalPending {
		return nil, fmt.Errorf("%w: unknown approval state %q", ErrValidation, approval)
	}

	var driver *domain.Driver

	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		driver, err = tx.Drivers.GetByIDForUpdate(ctx, driverID)
		if err != nil {
			return err
		}

		driver.Approval = approval
		if approval != domain.DriverApprovalApproved {
			driver.IsAvailable = false
		}
		driver.UpdatedAt = s.now()
		if err := tx.Drivers.Update(ctx, driver); err != nil {
			return err
		}

		s.audit.LogInTx(ctx, tx, adminID, "admin", "driver.approval", "driver", driver.ID, map[string]any{
			"approval": string(approval),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)

	return driver, nil
}

// GetDriver retrieves a driver by ID.
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	var driver *domain.Driver
	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		driver, err = tx.Drivers.GetByID(ctx, driverID)
		return err
	})
	return driver, err
}

// ListAvailable returns the drivers currently open for booking, ordered by
// vehicle name. Served from cache when warm; booking itself never trusts
// this list and re-checks eligibility in its own transaction.
func (s *DriverService) ListAvailable(ctx context.Context) ([]*domain.Driver, error) {
	if s.cache != nil {
		cached, err := s.cache.GetAvailable(ctx)
		if err != nil {
			log.Printf("[CACHE] read available drivers: %v", err)
		} else if cached != nil {
			drivers := make([]*domain.Driver, 0, len(cached))
			for _, c := range cached {
				drivers = append(drivers, &domain.Driver{
					ID:          c.ID,
					Name:        c.Name,
					VehicleName: c.VehicleName,
					PlateNumber: c.PlateNumber,
					Approval:    domain.DriverApprovalApproved,
					IsAvailable: true,
				})
			}
			return drivers, nil
		}
	}

	var drivers []*domain.Driver
	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		drivers, err = tx.Drivers.ListAvailable(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached := make([]redis.CachedDriver, 0, len(drivers))
		for _, d := range drivers {
			cached = append(cached, redis.CachedDriver{
				ID:          d.ID,
				Name:        d.Name,
				VehicleName: d.VehicleName,
				PlateNumber: d.PlateNumber,
			})
		}
		if err := s.cache.SetAvailable(ctx, cached); err != nil {
			log.Printf("[CACHE] write available drivers: %v", err)
		}
	}

	return drivers, nil
}

func (s *DriverService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAvailable(ctx); err != nil {
		log.Printf("[CACHE] invalidate available drivers: %v", err)
	}
}
