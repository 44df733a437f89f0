package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

const (
	// maxPendingRides caps how many unaccepted bookings one passenger may
	// hold at once. Enforced by a count inside the insert transaction so
	// two simultaneous bookings cannot both slip under the cap.
	maxPendingRides = 2

	minLocationLength = 3
)

// RideService owns the ride lifecycle state machine.
type RideService struct {
	tx       repository.TxManager
	payments *PaymentService
	notifier *NotificationService
	now      func() time.Time
}

// NewRideService creates a new RideService.
func NewRideService(tx repository.TxManager, payments *PaymentService, notifier *NotificationService) *RideService {
	return &RideService{
		tx:       tx,
		payments: payments,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateRideRequest contains the parameters for booking a ride.
type CreateRideRequest struct {
	PassengerID string
	Pickup      string
	Destination string
	ScheduledAt time.Time
	DriverID    string // optional: empty auto-assigns the first available driver
}

// CreateRide books a ride for a passenger. The fare stays 0 until the
// driver sets it at acceptance; payment method defaults to cash and is
// decided for real only after acceptance.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	var ride *domain.Ride

	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		pending, err := tx.Rides.CountPendingByPassenger(ctx, req.PassengerID)
		if err != nil {
			return err
		}
		if pending >= maxPendingRides {
			return fmt.Errorf("%w: passenger already has %d pending rides", ErrValidation, pending)
		}

		driver, err := s.resolveDriver(ctx, tx, req.DriverID)
		if err != nil {
			return err
		}

		ride = &domain.Ride{
			ID:            uuid.New().String(),
			Reference:     NewRideReference(),
			PassengerID:   req.PassengerID,
			DriverID:      driver.ID,
			Pickup:        req.Pickup,
			Destination:   req.Destination,
			ScheduledAt:   req.ScheduledAt,
			Fare:          0,
			PaymentMethod: domain.PaymentMethodCash,
			PaymentStatus: domain.RidePaymentPending,
			Status:        domain.RideStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		return tx.Rides.Create(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, domain.RideBooked{Ride: ride})

	return ride, nil
}

// resolveDriver picks the driver for a new or edited ride. Eligibility is
// checked inside the caller's transaction, never trusted from the booking
// form.
func (s *RideService) resolveDriver(ctx context.Context, tx *repository.Tx, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		available, err := tx.Drivers.ListAvailable(ctx)
		if err != nil {
			return nil, err
		}
		if len(available) == 0 {
			return nil, ErrNoDriverAvailable
		}
		return available[0], nil
	}

	driver, err := tx.Drivers.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: driver does not exist", ErrNotEligible)
		}
		return nil, err
	}
	if driver.Approval != domain.DriverApprovalApproved || !driver.IsAvailable {
		return nil, fmt.Errorf("%w: selected driver is not approved or not available", ErrNotEligible)
	}
	return driver, nil
}

// SetFareAndAcceptRequest contains the parameters for a driver accepting a ride.
type SetFareAndAcceptRequest struct {
	RideID   string
	DriverID string
	Fare     float64
}

// SetFareAndAccept records the driver's fare and moves the ride to
// accepted. If the ride left pending before this transaction locked the
// row (a concurrent acceptance or cancellation), the caller loses with
// ErrStaleState.
func (s *RideService) SetFareAndAccept(ctx context.Context, req SetFareAndAcceptRequest) (*domain.Ride, error) {
	if req.Fare <= 0 {
		return nil, fmt.Errorf("%w: fare must be positive", ErrValidation)
	}

	var ride *domain.Ride
	var oldStatus domain.RideStatus

	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		ride, err = tx.Rides.GetByIDForUpdate(ctx, req.RideID)
		if err != nil {
			return err
		}
		if ride.DriverID != req.DriverID {
			return fmt.Errorf("%w: ride is not assigned to this driver", ErrNotEligible)
		}
		if ride.Status != domain.RideStatusPending {
			return fmt.Errorf("%w: ride is %s", ErrStaleState, ride.Status)
		}

		oldStatus = ride.Status
		ride.Fare = req.Fare
		ride.Status = domain.RideStatusAccepted
		ride.UpdatedAt = s.now()
		return tx.Rides.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, domain.RideStatusChanged{Ride: ride, OldStatus: oldStatus, NewStatus: ride.Status})

	return ride, nil
}

// Reject lets the assigned driver decline a pending ride. No fare or
// payment side effects.
func (s *RideService) Reject(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	return s.transition(ctx, rideID, driverID, domain.RideStatusPending, domain.RideStatusCancelled)
}

// Start moves an accepted ride to in_progress.
func (s *RideService) Start(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	return s.transition(ctx, rideID, driverID, domain.RideStatusAccepted, domain.RideStatusInProgress)
}

// transition applies a single driver-initiated status change with the ride
// row locked.
func (s *RideService) transition(ctx context.Context, rideID, driverID string, from, to domain.RideStatus) (*domain.Ride, error) {
	var ride *domain.Ride

	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		ride, err = tx.Rides.GetByIDForUpdate(ctx, rideID)
		if err != nil {
			return err
		}
		if ride.DriverID != driverID {
			return fmt.Errorf("%w: ride is not assigned to this driver", ErrNotEligible)
		}
		if ride.Status != from {
			return fmt.Errorf("%w: ride is %s, expected %s", ErrInvalidTransition, ride.Status, from)
		}

		ride.Status = to
		ride.UpdatedAt = s.now()
		return tx.Rides.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, domain.RideStatusChanged{Ride: ride, OldStatus: from, NewStatus: to})

	return ride, nil
}

// CompleteRideRequest contains the parameters for completing a ride.
type CompleteRideRequest struct {
	RideID   string
	DriverID string
	// PaymentMethod optionally finalizes the ride as cash at completion
	// time, settling the payment in the same transaction. Empty keeps the
	// ride's current method.
	PaymentMethod domain.PaymentMethod
}

// Complete finishes an in-progress ride. A ride never leaves in_progress
// with an unsettled fare: cash settles atomically here, and a gateway ride
// must already be paid.
func (s *RideService) Complete(ctx context.Context, req CompleteRideRequest) (*domain.Ride, error) {
	if req.PaymentMethod != "" && req.PaymentMethod != domain.PaymentMethodCash && req.PaymentMethod != domain.PaymentMethodPaystack {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
	}

	var ride *domain.Ride
	var payment *domain.Payment

	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		ride, err = tx.Rides.GetByIDForUpdate(ctx, req.RideID)
		if err != nil {
			return err
		}
		if ride.DriverID != req.DriverID {
			return fmt.Errorf("%w: ride is not assigned to this driver", ErrNotEligible)
		}
		if ride.Status != domain.RideStatusInProgress {
			return fmt.Errorf("%w: ride is %s, expected in_progress", ErrInvalidTransition, ride.Status)
		}

		if ride.Fare > 0 && ride.PaymentStatus != domain.RidePaymentPaid {
			method := req.PaymentMethod
			if method == "" {
				method = ride.PaymentMethod
			}
			if method != domain.PaymentMethodCash {
				return fmt.Errorf("%w: gateway payment not settled", ErrInvalidTransition)
			}
			payment, err = s.payments.settleCash(ctx, tx, ride)
			if err != nil {
				return err
			}
		}

		ride.Status = domain.RideStatusCompleted
		ride.UpdatedAt = s.now()
		return tx.Rides.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	events := []domain.Event{domain.RideStatusChanged{Ride: ride, OldStatus: domain.RideStatusInProgress, NewStatus: domain.RideStatusCompleted}}
	if payment != nil {
		events = append(events, domain.PaymentSettled{Payment: payment, Ride: ride})
	}
	s.notifier.Dispatch(ctx, events...)

	return ride, nil
}

// Cancel lets the passenger abandon a ride that has not started and has no
// settled payment.
func (s *RideService) Cancel(ctx context.Context, rideID, passengerID string) (*domain.Ride, error) {
	var ride *domain.Ride
	var oldStatus domain.RideStatus

	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		ride, err = tx.Rides.GetByIDForUpdate(ctx, rideID)
		if err != nil {
			return err
		}
		if ride.PassengerID != passengerID {
			return fmt.Errorf("%w: ride does not belong to this passenger", ErrNotEligible)
		}
		if ride.Status != domain.RideStatusPending && ride.Status != domain.RideStatusAccepted {
			return fmt.Errorf("%w: cannot cancel a %s ride", ErrInvalidTransition, ride.Status)
		}
		if ride.PaymentStatus == domain.RidePaymentPaid {
			return fmt.Errorf("%w: cannot cancel a paid ride", ErrInvalidTransition)
		}

		oldStatus = ride.Status
		ride.Status = domain.RideStatusCancelled
		ride.UpdatedAt = s.now()
		return tx.Rides.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, domain.RideStatusChanged{Ride: ride, OldStatus: oldStatus, NewStatus: domain.RideStatusCancelled})

	return ride, nil
}

// EditDetailsRequest contains the optional edits for a pending ride. Nil
// fields are left unchanged.
type EditDetailsRequest struct {
	RideID      string
	PassengerID string
	Pickup      *string
	Destination *string
	ScheduledAt *time.Time
	DriverID    *string
}

// EditDetails updates a pending ride's pickup, destination, schedule, or
// driver. Driver reassignment re-validates eligibility at edit time.
func (s *RideService) EditDetails(ctx context.Context, req EditDetailsRequest) (*domain.Ride, error) {
	if req.Pickup != nil && len(*req.Pickup) < minLocationLength {
		return nil, fmt.Errorf("%w: pickup too short", ErrValidation)
	}
	if req.Destination != nil && len(*req.Destination) < minLocationLength {
		return nil, fmt.Errorf("%w: destination too short", ErrValidation)
	}
	if req.ScheduledAt != nil && req.ScheduledAt.Before(s.now()) {
		return nil, fmt.Errorf("%w: schedule must be now or later", ErrValidation)
	}

	var ride *domain.Ride
	var events []domain.Event

	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		ride, err = tx.Rides.GetByIDForUpdate(ctx, req.RideID)
		if err != nil {
			return err
		}
		if ride.PassengerID != req.PassengerID {
			return fmt.Errorf("%w: ride does not belong to this passenger", ErrNotEligible)
		}
		if ride.Status != domain.RideStatusPending {
			return fmt.Errorf("%w: only pending rides can be edited", ErrInvalidTransition)
		}

		if req.Pickup != nil {
			ride.Pickup = *req.Pickup
		}
		if req.Destination != nil {
			ride.Destination = *req.Destination
		}
		if req.ScheduledAt != nil && !req.ScheduledAt.Equal(ride.ScheduledAt) {
			events = append(events, domain.RideRescheduled{Ride: ride, OldScheduledAt: ride.ScheduledAt})
			ride.ScheduledAt = *req.ScheduledAt
		}
		if req.DriverID != nil && *req.DriverID != ride.DriverID {
			driver, err := s.resolveDriver(ctx, tx, *req.DriverID)
			if err != nil {
				return err
			}
			events = append(events, domain.RideDriverChanged{Ride: ride, OldDriverID: ride.DriverID})
			ride.DriverID = driver.ID
		}

		ride.UpdatedAt = s.now()
		return tx.Rides.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, events...)

	return ride, nil
}

// GetRide retrieves a ride by ID.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, fmt.Errorf("%w: ride id required", ErrValidation)
	}

	var ride *domain.Ride
	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		ride, err = tx.Rides.GetByID(ctx, rideID)
		return err
	})
	return ride, err
}

// ListByPassenger retrieves a passenger's rides, newest first.
func (s *RideService) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Ride, error) {
	var rides []*domain.Ride
	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		rides, err = tx.Rides.ListByPassenger(ctx, passengerID)
		return err
	})
	return rides, err
}

// ListByDriver retrieves a driver's rides, newest first.
func (s *RideService) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	var rides []*domain.Ride
	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		rides, err = tx.Rides.ListByDriver(ctx, driverID)
		return err
	})
	return rides, err
}

func (s *RideService) validateCreateRequest(req CreateRideRequest) error {
	if req.PassengerID == "" {
		return fmt.Errorf("%w: passenger id required", ErrValidation)
	}
	if len(req.Pickup) < minLocationLength {
		return fmt.Errorf("%w: pickup too short", ErrValidation)
	}
	if len(req.Destination) < minLocationLength {
		return fmt.Errorf("%w: destination too short", ErrValidation)
	}
	if req.ScheduledAt.IsZero() {
		return fmt.Errorf("%w: scheduled time required", ErrValidation)
	}
	if req.ScheduledAt.Before(s.now()) {
		return fmt.Errorf("%w: schedule must be now or later", ErrValidation)
	}
	return nil
}
