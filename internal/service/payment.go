package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ridebook/internal/domain"
	"ridebook/internal/gateway"
	"ridebook/internal/redis"
	"ridebook/internal/repository"
)

// referenceLockTTL bounds how long a callback holds the per-reference
// Redis lock. Long enough to cover a verify round trip plus the settle
// transaction.
const referenceLockTTL = 30 * time.Second

// PaymentService owns payment attempts and their reconciliation against
// the external gateway.
type PaymentService struct {
	tx          repository.TxManager
	gw          gateway.Client
	notifier    *NotificationService
	audit       *AuditLogger
	locks       redis.ReferenceLockInterface
	callbackURL string
	now         func() time.Time
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(tx repository.TxManager, gw gateway.Client, notifier *NotificationService, audit *AuditLogger, locks redis.ReferenceLockInterface, callbackURL string) *PaymentService {
	return &PaymentService{
		tx:          tx,
		gw:          gw,
		notifier:    notifier,
		audit:       audit,
		locks:       locks,
		callbackURL: callbackURL,
		now:         time.Now,
	}
}

// StartGatewayPaymentRequest contains the parameters for initiating an
// online payment.
type StartGatewayPaymentRequest struct {
	RideID      string
	PassengerID string
	Email       string
}

// StartGatewayPaymentResult carries the pending payment and the URL the
// passenger must be redirected to.
type StartGatewayPaymentResult struct {
	Payment          *domain.Payment
	AuthorizationURL string
}

// StartGatewayPayment opens (or retries) an online payment for a ride. The
// pending payment row is committed before the gateway is called, so a
// gateway outage leaves a retryable pending attempt rather than a settled
// charge with no record. Each retry gets a fresh reference; the gateway
// rejects reused ones.
func (s *PaymentService) StartGatewayPayment(ctx context.Context, req StartGatewayPaymentRequest) (*StartGatewayPaymentResult, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("%w: payer email required", ErrValidation)
	}

	var payment *domain.Payment

	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		ride, err := tx.Rides.GetByIDForUpdate(ctx, req.RideID)
		if err != nil {
			return err
		}
		if ride.PassengerID != req.PassengerID {
			return fmt.Errorf("%w: ride does not belong to this passenger", ErrNotEligible)
		}
		if ride.Status == domain.RideStatusPending || ride.Status == domain.RideStatusCancelled {
			return fmt.Errorf("%w: ride is %s", ErrInvalidTransition, ride.Status)
		}
		if ride.Fare <= 0 {
			return fmt.Errorf("%w: ride has no fare yet", ErrValidation)
		}
		if ride.PaymentStatus == domain.RidePaymentPaid {
			return fmt.Errorf("%w: ride is already paid", ErrInvalidTransition)
		}

		now := s.now()
		reference := NewPaymentReference()

		// Reuse the pending row so a ride never accumulates open
		// attempts; only the reference changes between retries.
		payment, err = tx.Payments.GetPendingByRideForUpdate(ctx, ride.ID)
		if err != nil {
			return err
		}
		if payment == nil {
			payment = &domain.Payment{
				ID:        uuid.New().String(),
				RideID:    ride.ID,
				Amount:    ride.Fare,
				Reference: reference,
				Method:    domain.PaymentMethodPaystack,
				Status:    domain.PaymentStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Payments.Create(ctx, payment); err != nil {
				return err
			}
		} else {
			payment.Amount = ride.Fare
			payment.Reference = reference
			payment.Method = domain.PaymentMethodPaystack
			payment.UpdatedAt = now
			if err := tx.Payments.Update(ctx, payment); err != nil {
				return err
			}
		}

		ride.PaymentMethod = domain.PaymentMethodPaystack
		ride.PaymentStatus = domain.RidePaymentPending
		ride.UpdatedAt = now
		return tx.Rides.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	authURL, err := s.gw.Initialize(ctx, gateway.InitializeRequest{
		AmountKobo:  domain.ToKobo(payment.Amount),
		Email:       req.Email,
		Reference:   payment.Reference,
		CallbackURL: s.callbackURL,
		Metadata: map[string]any{
			"ride_id": payment.RideID,
		},
	})
	if err != nil {
		// The pending row stays behind for a retry.
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	return &StartGatewayPaymentResult{Payment: payment, AuthorizationURL: authURL}, nil
}

// ConfirmGatewayPayment settles a payment after the gateway callback. It
// verifies the reference against the gateway, never trusting the redirect
// parameters, and is idempotent: repeated callbacks for a settled
// reference return the stored outcome.
func (s *PaymentService) ConfirmGatewayPayment(ctx context.Context, reference string) (*domain.Payment, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: reference required", ErrValidation)
	}

	// Short-circuit duplicate deliveries before hitting the gateway. A
	// failed acquire means another callback for the same reference is in
	// flight; the row lock below still serializes whoever gets through.
	if s.locks != nil {
		acquired, err := s.locks.AcquireReferenceLock(ctx, reference, referenceLockTTL)
		if err != nil {
			log.Printf("[PAYMENT] reference lock unavailable for %s: %v", reference, err)
		} else if acquired {
			defer func() {
				if err := s.locks.ReleaseReferenceLock(context.WithoutCancel(ctx), reference); err != nil {
					log.Printf("[PAYMENT] release reference lock %s: %v", reference, err)
				}
			}()
		}
	}

	payment, err := s.readPayment(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment.Terminal() {
		return payment, nil
	}

	result, err := s.gw.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	var events []domain.Event
	var confirmErr error

	err = transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		events = nil
		confirmErr = nil

		var err error
		payment, err = tx.Payments.GetByReferenceForUpdate(ctx, reference)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUnknownReference
			}
			return err
		}
		if payment.Terminal() {
			return nil
		}

		ride, err := tx.Rides.GetByIDForUpdate(ctx, payment.RideID)
		if err != nil {
			return err
		}

		now := s.now()

		if result.Success && ride.Status == domain.RideStatusCancelled {
			// Money arrived for a ride that no longer exists as far as
			// the passenger is concerned. Leave the payment pending for
			// a human to refund; settling it would hide the conflict.
			s.audit.LogInTx(ctx, tx, "system", "system", "payment.reconciliation_conflict", "payment", payment.ID, map[string]any{
				"reference":   reference,
				"ride_id":     ride.ID,
				"amount_kobo": result.AmountKobo,
			})
			events = append(events, domain.ReconciliationFlagged{
				Payment: payment,
				Ride:    ride,
				Reason:  "gateway settled a cancelled ride",
			})
			confirmErr = fmt.Errorf("%w: gateway settled cancelled ride %s", ErrReconciliationConflict, ride.ID)
			return nil
		}

		switch {
		case result.Success && result.AmountKobo == domain.ToKobo(payment.Amount):
			payment.Status = domain.PaymentStatusSuccess
			payment.PaidAt = now
			ride.PaymentStatus = domain.RidePaymentPaid
			events = append(events, domain.PaymentSettled{Payment: payment, Ride: ride})

		case result.Success:
			// Charged amount disagrees with the fare on record. Fail the
			// attempt and flag it rather than accepting partial money.
			payment.Status = domain.PaymentStatusFailed
			ride.PaymentStatus = domain.RidePaymentFailed
			s.audit.LogInTx(ctx, tx, "system", "system", "payment.amount_mismatch", "payment", payment.ID, map[string]any{
				"reference":     reference,
				"expected_kobo": domain.ToKobo(payment.Amount),
				"actual_kobo":   result.AmountKobo,
			})
			events = append(events, domain.PaymentFailed{Payment: payment, Ride: ride})

		default:
			payment.Status = domain.PaymentStatusFailed
			ride.PaymentStatus = domain.RidePaymentFailed
			events = append(events, domain.PaymentFailed{Payment: payment, Ride: ride})
		}

		payment.UpdatedAt = now
		if err := tx.Payments.Update(ctx, payment); err != nil {
			return err
		}
		ride.UpdatedAt = now
		return tx.Rides.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, events...)

	if confirmErr != nil {
		return payment, confirmErr
	}
	return payment, nil
}

// ConfirmCashPayment records that the driver collected the fare in cash.
// Idempotent: confirming an already-paid ride returns the settled payment
// unchanged.
func (s *PaymentService) ConfirmCashPayment(ctx context.Context, rideID, driverID string) (*domain.Payment, error) {
	var payment *domain.Payment
	var events []domain.Event

	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		events = nil

		ride, err := tx.Rides.GetByIDForUpdate(ctx, rideID)
		if err != nil {
			return err
		}
		if ride.DriverID != driverID {
			return fmt.Errorf("%w: ride is not assigned to this driver", ErrNotEligible)
		}
		switch ride.Status {
		case domain.RideStatusAccepted, domain.RideStatusInProgress, domain.RideStatusCompleted:
		default:
			return fmt.Errorf("%w: ride is %s", ErrInvalidTransition, ride.Status)
		}
		if ride.Fare <= 0 {
			return fmt.Errorf("%w: ride has no fare yet", ErrValidation)
		}

		if ride.PaymentStatus == domain.RidePaymentPaid {
			payments, err := tx.Payments.ListByRide(ctx, ride.ID)
			if err != nil {
				return err
			}
			for _, p := range payments {
				if p.Status == domain.PaymentStatusSuccess {
					payment = p
					return nil
				}
			}
			return nil
		}

		payment, err = s.settleCash(ctx, tx, ride)
		if err != nil {
			return err
		}
		events = append(events, domain.PaymentSettled{Payment: payment, Ride: ride})

		ride.UpdatedAt = s.now()
		return tx.Rides.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, events...)

	return payment, nil
}

// settleCash marks a ride's fare as collected in cash inside the caller's
// transaction. An open gateway attempt is converted rather than left
// dangling. The caller persists the ride row.
func (s *PaymentService) settleCash(ctx context.Context, tx *repository.Tx, ride *domain.Ride) (*domain.Payment, error) {
	now := s.now()

	payment, err := tx.Payments.GetPendingByRideForUpdate(ctx, ride.ID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		payment = &domain.Payment{
			ID:        uuid.New().String(),
			RideID:    ride.ID,
			Amount:    ride.Fare,
			Reference: NewCashReference(),
			Method:    domain.PaymentMethodCash,
			Status:    domain.PaymentStatusSuccess,
			PaidAt:    now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Payments.Create(ctx, payment); err != nil {
			return nil, err
		}
	} else {
		payment.Amount = ride.Fare
		payment.Method = domain.PaymentMethodCash
		payment.Status = domain.PaymentStatusSuccess
		payment.PaidAt = now
		payment.UpdatedAt = now
		if err := tx.Payments.Update(ctx, payment); err != nil {
			return nil, err
		}
	}

	ride.PaymentMethod = domain.PaymentMethodCash
	ride.PaymentStatus = domain.RidePaymentPaid
	return payment, nil
}

// ListByRide retrieves every payment attempt recorded for a ride, newest
// first.
func (s *PaymentService) ListByRide(ctx context.Context, rideID string) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		if _, err := tx.Rides.GetByID(ctx, rideID); err != nil {
			return err
		}
		var err error
		payments, err = tx.Payments.ListByRide(ctx, rideID)
		return err
	})
	return payments, err
}

func (s *PaymentService) readPayment(ctx context.Context, reference string) (*domain.Payment, error) {
	var payment *domain.Payment
	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		payment, err = tx.Payments.GetByReference(ctx, reference)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: no payment for reference %s", ErrUnknownReference, reference)
		}
		return nil, err
	}
	return payment, nil
}
