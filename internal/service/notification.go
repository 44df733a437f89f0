package service

import (
	"context"
	"fmt"
	"log"

	"ridebook/internal/domain"
)

// RecipientRole identifies which party a notification addresses.
type RecipientRole string

const (
	RolePassenger RecipientRole = "passenger"
	RoleDriver    RecipientRole = "driver"
	RoleOperator  RecipientRole = "operator"
)

// NotificationService delivers ride and payment notifications. Delivery is
// fire-and-forget: failures are swallowed and never fail the operation that
// produced the event. The transport here is the application log; a mail or
// push client would slot in behind send without touching the core.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// Dispatch delivers the post-commit events produced by a core operation.
// Callers invoke it only after their transaction has committed.
func (s *NotificationService) Dispatch(ctx context.Context, events ...domain.Event) {
	for _, event := range events {
		switch e := event.(type) {
		case domain.RideBooked:
			s.send(ctx, RolePassenger, e.Ride, "Ride requested. Awaiting driver acceptance.")
			s.send(ctx, RoleDriver, e.Ride, "New ride request assigned to you.")
		case domain.RideStatusChanged:
			msg := fmt.Sprintf("Ride status changed from %s to %s.", e.OldStatus, e.NewStatus)
			s.send(ctx, RolePassenger, e.Ride, msg)
			s.send(ctx, RoleDriver, e.Ride, msg)
		case domain.RideRescheduled:
			s.send(ctx, RolePassenger, e.Ride, fmt.Sprintf("Ride rescheduled to %s.", e.Ride.ScheduledAt.Format("Jan 2, 2006 3:04pm")))
			s.send(ctx, RoleDriver, e.Ride, fmt.Sprintf("Ride rescheduled to %s.", e.Ride.ScheduledAt.Format("Jan 2, 2006 3:04pm")))
		case domain.RideDriverChanged:
			s.send(ctx, RolePassenger, e.Ride, "Driver changed for your ride.")
			s.send(ctx, RoleDriver, e.Ride, "You have been assigned an existing ride.")
		case domain.PaymentSettled:
			s.send(ctx, RolePassenger, e.Ride, fmt.Sprintf("Payment of %.2f settled (%s).", e.Payment.Amount, e.Payment.Method))
			s.send(ctx, RoleDriver, e.Ride, fmt.Sprintf("Payment of %.2f settled (%s).", e.Payment.Amount, e.Payment.Method))
		case domain.PaymentFailed:
			s.send(ctx, RolePassenger, e.Ride, "Payment failed. You can retry the payment.")
		case domain.ReconciliationFlagged:
			s.alertOperator(ctx, e)
		}
	}
}

// send delivers one notification to one party. Errors never propagate.
func (s *NotificationService) send(ctx context.Context, role RecipientRole, ride *domain.Ride, message string) {
	recipient := ride.PassengerID
	if role == RoleDriver {
		recipient = ride.DriverID
	}
	if recipient == "" {
		return
	}
	log.Printf("[NOTIFICATION] role=%s recipient=%s ride=%s message=%q", role, recipient, ride.Reference, message)
}

// alertOperator surfaces a reconciliation conflict on the operator channel.
// This is money already charged against a ride that is no longer valid, so
// it must not disappear into the regular notification stream.
func (s *NotificationService) alertOperator(ctx context.Context, e domain.ReconciliationFlagged) {
	log.Printf("[OPERATOR ALERT] reconciliation conflict: ride=%s reference=%s amount=%.2f reason=%q",
		e.Ride.Reference, e.Payment.Reference, e.Payment.Amount, e.Reason)
}
