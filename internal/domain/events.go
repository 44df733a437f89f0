package domain

import "time"

// Event is a post-commit fact produced by a core operation. Events are
// collected inside the transaction and dispatched to the notification
// collaborator only after the transaction commits, so a rollback never
// produces a stray notification.
type Event interface {
	EventName() string
}

// RideBooked is emitted when a passenger creates a ride.
type RideBooked struct {
	Ride *Ride
}

func (RideBooked) EventName() string { return "ride.booked" }

// RideStatusChanged is emitted on every lifecycle transition.
type RideStatusChanged struct {
	Ride      *Ride
	OldStatus RideStatus
	NewStatus RideStatus
}

func (RideStatusChanged) EventName() string { return "ride.status_changed" }

// RideRescheduled is emitted when the passenger edits the scheduled time.
type RideRescheduled struct {
	Ride           *Ride
	OldScheduledAt time.Time
}

func (RideRescheduled) EventName() string { return "ride.rescheduled" }

// RideDriverChanged is emitted when the passenger reassigns the driver.
type RideDriverChanged struct {
	Ride        *Ride
	OldDriverID string
}

func (RideDriverChanged) EventName() string { return "ride.driver_changed" }

// PaymentSettled is emitted when a payment reaches success.
type PaymentSettled struct {
	Payment *Payment
	Ride    *Ride
}

func (PaymentSettled) EventName() string { return "payment.settled" }

// PaymentFailed is emitted when a payment attempt fails.
type PaymentFailed struct {
	Payment *Payment
	Ride    *Ride
}

func (PaymentFailed) EventName() string { return "payment.failed" }

// ReconciliationFlagged is emitted when a verified gateway payment cannot be
// applied because the ride is no longer valid. It must reach an operator.
type ReconciliationFlagged struct {
	Payment *Payment
	Ride    *Ride
	Reason  string
}

func (ReconciliationFlagged) EventName() string { return "payment.reconciliation_flagged" }
