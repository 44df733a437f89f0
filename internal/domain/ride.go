package domain

import "time"

// RideStatus represents the lifecycle status of a ride.
type RideStatus string

const (
	RideStatusPending    RideStatus = "pending"
	RideStatusAccepted   RideStatus = "accepted"
	RideStatusInProgress RideStatus = "in_progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

// PaymentMethod represents how a ride is settled.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodPaystack PaymentMethod = "paystack"
)

// RidePaymentStatus represents the settlement state carried on the ride
// itself. It is a separate vocabulary from Payment.Status: a ride is "paid"
// once its payment row reached "success".
type RidePaymentStatus string

const (
	RidePaymentPending RidePaymentStatus = "pending"
	RidePaymentPaid    RidePaymentStatus = "paid"
	RidePaymentFailed  RidePaymentStatus = "failed"
)

// Ride represents a single trip engagement between a passenger and a driver.
type Ride struct {
	ID            string
	Reference     string // human-readable, unique, immutable after creation
	PassengerID   string
	DriverID      string
	Pickup        string
	Destination   string
	ScheduledAt   time.Time
	Fare          float64 // 0 until the driver sets it at acceptance
	PaymentMethod PaymentMethod
	PaymentStatus RidePaymentStatus
	Status        RideStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	RetiredAt     time.Time // zero while the ride is active
}

// Terminal reports whether the ride reached a final lifecycle state.
func (r *Ride) Terminal() bool {
	return r.Status == RideStatusCompleted || r.Status == RideStatusCancelled
}
