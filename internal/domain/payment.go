package domain

import (
	"math"
	"time"
)

// PaymentStatus represents the state of a single payment attempt.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment represents one reconciliation record for a ride. A ride has at
// most one pending payment at a time; a new attempt reuses the pending row
// with a fresh reference rather than inserting a duplicate.
type Payment struct {
	ID        string
	RideID    string
	Amount    float64
	Reference string // unique and immutable once assigned
	Method    PaymentMethod
	Status    PaymentStatus
	PaidAt    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RetiredAt time.Time
}

// Terminal reports whether the payment reached a final state.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}

// ToKobo converts a naira amount to kobo, the minor currency unit the
// gateway deals in.
func ToKobo(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromKobo converts a kobo amount back to naira for storage.
func FromKobo(kobo int64) float64 {
	return float64(kobo) / 100
}
