package domain

import "time"

// Rating represents passenger feedback on a completed ride. At most one
// rating exists per ride and it is immutable once created.
type Rating struct {
	ID          string
	RideID      string
	PassengerID string
	DriverID    string
	Score       int // 1-5
	Comment     string
	CreatedAt   time.Time
	RetiredAt   time.Time
}
