package service

import (
	"strings"

	"github.com/google/uuid"
)

// NewRideReference generates the human-readable ride reference shown to
// passengers and drivers. Generated once at creation, immutable after.
func NewRideReference() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "RB-" + raw[:10]
}

// NewPaymentReference generates a globally unique reference for one gateway
// payment attempt. Every attempt gets a fresh reference; references are
// never reused across retries, even for the same ride.
func NewPaymentReference() string {
	return "PS-" + uuid.New().String()
}

// NewCashReference generates the reference assigned to a cash settlement so
// every settled payment row carries a unique reference.
func NewCashReference() string {
	return "CS-" + uuid.New().String()
}
