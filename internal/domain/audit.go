package domain

import "time"

// AuditLog records an administrative or money-relevant action for later
// review. Writes are best-effort and never block a core operation.
type AuditLog struct {
	ID         string
	ActorID    string
	ActorRole  string
	Action     string // machine-readable key, e.g. "driver.availability.toggled"
	EntityType string
	EntityID   string
	Metadata   map[string]any
	CreatedAt  time.Time
}
