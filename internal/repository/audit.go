package repository

import (
	"context"

	"ridebook/internal/domain"
)

// AuditLogRepository defines the persistence operations for audit logs.
type AuditLogRepository interface {
	// Create persists an audit entry.
	Create(ctx context.Context, entry *domain.AuditLog) error
}
