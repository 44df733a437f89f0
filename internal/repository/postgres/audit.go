package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"ridebook/internal/domain"
)

// AuditLogRepository is a PostgreSQL implementation of repository.AuditLogRepository.
type AuditLogRepository struct {
	q Querier
}

// NewAuditLogRepository creates a new PostgreSQL audit log repository.
func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{q: db}
}

// NewAuditLogRepositoryWithTx creates an audit log repository using a transaction.
func NewAuditLogRepositoryWithTx(tx *sql.Tx) *AuditLogRepository {
	return &AuditLogRepository{q: tx}
}

// Create persists an audit entry.
func (r *AuditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	var metadata []byte
	if len(entry.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_logs (id, actor_id, actor_role, action, entity_type, entity_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		entry.ID,
		nullString(entry.ActorID),
		nullString(entry.ActorRole),
		entry.Action,
		nullString(entry.EntityType),
		nullString(entry.EntityID),
		metadata,
		entry.CreatedAt,
	)

	return mapError(err)
}
