package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

// AuditLogger writes best-effort audit entries. A failed write is logged
// and swallowed; the audit trail never breaks a core flow.
type AuditLogger struct {
	repo repository.AuditLogRepository
	now  func() time.Time
}

// NewAuditLogger creates a new AuditLogger.
func NewAuditLogger(repo repository.AuditLogRepository) *AuditLogger {
	return &AuditLogger{repo: repo, now: time.Now}
}

// Log records an action outside any transaction.
func (a *AuditLogger) Log(ctx context.Context, actorID, actorRole, action, entityType, entityID string, metadata map[string]any) {
	a.write(ctx, a.repo, actorID, actorRole, action, entityType, entityID, metadata)
}

// LogInTx records an action using the transaction's repository, so the
// entry commits atomically with the change it describes. Failures are
// still swallowed.
func (a *AuditLogger) LogInTx(ctx context.Context, tx *repository.Tx, actorID, actorRole, action, entityType, entityID string, metadata map[string]any) {
	a.write(ctx, tx.AuditLogs, actorID, actorRole, action, entityType, entityID, metadata)
}

func (a *AuditLogger) write(ctx context.Context, repo repository.AuditLogRepository, actorID, actorRole, action, entityType, entityID string, metadata map[string]any) {
	entry := &domain.AuditLog{
		ID:         uuid.New().String(),
		ActorID:    actorID,
		ActorRole:  actorRole,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   sanitizeMetadata(metadata),
		CreatedAt:  a.now(),
	}

	if err := repo.Create(ctx, entry); err != nil {
		log.Printf("[AUDIT] failed to record %s on %s/%s: %v", action, entityType, entityID, err)
	}
}

// blockedMetadataKeys are never written to the audit trail.
var blockedMetadataKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"api_key":       {},
	"secret":        {},
	"authorization": {},
	"cookie":        {},
}

// sanitizeMetadata drops secret-bearing keys and oversized values.
func sanitizeMetadata(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return nil
	}

	clean := make(map[string]any, len(metadata))
	for key, value := range metadata {
		if _, blocked := blockedMetadataKeys[strings.ToLower(key)]; blocked {
			continue
		}
		if s, ok := value.(string); ok && len(s) > 10000 {
			continue
		}
		clean[key] = value
	}
	return clean
}
