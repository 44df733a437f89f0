package postgres

import (
	"context"
	"database/sql"

	"ridebook/internal/repository"
)

// TxManager runs functions inside database transactions with transaction-
// scoped repositories bound to the same *sql.Tx.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a TxManager bound to the given database.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

var _ repository.TxManager = (*TxManager)(nil)

// WithinTx executes fn within a read-committed transaction. Row locks taken
// by the ForUpdate repository variants are held until commit or rollback. A
// panic inside fn rolls the transaction back before re-panicking.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *repository.Tx) error) error {
	sqlTx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return mapError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	tx := &repository.Tx{
		Rides:     NewRideRepositoryWithTx(sqlTx),
		Drivers:   NewDriverRepositoryWithTx(sqlTx),
		Payments:  NewPaymentRepositoryWithTx(sqlTx),
		Ratings:   NewRatingRepositoryWithTx(sqlTx),
		AuditLogs: NewAuditLogRepositoryWithTx(sqlTx),
	}

	if err := fn(ctx, tx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return mapError(err)
	}

	return nil
}
