package repository

import "context"

// Tx bundles transaction-scoped repositories. Every repository in a Tx
// operates on the same underlying database transaction, so reads taken with
// the ForUpdate variants hold their row locks until the transaction ends.
type Tx struct {
	Rides     RideRepository
	Drivers   DriverRepository
	Payments  PaymentRepository
	Ratings   RatingRepository
	AuditLogs AuditLogRepository
}

// TxManager executes a function within a single database transaction.
// If fn returns an error the transaction is rolled back and the error is
// returned unchanged; otherwise the transaction is committed. Contention or
// timeout at commit surfaces as ErrTransient.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error
}
