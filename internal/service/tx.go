package service

import (
	"context"
	"errors"
	"fmt"

	"ridebook/internal/repository"
)

// transact runs fn inside a transaction and folds store-level contention
// into ErrTransient so callers deal with one error vocabulary.
func transact(ctx context.Context, tm repository.TxManager, fn func(context.Context, *repository.Tx) error) error {
	err := tm.WithinTx(ctx, fn)
	if errors.Is(err, repository.ErrTransient) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}
