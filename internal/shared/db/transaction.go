// Package db provides transaction management and query scopes shared by the repositories.
package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/orris-inc/coinpayable/internal/shared/errors"
)

const (
	defaultTxAttempts = 3
	txRetryBackoff    = 50 * time.Millisecond
)

type txKey struct{}

// TransactionManager runs units of work in one transaction, retrying deadlock victims.
type TransactionManager struct {
	db       *gorm.DB
	attempts int
	backoff  time.Duration
}

func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db, attempts: defaultTxAttempts, backoff: txRetryBackoff}
}

// RunInTransaction commits when fn returns nil and rolls back otherwise.
// A nested call joins the transaction already carried by ctx and is never retried on its own.
// fn must be safe to run again: a deadlock or serialization failure reruns it from the start.
func (tm *TransactionManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= tm.attempts; attempt++ {
		err = tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey{}, tx))
		})
		if err == nil || !errors.IsRetryableTxError(err) || attempt == tm.attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * tm.backoff):
		}
	}
	return err
}

// InTransaction reports whether ctx carries an open transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

// GetTxFromContext returns the transaction carried by ctx, or defaultDB bound to ctx.
func GetTxFromContext(ctx context.Context, defaultDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return defaultDB.WithContext(ctx)
}
