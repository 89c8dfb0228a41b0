package payment

import (
	"context"
	"time"
)

// PaymentRepository persists payments together with their transaction ledger
type PaymentRepository interface {
	StateSaver

	Create(ctx context.Context, payment *Payment) error
	// SaveAddress stores the receiving address only if none is stored yet
	SaveAddress(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id uint) (*Payment, error)
	// GetByIDForUpdate loads the payment under a row lock held until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id uint) (*Payment, error)
	GetByAddress(ctx context.Context, address string) (*Payment, error)
	GetByTransactionHash(ctx context.Context, hash string) (*Payment, error)
	// FindUnconfirmed returns payments in pending, partial_payment or paid_in_full
	FindUnconfirmed(ctx context.Context) ([]*Payment, error)
	// FindUnpaid returns payments in pending or partial_payment
	FindUnpaid(ctx context.Context) ([]*Payment, error)
	// FindStale returns payments last updated before updatedBefore or owing nothing, in any state
	FindStale(ctx context.Context, updatedBefore time.Time) ([]*Payment, error)
	// SaveLedger upserts changed transaction rows by hash and stores coin_amount_due and coin_conversion
	SaveLedger(ctx context.Context, payment *Payment, changed []*Transaction) error
}
