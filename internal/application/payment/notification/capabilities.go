// Package notification delivers payment lifecycle events to the payable a payment settles.
//
// A payable opts into events by implementing any subset of the handler interfaces below.
// Missing handlers are skipped silently.
package notification

import (
	"context"

	"github.com/orris-inc/coinpayable/internal/domain/payment"
)

type PaidHandler interface {
	CoinPaymentPaid(ctx context.Context, p *payment.Payment) error
}

type PartiallyPaidHandler interface {
	CoinPaymentPartiallyPaid(ctx context.Context, p *payment.Payment) error
}

type ConfirmedHandler interface {
	CoinPaymentConfirmed(ctx context.Context, p *payment.Payment) error
}

type ExpiredHandler interface {
	CoinPaymentExpired(ctx context.Context, p *payment.Payment) error
}

// EventHandler receives every event after the specific handler, if any
type EventHandler interface {
	CoinPaymentEvent(ctx context.Context, p *payment.Payment, eventName string) error
}
