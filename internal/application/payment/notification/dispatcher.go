package notification

import (
	"context"
	"fmt"

	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

// Dispatcher is a best-effort transition hook. It never fails the transition it follows.
type Dispatcher struct {
	resolver PayableResolver
	logger   logger.Interface
}

func NewDispatcher(resolver PayableResolver, logger logger.Interface) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		logger:   logger,
	}
}

// AfterTransition implements payment.TransitionHook
func (d *Dispatcher) AfterTransition(ctx context.Context, p *payment.Payment, event vo.PaymentEvent) {
	d.Dispatch(ctx, p, event.NotificationName())
}

// Dispatch delivers eventName to the specific handler and then the catch-all handler of the payable
func (d *Dispatcher) Dispatch(ctx context.Context, p *payment.Payment, eventName string) {
	payable, err := d.resolver.Resolve(ctx, p.Payable())
	if err != nil {
		d.logger.Warnw("failed to resolve payable",
			"payment_id", p.ID(),
			"payable", p.Payable().String(),
			"event", eventName,
			"error", err,
		)
		return
	}
	if payable == nil {
		d.logger.Debugw("payable not found, skipping notification",
			"payment_id", p.ID(),
			"payable", p.Payable().String(),
			"event", eventName,
		)
		return
	}

	if specific := specificHandler(payable, eventName); specific != nil {
		d.invoke(p, eventName, "specific", func() error { return specific(ctx, p) })
	}
	if h, ok := payable.(EventHandler); ok {
		d.invoke(p, eventName, "event", func() error { return h.CoinPaymentEvent(ctx, p, eventName) })
	}
}

func specificHandler(payable any, eventName string) func(context.Context, *payment.Payment) error {
	switch eventName {
	case vo.NotificationPaid:
		if h, ok := payable.(PaidHandler); ok {
			return h.CoinPaymentPaid
		}
	case vo.NotificationPartiallyPaid:
		if h, ok := payable.(PartiallyPaidHandler); ok {
			return h.CoinPaymentPartiallyPaid
		}
	case vo.NotificationConfirmed:
		if h, ok := payable.(ConfirmedHandler); ok {
			return h.CoinPaymentConfirmed
		}
	case vo.NotificationExpired:
		if h, ok := payable.(ExpiredHandler); ok {
			return h.CoinPaymentExpired
		}
	}
	return nil
}

func (d *Dispatcher) invoke(p *payment.Payment, eventName, handler string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorw("payable handler panicked",
				"payment_id", p.ID(),
				"event", eventName,
				"handler", handler,
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()

	if err := fn(); err != nil {
		d.logger.Warnw("payable handler failed",
			"payment_id", p.ID(),
			"event", eventName,
			"handler", handler,
			"error", err,
		)
	}
}
