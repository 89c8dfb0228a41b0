package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/biztime"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

// PaymentTransitionEvent is broadcast after every persisted state change of a payment
type PaymentTransitionEvent struct {
	PaymentID    uint   `json:"payment_id"`
	PayableType  string `json:"payable_type"`
	PayableID    string `json:"payable_id"`
	CoinType     string `json:"coin_type"`
	Event        string `json:"event"`
	Notification string `json:"notification"`
	State        string `json:"state"`
	Timestamp    int64  `json:"timestamp"`
}

// PaymentEventHandler is a callback function for handling payment events
type PaymentEventHandler func(ctx context.Context, event PaymentTransitionEvent)

const paymentTransitionChannel = "coinpay:payment:transition"

// RedisPaymentEventBus publishes transitions for other instances and external listeners
type RedisPaymentEventBus struct {
	client *redis.Client
	logger logger.Interface
}

func NewRedisPaymentEventBus(client *redis.Client, logger logger.Interface) *RedisPaymentEventBus {
	return &RedisPaymentEventBus{
		client: client,
		logger: logger,
	}
}

// AfterTransition implements payment.TransitionHook. Publish failures are logged only.
func (b *RedisPaymentEventBus) AfterTransition(ctx context.Context, p *payment.Payment, event vo.PaymentEvent) {
	_ = b.Publish(ctx, PaymentTransitionEvent{
		PaymentID:    p.ID(),
		PayableType:  p.Payable().Type(),
		PayableID:    p.Payable().ID(),
		CoinType:     p.CoinType().String(),
		Event:        event.String(),
		Notification: event.NotificationName(),
		State:        p.State().String(),
		Timestamp:    biztime.NowUTC().Unix(),
	})
}

func (b *RedisPaymentEventBus) Publish(ctx context.Context, event PaymentTransitionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, paymentTransitionChannel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish payment transition event",
			"payment_id", event.PaymentID,
			"event", event.Event,
			"error", err,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debugw("payment transition event published",
		"payment_id", event.PaymentID,
		"event", event.Event,
		"state", event.State,
	)
	return nil
}

// Subscribe blocks until ctx is done, calling handler for each received event
func (b *RedisPaymentEventBus) Subscribe(ctx context.Context, handler PaymentEventHandler) error {
	sub := b.client.Subscribe(ctx, paymentTransitionChannel)
	defer sub.Close()

	// Wait for subscription confirmation
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to payment transition events",
		"channel", paymentTransitionChannel,
	)

	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("payment event subscriber stopped",
				"reason", ctx.Err(),
			)
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("payment event channel closed")
				return nil
			}

			var event PaymentTransitionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal payment event",
					"payload", msg.Payload,
					"error", err,
				)
				continue
			}

			handler(ctx, event)
		}
	}
}
