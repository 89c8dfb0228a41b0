// Package webhook delivers payment lifecycle events to payables hosted outside this process.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/orris-inc/coinpayable/internal/application/payment/blockchain"
	"github.com/orris-inc/coinpayable/internal/application/payment/dto"
	"github.com/orris-inc/coinpayable/internal/application/payment/notification"
	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/biztime"
	"github.com/orris-inc/coinpayable/internal/shared/config"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

const (
	deliveryTimeout = 10 * time.Second

	HeaderEvent     = "X-Coinpay-Event"
	HeaderDelivery  = "X-Coinpay-Delivery"
	HeaderSignature = "X-Coinpay-Signature"
)

// Delivery is the JSON body posted for one event
type Delivery struct {
	ID         string          `json:"id"`
	Event      string          `json:"event"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payment    *dto.PaymentDTO `json:"payment"`
}

// Notifier posts events of one payable type to its configured URL
type Notifier struct {
	payableType string
	url         string
	secret      string
	client      *resty.Client
	converters  blockchain.Registry
	expireAfter time.Duration
	logger      logger.Interface
}

func NewNotifier(
	payableType string,
	cfg config.PayableConfig,
	converters blockchain.Registry,
	expireAfter time.Duration,
	logger logger.Interface,
) *Notifier {
	return &Notifier{
		payableType: payableType,
		url:         cfg.WebhookURL,
		secret:      cfg.Secret,
		client:      resty.New().SetTimeout(deliveryTimeout),
		converters:  converters,
		expireAfter: expireAfter,
		logger:      logger.With("payable_type", payableType),
	}
}

// Resolve implements notification.PayableResolver. Every payable of the type is reachable through the webhook.
func (n *Notifier) Resolve(_ context.Context, ref vo.PayableRef) (any, error) {
	return &remotePayable{ref: ref, notifier: n}, nil
}

// Deliver posts eventName for p. Non-2xx responses are errors.
func (n *Notifier) Deliver(ctx context.Context, p *payment.Payment, eventName string) error {
	conv, err := n.converters.AdapterFor(p.CoinType())
	if err != nil {
		return err
	}

	delivery := Delivery{
		ID:         uuid.NewString(),
		Event:      eventName,
		OccurredAt: biztime.NowUTC(),
		Payment:    dto.ToPaymentDTO(p, conv, n.expireAfter),
	}
	body, err := json.Marshal(delivery)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook delivery: %w", err)
	}

	req := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(HeaderEvent, eventName).
		SetHeader(HeaderDelivery, delivery.ID).
		SetBody(body)
	if n.secret != "" {
		req.SetHeader(HeaderSignature, Sign(n.secret, body))
	}

	resp, err := req.Post(n.url)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}

	n.logger.Infow("webhook delivered",
		"payment_id", p.ID(),
		"event", eventName,
		"delivery_id", delivery.ID,
	)
	return nil
}

// Sign returns the signature header value of body: "sha256=" + hex HMAC-SHA256
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// remotePayable only implements the catch-all capability
type remotePayable struct {
	ref      vo.PayableRef
	notifier *Notifier
}

func (r *remotePayable) CoinPaymentEvent(ctx context.Context, p *payment.Payment, eventName string) error {
	return r.notifier.Deliver(ctx, p, eventName)
}

// RegisterNotifiers binds a Notifier for every payable type with a webhook URL and returns the bound types
func RegisterNotifiers(
	registry *notification.ResolverRegistry,
	payables map[string]config.PayableConfig,
	converters blockchain.Registry,
	expireAfter time.Duration,
	logger logger.Interface,
) []string {
	types := make([]string, 0, len(payables))
	for payableType, cfg := range payables {
		if cfg.WebhookURL == "" {
			logger.Warnw("payable type has no webhook url, events will be dropped", "payable_type", payableType)
			continue
		}
		registry.Register(payableType, NewNotifier(payableType, cfg, converters, expireAfter, logger))
		types = append(types, payableType)
	}
	sort.Strings(types)
	return types
}
