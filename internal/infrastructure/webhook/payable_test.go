package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/coinpayable/internal/application/payment/blockchain"
	"github.com/orris-inc/coinpayable/internal/application/payment/notification"
	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/config"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

type satoshiAdapter struct{}

func (satoshiAdapter) SubunitToMain(v decimal.Decimal) decimal.Decimal { return v.Shift(-8) }
func (satoshiAdapter) MainToSubunit(v decimal.Decimal) decimal.Decimal { return v.Shift(8) }
func (satoshiAdapter) CreateAddress(context.Context, uint) (string, error) {
	return "", nil
}
func (satoshiAdapter) FetchTransactions(context.Context, string) ([]payment.ObservedTransaction, error) {
	return nil, nil
}

type stubRegistry struct{}

func (stubRegistry) AdapterFor(coinType vo.CoinType) (blockchain.Adapter, error) {
	return satoshiAdapter{}, nil
}

type capturedRequest struct {
	header http.Header
	body   []byte
}

func newWebhookServer(t *testing.T, status int) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	captured := make(chan capturedRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured <- capturedRequest{header: r.Header.Clone(), body: body}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func webhookPayment(t *testing.T) *payment.Payment {
	t.Helper()
	ref, err := vo.NewPayableRef("invoice", "inv-1")
	require.NoError(t, err)
	address := "12CL4K2eVqj7hQTix7dM7CVHCkpP17Pry3"
	return payment.ReconstructPaymentWithParams(payment.PaymentReconstructParams{
		ID:             5,
		Payable:        ref,
		CoinType:       vo.CoinTypeBTC,
		Price:          vo.NewMoney(1000, "USD"),
		Reason:         "order",
		Address:        &address,
		CoinAmountDue:  decimal.NewFromInt(1000000),
		CoinConversion: decimal.NewFromInt(100000),
		State:          vo.PaymentStatePaidInFull,
		Version:        3,
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
}

func TestNotifier_DeliversSignedEvent(t *testing.T) {
	srv, captured := newWebhookServer(t, http.StatusNoContent)

	registry := notification.NewResolverRegistry()
	bound := RegisterNotifiers(registry, map[string]config.PayableConfig{
		"invoice": {WebhookURL: srv.URL, Secret: "s3cret"},
		"orphan":  {},
	}, stubRegistry{}, 15*time.Minute, logger.NewDiscardLogger())
	assert.Equal(t, []string{"invoice"}, bound)

	dispatcher := notification.NewDispatcher(registry, logger.NewDiscardLogger())
	dispatcher.AfterTransition(context.Background(), webhookPayment(t), vo.PaymentEventPay)

	var req capturedRequest
	select {
	case req = <-captured:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook not called")
	}

	assert.Equal(t, "paid", req.header.Get(HeaderEvent))
	assert.NotEmpty(t, req.header.Get(HeaderDelivery))
	assert.Equal(t, Sign("s3cret", req.body), req.header.Get(HeaderSignature))

	var delivery Delivery
	require.NoError(t, json.Unmarshal(req.body, &delivery))
	assert.Equal(t, req.header.Get(HeaderDelivery), delivery.ID)
	assert.Equal(t, "paid", delivery.Event)
	require.NotNil(t, delivery.Payment)
	assert.Equal(t, uint(5), delivery.Payment.ID)
	assert.Equal(t, "inv-1", delivery.Payment.PayableID)
	assert.Equal(t, "paid_in_full", delivery.Payment.State)
	assert.Equal(t, "0.01", delivery.Payment.CoinAmountDueMain)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 19, 5, 0, time.UTC), delivery.Payment.ExpiresAt)
}

func TestNotifier_UnsignedWithoutSecret(t *testing.T) {
	srv, captured := newWebhookServer(t, http.StatusOK)
	n := NewNotifier("invoice", config.PayableConfig{WebhookURL: srv.URL}, stubRegistry{}, time.Minute, logger.NewDiscardLogger())

	require.NoError(t, n.Deliver(context.Background(), webhookPayment(t), "confirmed"))
	req := <-captured
	assert.Empty(t, req.header.Get(HeaderSignature))
}

func TestNotifier_ErrorStatus(t *testing.T) {
	srv, _ := newWebhookServer(t, http.StatusInternalServerError)
	n := NewNotifier("invoice", config.PayableConfig{WebhookURL: srv.URL}, stubRegistry{}, time.Minute, logger.NewDiscardLogger())

	err := n.Deliver(context.Background(), webhookPayment(t), "expired")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSign(t *testing.T) {
	// HMAC-SHA256 of "hello" with key "key"
	assert.Equal(t,
		"sha256=9307b3b915efb5171ff14d8cb55fbcc798c6c0ef1456d66ded1a6aa723a58b7b",
		Sign("key", []byte("hello")))
}
