package payment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/errors"
)

// --- helpers ---

// satoshiConverter mirrors the 1e-8 granularity of BTC and BCH.
type satoshiConverter struct{}

func (satoshiConverter) SubunitToMain(subunits decimal.Decimal) decimal.Decimal {
	return subunits.Shift(-8)
}

func (satoshiConverter) MainToSubunit(main decimal.Decimal) decimal.Decimal {
	return main.Shift(8)
}

var conv = satoshiConverter{}

func validPayable(t *testing.T) vo.PayableRef {
	t.Helper()
	ref, err := vo.NewPayableRef("invoice", "42")
	require.NoError(t, err)
	return ref
}

func validPayment(t *testing.T, priceCents int64) *Payment {
	t.Helper()
	p, err := NewPayment(validPayable(t), vo.CoinTypeBTC, vo.NewMoney(priceCents, "USD"), "Order #42")
	require.NoError(t, err)
	p.SetID(7)
	return p
}

func sats(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func observed(hash string, confirmations int, value int64) ObservedTransaction {
	return ObservedTransaction{Hash: hash, Confirmations: confirmations, EstimatedValue: sats(value)}
}

// =============================================================================
// Constructor Tests
// =============================================================================

func TestNewPayment_ValidInput(t *testing.T) {
	p, err := NewPayment(validPayable(t), vo.CoinTypeETH, vo.NewMoney(1000, "usd"), "  Subscription renewal ")
	require.NoError(t, err)

	assert.Equal(t, vo.PaymentStatePending, p.State())
	assert.Equal(t, "USD", p.Currency())
	assert.Equal(t, "Subscription renewal", p.Reason())
	assert.Nil(t, p.Address())
	assert.True(t, p.CoinAmountDue().IsZero())
	assert.Equal(t, 1, p.Version())
	assert.False(t, p.CreatedAt().IsZero())
	assert.Empty(t, p.Transactions())
}

func TestNewPayment_ValidationErrors(t *testing.T) {
	payable := validPayable(t)

	tests := []struct {
		name     string
		payable  vo.PayableRef
		coinType vo.CoinType
		price    vo.Money
		reason   string
	}{
		{"missing payable", vo.PayableRef{}, vo.CoinTypeBTC, vo.NewMoney(1000, "USD"), "r"},
		{"unknown coin", payable, vo.CoinType("doge"), vo.NewMoney(1000, "USD"), "r"},
		{"zero price", payable, vo.CoinTypeBTC, vo.NewMoney(0, "USD"), "r"},
		{"negative price", payable, vo.CoinTypeBTC, vo.NewMoney(-1, "USD"), "r"},
		{"missing currency", payable, vo.CoinTypeBTC, vo.NewMoney(1000, ""), "r"},
		{"blank reason", payable, vo.CoinTypeBTC, vo.NewMoney(1000, "USD"), "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPayment(tt.payable, tt.coinType, tt.price, tt.reason)
			assert.Nil(t, p)
			assert.True(t, errors.IsValidationError(err), "got %v", err)
		})
	}
}

func TestPayment_AssignAddressOnce(t *testing.T) {
	p := validPayment(t, 1000)

	require.NoError(t, p.AssignAddress("1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"))
	require.NotNil(t, p.Address())
	assert.Equal(t, "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", *p.Address())

	err := p.AssignAddress("1OtherAddress")
	assert.ErrorIs(t, err, ErrAddressAlreadyAssigned)
	assert.Equal(t, "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", *p.Address())
}

func TestPayment_AssignAddressRejectsEmpty(t *testing.T) {
	p := validPayment(t, 1000)
	assert.True(t, errors.IsValidationError(p.AssignAddress(" ")))
	assert.Nil(t, p.Address())
}

// =============================================================================
// Ledger Merge Tests
// =============================================================================

func TestPayment_MergeTransactions_InsertsStampedRows(t *testing.T) {
	p := validPayment(t, 1000)
	rate := decimal.NewFromInt(100000)

	changed, err := p.MergeTransactions([]ObservedTransaction{observed("aa", 0, 500000), observed("bb", 1, 250000)}, rate)
	require.NoError(t, err)
	require.Len(t, changed, 2)

	for _, tx := range p.Transactions() {
		assert.Equal(t, uint(7), tx.PaymentID())
		assert.True(t, tx.CoinConversion().Equal(rate))
	}
}

func TestPayment_MergeTransactions_Idempotent(t *testing.T) {
	p := validPayment(t, 1000)
	rate := decimal.NewFromInt(100000)
	fetch := []ObservedTransaction{observed("aa", 1, 500000)}

	_, err := p.MergeTransactions(fetch, rate)
	require.NoError(t, err)
	require.NoError(t, p.UpdateCoinAmountDue(conv, rate))
	due := p.CoinAmountDue()

	changed, err := p.MergeTransactions(fetch, rate)
	require.NoError(t, err)
	require.NoError(t, p.UpdateCoinAmountDue(conv, rate))

	assert.Empty(t, changed)
	assert.Len(t, p.Transactions(), 1)
	assert.True(t, p.CoinAmountDue().Equal(due))
}

func TestPayment_MergeTransactions_OnlyRaisesConfirmations(t *testing.T) {
	p := validPayment(t, 1000)
	_, err := p.MergeTransactions([]ObservedTransaction{observed("aa", 1, 500000)}, decimal.NewFromInt(100000))
	require.NoError(t, err)

	// different value and rate on re-fetch must not overwrite the stored row
	changed, err := p.MergeTransactions([]ObservedTransaction{observed("aa", 6, 999999)}, decimal.NewFromInt(1))
	require.NoError(t, err)
	require.Len(t, changed, 1)

	tx := p.Transactions()[0]
	assert.Equal(t, 6, tx.Confirmations())
	assert.True(t, tx.EstimatedValue().Equal(sats(500000)))
	assert.True(t, tx.CoinConversion().Equal(decimal.NewFromInt(100000)))

	// a lower count from a lagging node is ignored
	changed, err = p.MergeTransactions([]ObservedTransaction{observed("aa", 2, 500000)}, decimal.NewFromInt(100000))
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Equal(t, 6, p.Transactions()[0].Confirmations())
}

func TestPayment_MergeTransactions_DuplicateHashInOneFetch(t *testing.T) {
	p := validPayment(t, 1000)

	changed, err := p.MergeTransactions([]ObservedTransaction{observed("aa", 1, 100), observed("aa", 3, 100)}, decimal.NewFromInt(100000))
	require.NoError(t, err)

	assert.Len(t, changed, 1)
	require.Len(t, p.Transactions(), 1)
	assert.Equal(t, 3, p.Transactions()[0].Confirmations())
}

func TestPayment_MergeTransactions_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		obs  ObservedTransaction
	}{
		{"empty hash", observed("", 0, 1)},
		{"negative confirmations", observed("aa", -1, 1)},
		{"negative value", observed("aa", 0, -1)},
		{"fractional subunits", ObservedTransaction{Hash: "aa", EstimatedValue: decimal.RequireFromString("1.5")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayment(t, 1000)
			_, err := p.MergeTransactions([]ObservedTransaction{tt.obs}, decimal.NewFromInt(100000))
			assert.Error(t, err)
			assert.Empty(t, p.Transactions())
		})
	}

	p := validPayment(t, 1000)
	_, err := p.MergeTransactions([]ObservedTransaction{observed("aa", 0, 1)}, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidConversionRate)
}

func TestPayment_TransactionsConfirmed(t *testing.T) {
	p := validPayment(t, 1000)
	assert.True(t, p.TransactionsConfirmed(3), "empty ledger is vacuously confirmed")

	_, err := p.MergeTransactions([]ObservedTransaction{observed("aa", 6, 1), observed("bb", 2, 1)}, decimal.NewFromInt(1))
	require.NoError(t, err)

	assert.True(t, p.TransactionsConfirmed(2))
	assert.False(t, p.TransactionsConfirmed(3))
}

func TestPayment_IsExpired(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := ReconstructPaymentWithParams(PaymentReconstructParams{
		ID:        1,
		Payable:   validPayable(t),
		CoinType:  vo.CoinTypeBTC,
		Price:     vo.NewMoney(1000, "USD"),
		Reason:    "r",
		State:     vo.PaymentStatePending,
		Version:   1,
		CreatedAt: created,
		UpdatedAt: created,
	})
	grace := 15 * time.Minute

	assert.Equal(t, created.Add(grace), p.ExpiresAt(grace))
	assert.False(t, p.IsExpired(grace, created.Add(grace)))
	assert.True(t, p.IsExpired(grace, created.Add(grace+time.Second)))

	partial := ReconstructPaymentWithParams(PaymentReconstructParams{State: vo.PaymentStatePartialPayment, CreatedAt: created})
	assert.False(t, partial.IsExpired(grace, created.Add(time.Hour)))
}

func TestPayment_SetIDPropagatesToTransactions(t *testing.T) {
	p, err := NewPayment(validPayable(t), vo.CoinTypeBTC, vo.NewMoney(1000, "USD"), "r")
	require.NoError(t, err)
	_, err = p.MergeTransactions([]ObservedTransaction{observed("aa", 0, 1)}, decimal.NewFromInt(1))
	require.NoError(t, err)

	p.SetID(99)
	assert.Equal(t, uint(99), p.Transactions()[0].PaymentID())
}
