package payment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/coinpayable/internal/shared/biztime"
)

// ObservedTransaction is one entry of a blockchain adapter fetch
type ObservedTransaction struct {
	Hash           string
	Confirmations  int
	EstimatedValue decimal.Decimal // coin subunits
}

func (o ObservedTransaction) Validate() error {
	if o.Hash == "" {
		return fmt.Errorf("transaction hash is required")
	}
	if o.Confirmations < 0 {
		return fmt.Errorf("transaction %s: confirmations must not be negative", o.Hash)
	}
	if o.EstimatedValue.IsNegative() {
		return fmt.Errorf("transaction %s: estimated value must not be negative", o.Hash)
	}
	if !o.EstimatedValue.Equal(o.EstimatedValue.Truncate(0)) {
		return fmt.Errorf("transaction %s: estimated value must be whole subunits", o.Hash)
	}
	return nil
}

// Transaction is a ledger row of a payment. Only confirmations change after insert.
type Transaction struct {
	id             uint
	paymentID      uint
	hash           string
	confirmations  int
	estimatedValue decimal.Decimal
	coinConversion decimal.Decimal
	createdAt      time.Time
	updatedAt      time.Time
}

func newTransaction(paymentID uint, observed ObservedTransaction, rate decimal.Decimal) *Transaction {
	now := biztime.NowUTC()
	return &Transaction{
		paymentID:      paymentID,
		hash:           observed.Hash,
		confirmations:  observed.Confirmations,
		estimatedValue: observed.EstimatedValue,
		coinConversion: rate,
		createdAt:      now,
		updatedAt:      now,
	}
}

// raiseConfirmations applies a re-fetched count. Lower counts are ignored.
func (t *Transaction) raiseConfirmations(confirmations int) bool {
	if confirmations <= t.confirmations {
		return false
	}
	t.confirmations = confirmations
	t.updatedAt = biztime.NowUTC()
	return true
}

func (t *Transaction) ID() uint {
	return t.id
}

func (t *Transaction) PaymentID() uint {
	return t.paymentID
}

func (t *Transaction) Hash() string {
	return t.hash
}

func (t *Transaction) Confirmations() int {
	return t.confirmations
}

// EstimatedValue is the amount in coin subunits
func (t *Transaction) EstimatedValue() decimal.Decimal {
	return t.estimatedValue
}

// CoinConversion is the fiat cents per coin snapshot taken when the row was recorded
func (t *Transaction) CoinConversion() decimal.Decimal {
	return t.coinConversion
}

func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Transaction) UpdatedAt() time.Time {
	return t.updatedAt
}

func (t *Transaction) SetID(id uint) {
	t.id = id
}

type TransactionReconstructParams struct {
	ID             uint
	PaymentID      uint
	Hash           string
	Confirmations  int
	EstimatedValue decimal.Decimal
	CoinConversion decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func ReconstructTransaction(params TransactionReconstructParams) *Transaction {
	return &Transaction{
		id:             params.ID,
		paymentID:      params.PaymentID,
		hash:           params.Hash,
		confirmations:  params.Confirmations,
		estimatedValue: params.EstimatedValue,
		coinConversion: params.CoinConversion,
		createdAt:      params.CreatedAt,
		updatedAt:      params.UpdatedAt,
	}
}
