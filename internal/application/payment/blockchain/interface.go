package blockchain

import (
	"context"
	"fmt"

	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
)

// Adapter creates receiving addresses and lists observed transactions for one coin type
type Adapter interface {
	payment.UnitConverter

	// CreateAddress derives the receiving address for a payment. Called once per payment.
	CreateAddress(ctx context.Context, paymentID uint) (string, error)

	// FetchTransactions lists every transaction paying address. Results may overlap across calls.
	FetchTransactions(ctx context.Context, address string) ([]payment.ObservedTransaction, error)
}

// Registry resolves the adapter of a coin type
type Registry interface {
	AdapterFor(coinType vo.CoinType) (Adapter, error)
}

// AdapterError wraps a chain API or address derivation failure
type AdapterError struct {
	CoinType vo.CoinType
	Op       string
	Err      error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s adapter %s: %v", e.CoinType, e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError wraps err unless it already is an AdapterError
func NewAdapterError(coinType vo.CoinType, op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*AdapterError); ok {
		return err
	}
	return &AdapterError{CoinType: coinType, Op: op, Err: err}
}
