package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/biztime"
	"github.com/orris-inc/coinpayable/internal/shared/errors"
)

// Payment is an invoice priced in fiat cents and settled in one coin type
type Payment struct {
	id             uint
	payable        vo.PayableRef
	coinType       vo.CoinType
	price          vo.Money
	reason         string
	address        *string
	coinAmountDue  decimal.Decimal // coin subunits, never negative
	coinConversion decimal.Decimal // fiat cents per coin main unit
	state          vo.PaymentState
	transactions   []*Transaction

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewPayment validates and builds a pending payment. Amounts due are filled by UpdateCoinAmountDue.
func NewPayment(payable vo.PayableRef, coinType vo.CoinType, price vo.Money, reason string) (*Payment, error) {
	if payable.IsZero() {
		return nil, errors.NewValidationError("payable is required")
	}
	if !coinType.IsValid() {
		return nil, errors.NewValidationError("coin type is required", fmt.Sprintf("unsupported coin type %q", coinType))
	}
	if !price.IsPositive() {
		return nil, errors.NewValidationError("price must be positive")
	}
	if price.Currency() == "" {
		return nil, errors.NewValidationError("currency is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.NewValidationError("reason is required")
	}

	now := biztime.NowUTC()
	return &Payment{
		payable:        payable,
		coinType:       coinType,
		price:          price,
		reason:         reason,
		coinAmountDue:  decimal.Zero,
		coinConversion: decimal.Zero,
		state:          vo.PaymentStatePending,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// AssignAddress records the receiving address. It can be set only once.
func (p *Payment) AssignAddress(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return errors.NewValidationError("address is required")
	}
	if p.address != nil {
		return ErrAddressAlreadyAssigned
	}
	p.address = &address
	p.touch()
	return nil
}

// MergeTransactions folds a fetch result into the ledger keyed by hash.
// Known hashes only raise confirmations. Unknown hashes are appended stamped with rate.
// It returns the rows that were inserted or changed.
func (p *Payment) MergeTransactions(observed []ObservedTransaction, rate decimal.Decimal) ([]*Transaction, error) {
	byHash := make(map[string]*Transaction, len(p.transactions))
	for _, tx := range p.transactions {
		byHash[tx.hash] = tx
	}

	changed := make([]*Transaction, 0, len(observed))
	seen := make(map[string]bool, len(observed))
	for _, o := range observed {
		if err := o.Validate(); err != nil {
			return nil, errors.NewValidationError("invalid observed transaction", err.Error())
		}

		if existing, ok := byHash[o.Hash]; ok {
			if existing.raiseConfirmations(o.Confirmations) && !seen[o.Hash] {
				changed = append(changed, existing)
				seen[o.Hash] = true
			}
			continue
		}

		if !rate.IsPositive() {
			return nil, ErrInvalidConversionRate
		}
		tx := newTransaction(p.id, o, rate)
		p.transactions = append(p.transactions, tx)
		byHash[o.Hash] = tx
		changed = append(changed, tx)
		seen[o.Hash] = true
	}

	if len(changed) > 0 {
		p.touch()
	}
	return changed, nil
}

// TransactionsConfirmed reports whether every ledger row has at least threshold confirmations
func (p *Payment) TransactionsConfirmed(threshold int) bool {
	for _, tx := range p.transactions {
		if tx.confirmations < threshold {
			return false
		}
	}
	return true
}

// ExpiresAt is the deadline after which a still pending payment expires
func (p *Payment) ExpiresAt(grace time.Duration) time.Time {
	return p.createdAt.Add(grace)
}

// IsExpired reports whether a pending payment has passed its deadline at now
func (p *Payment) IsExpired(grace time.Duration, now time.Time) bool {
	return p.state.IsPending() && now.After(p.ExpiresAt(grace))
}

func (p *Payment) touch() {
	p.updatedAt = biztime.NowUTC()
	p.version++
}

func (p *Payment) ID() uint {
	return p.id
}

func (p *Payment) Payable() vo.PayableRef {
	return p.payable
}

func (p *Payment) CoinType() vo.CoinType {
	return p.coinType
}

func (p *Payment) Price() vo.Money {
	return p.price
}

func (p *Payment) Currency() string {
	return p.price.Currency()
}

func (p *Payment) Reason() string {
	return p.reason
}

func (p *Payment) Address() *string {
	return p.address
}

func (p *Payment) CoinAmountDue() decimal.Decimal {
	return p.coinAmountDue
}

func (p *Payment) CoinConversion() decimal.Decimal {
	return p.coinConversion
}

func (p *Payment) State() vo.PaymentState {
	return p.state
}

// Transactions returns the ledger rows in insertion order
func (p *Payment) Transactions() []*Transaction {
	out := make([]*Transaction, len(p.transactions))
	copy(out, p.transactions)
	return out
}

func (p *Payment) Version() int {
	return p.version
}

func (p *Payment) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Payment) UpdatedAt() time.Time {
	return p.updatedAt
}

// SetID sets the payment ID after persistence (used by repository after Create)
func (p *Payment) SetID(id uint) {
	p.id = id
	for _, tx := range p.transactions {
		tx.paymentID = id
	}
}

type PaymentReconstructParams struct {
	ID             uint
	Payable        vo.PayableRef
	CoinType       vo.CoinType
	Price          vo.Money
	Reason         string
	Address        *string
	CoinAmountDue  decimal.Decimal
	CoinConversion decimal.Decimal
	State          vo.PaymentState
	Transactions   []*Transaction
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func ReconstructPaymentWithParams(params PaymentReconstructParams) *Payment {
	return &Payment{
		id:             params.ID,
		payable:        params.Payable,
		coinType:       params.CoinType,
		price:          params.Price,
		reason:         params.Reason,
		address:        params.Address,
		coinAmountDue:  params.CoinAmountDue,
		coinConversion: params.CoinConversion,
		state:          params.State,
		transactions:   params.Transactions,
		version:        params.Version,
		createdAt:      params.CreatedAt,
		updatedAt:      params.UpdatedAt,
	}
}
