package dto

import (
	"time"

	"github.com/orris-inc/coinpayable/internal/domain/payment"
)

// PaymentDTO is the external view of a payment. Coin amounts are decimal strings.
type PaymentDTO struct {
	ID                 uint             `json:"id"`
	PayableType        string           `json:"payable_type"`
	PayableID          string           `json:"payable_id"`
	CoinType           string           `json:"coin_type"`
	Price              int64            `json:"price"`
	Currency           string           `json:"currency"`
	Reason             string           `json:"reason"`
	Address            *string          `json:"address,omitempty"`
	State              string           `json:"state"`
	CoinAmountDue      string           `json:"coin_amount_due"`
	CoinAmountDueMain  string           `json:"coin_amount_due_main"`
	CoinAmountPaid     string           `json:"coin_amount_paid"`
	CoinConversion     string           `json:"coin_conversion"`
	CurrencyAmountPaid int64            `json:"currency_amount_paid"`
	CurrencyAmountDue  int64            `json:"currency_amount_due"`
	ExpiresAt          time.Time        `json:"expires_at"`
	Transactions       []TransactionDTO `json:"transactions"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

type TransactionDTO struct {
	Hash           string    `json:"transaction_hash"`
	Confirmations  int       `json:"confirmations"`
	EstimatedValue string    `json:"estimated_value"`
	CoinConversion string    `json:"coin_conversion"`
	CreatedAt      time.Time `json:"created_at"`
}

// ObservedTransactionDTO is one entry of a fresh adapter fetch
type ObservedTransactionDTO struct {
	Hash           string `json:"transaction_hash"`
	Confirmations  int    `json:"confirmations"`
	EstimatedValue string `json:"estimated_value"`
}

// ToPaymentDTO renders p. conv supplies the coin granularity and expireAfter the grace period.
func ToPaymentDTO(p *payment.Payment, conv payment.UnitConverter, expireAfter time.Duration) *PaymentDTO {
	if p == nil {
		return nil
	}

	txs := p.Transactions()
	transactions := make([]TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		transactions = append(transactions, TransactionDTO{
			Hash:           tx.Hash(),
			Confirmations:  tx.Confirmations(),
			EstimatedValue: tx.EstimatedValue().String(),
			CoinConversion: tx.CoinConversion().String(),
			CreatedAt:      tx.CreatedAt(),
		})
	}

	return &PaymentDTO{
		ID:                 p.ID(),
		PayableType:        p.Payable().Type(),
		PayableID:          p.Payable().ID(),
		CoinType:           p.CoinType().String(),
		Price:              p.Price().AmountInCents(),
		Currency:           p.Currency(),
		Reason:             p.Reason(),
		Address:            p.Address(),
		State:              p.State().String(),
		CoinAmountDue:      p.CoinAmountDue().String(),
		CoinAmountDueMain:  p.CoinAmountDueMain(conv).String(),
		CoinAmountPaid:     p.CoinAmountPaid(conv).String(),
		CoinConversion:     p.CoinConversion().String(),
		CurrencyAmountPaid: p.CurrencyAmountPaid(conv),
		CurrencyAmountDue:  p.CurrencyAmountDue(conv),
		ExpiresAt:          p.ExpiresAt(expireAfter),
		Transactions:       transactions,
		CreatedAt:          p.CreatedAt(),
		UpdatedAt:          p.UpdatedAt(),
	}
}

func ToObservedTransactionDTOs(observed []payment.ObservedTransaction) []ObservedTransactionDTO {
	out := make([]ObservedTransactionDTO, 0, len(observed))
	for _, o := range observed {
		out = append(out, ObservedTransactionDTO{
			Hash:           o.Hash,
			Confirmations:  o.Confirmations,
			EstimatedValue: o.EstimatedValue.String(),
		})
	}
	return out
}
