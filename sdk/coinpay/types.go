// Package coinpay provides a Go SDK for payable services integrating with the Coinpay payment API.
package coinpay

import "time"

// Payment states
const (
	StatePending        = "pending"
	StatePartialPayment = "partial_payment"
	StatePaidInFull     = "paid_in_full"
	StateConfirmed      = "confirmed"
	StateExpired        = "expired"
	StateComped         = "comped"
)

// List scopes accepted by ListPayments
const (
	ScopeUnconfirmed = "unconfirmed"
	ScopeUnpaid      = "unpaid"
	ScopeStale       = "stale"
)

// Event names carried by webhook deliveries. A comped payment is delivered as EventPaid.
const (
	EventPartiallyPaid = "partially_paid"
	EventPaid          = "paid"
	EventConfirmed     = "confirmed"
	EventExpired       = "expired"
)

// CreatePaymentRequest opens a payment for a payable.
// Price is in fiat cents. Currency defaults to the server's configured currency.
type CreatePaymentRequest struct {
	PayableType string `json:"payable_type"`
	PayableID   string `json:"payable_id"`
	CoinType    string `json:"coin_type"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency,omitempty"`
	Reason      string `json:"reason"`
}

// Payment mirrors the server's payment representation. Coin amounts are decimal strings.
type Payment struct {
	ID                 uint          `json:"id"`
	PayableType        string        `json:"payable_type"`
	PayableID          string        `json:"payable_id"`
	CoinType           string        `json:"coin_type"`
	Price              int64         `json:"price"`
	Currency           string        `json:"currency"`
	Reason             string        `json:"reason"`
	Address            *string       `json:"address,omitempty"`
	State              string        `json:"state"`
	CoinAmountDue      string        `json:"coin_amount_due"`
	CoinAmountDueMain  string        `json:"coin_amount_due_main"`
	CoinAmountPaid     string        `json:"coin_amount_paid"`
	CoinConversion     string        `json:"coin_conversion"`
	CurrencyAmountPaid int64         `json:"currency_amount_paid"`
	CurrencyAmountDue  int64         `json:"currency_amount_due"`
	ExpiresAt          time.Time     `json:"expires_at"`
	Transactions       []Transaction `json:"transactions"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// Terminal reports whether the payment can no longer change state
func (p *Payment) Terminal() bool {
	switch p.State {
	case StateConfirmed, StateExpired, StateComped:
		return true
	}
	return false
}

type Transaction struct {
	Hash           string    `json:"transaction_hash"`
	Confirmations  int       `json:"confirmations"`
	EstimatedValue string    `json:"estimated_value"`
	CoinConversion string    `json:"coin_conversion"`
	CreatedAt      time.Time `json:"created_at"`
}

// ObservedTransaction is one transaction returned by a refresh
type ObservedTransaction struct {
	Hash           string `json:"transaction_hash"`
	Confirmations  int    `json:"confirmations"`
	EstimatedValue string `json:"estimated_value"`
}

// RefreshResult is the payment after a refresh plus the transactions fetched for it.
type RefreshResult struct {
	Payment *Payment              `json:"payment"`
	Fetched []ObservedTransaction `json:"fetched"`
}

// Delivery is the body of a webhook request sent to a payable type's endpoint.
type Delivery struct {
	ID         string    `json:"id"`
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
	Payment    *Payment  `json:"payment"`
}

// apiResponse represents the standard API response structure.
type apiResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Data    any           `json:"data,omitempty"`
	Error   *apiErrorInfo `json:"error,omitempty"`
}

type apiErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
