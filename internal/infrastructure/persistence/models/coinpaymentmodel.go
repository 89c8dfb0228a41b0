package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CoinPaymentModel struct {
	ID             uint            `gorm:"primaryKey"`
	PayableType    string          `gorm:"size:64;not null;index:idx_coin_payments_payable"`
	PayableID      string          `gorm:"size:64;not null;index:idx_coin_payments_payable"`
	CoinType       string          `gorm:"size:10;not null"`
	Price          int64           `gorm:"not null"`
	Currency       string          `gorm:"size:10;not null"`
	Reason         string          `gorm:"size:255;not null"`
	Address        *string         `gorm:"size:128;uniqueIndex"`
	CoinAmountDue  decimal.Decimal `gorm:"type:decimal(65,0);not null"`
	CoinConversion decimal.Decimal `gorm:"type:decimal(30,8);not null"`
	State          string          `gorm:"size:20;not null;index"`
	Version        int             `gorm:"not null;default:1"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Transactions []CoinPaymentTransactionModel `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
}

func (CoinPaymentModel) TableName() string {
	return "coin_payments"
}

// CoinPaymentTransactionModel is a ledger row. (payment_id, transaction_hash) is unique.
type CoinPaymentTransactionModel struct {
	ID              uint            `gorm:"primaryKey"`
	PaymentID       uint            `gorm:"not null;uniqueIndex:idx_coin_payment_tx_payment_hash"`
	TransactionHash string          `gorm:"size:128;not null;uniqueIndex:idx_coin_payment_tx_payment_hash;index"`
	Confirmations   int             `gorm:"not null;default:0"`
	EstimatedValue  decimal.Decimal `gorm:"type:decimal(65,0);not null"`
	CoinConversion  decimal.Decimal `gorm:"type:decimal(30,8);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (CoinPaymentTransactionModel) TableName() string {
	return "coin_payment_transactions"
}
