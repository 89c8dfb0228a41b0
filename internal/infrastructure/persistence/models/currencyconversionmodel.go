package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CurrencyConversionModel struct {
	ID        uint            `gorm:"primaryKey"`
	CoinType  string          `gorm:"size:10;not null;index:idx_currency_conversions_lookup,priority:1"`
	Currency  string          `gorm:"size:10;not null;index:idx_currency_conversions_lookup,priority:2"`
	Price     decimal.Decimal `gorm:"type:decimal(30,8);not null"`
	CreatedAt time.Time       `gorm:"index:idx_currency_conversions_lookup,priority:3"`
}

func (CurrencyConversionModel) TableName() string {
	return "currency_conversions"
}
