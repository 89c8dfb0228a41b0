// Package rate holds the fiat price snapshots used to value coin payments.
package rate

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/biztime"
)

// ConversionRate is the fiat price in cents of one main unit of a coin at a point in time.
// Rows are append-only. The newest row per coin and currency is the current rate.
type ConversionRate struct {
	id        uint
	coinType  vo.CoinType
	currency  string
	price     decimal.Decimal
	createdAt time.Time
}

func NewConversionRate(coinType vo.CoinType, currency string, price decimal.Decimal) (*ConversionRate, error) {
	if !coinType.IsValid() {
		return nil, fmt.Errorf("invalid coin type: %s", coinType)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return nil, fmt.Errorf("currency is required")
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("price must be positive, got %s", price)
	}

	return &ConversionRate{
		coinType:  coinType,
		currency:  currency,
		price:     price,
		createdAt: biztime.NowUTC(),
	}, nil
}

// IsStale reports whether the rate is older than maxAge at now. A zero maxAge never goes stale.
func (r *ConversionRate) IsStale(maxAge time.Duration, now time.Time) bool {
	return maxAge > 0 && now.Sub(r.createdAt) > maxAge
}

func (r *ConversionRate) ID() uint {
	return r.id
}

func (r *ConversionRate) CoinType() vo.CoinType {
	return r.coinType
}

func (r *ConversionRate) Currency() string {
	return r.currency
}

// Price is fiat cents per coin main unit
func (r *ConversionRate) Price() decimal.Decimal {
	return r.price
}

func (r *ConversionRate) CreatedAt() time.Time {
	return r.createdAt
}

func (r *ConversionRate) SetID(id uint) {
	r.id = id
}

func ReconstructConversionRate(id uint, coinType vo.CoinType, currency string, price decimal.Decimal, createdAt time.Time) *ConversionRate {
	return &ConversionRate{
		id:        id,
		coinType:  coinType,
		currency:  currency,
		price:     price,
		createdAt: createdAt,
	}
}
