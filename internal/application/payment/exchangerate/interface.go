package exchangerate

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
)

// ErrConversionUnavailable means no usable rate exists for a coin and currency
var ErrConversionUnavailable = errors.New("conversion rate unavailable")

// RateProvider returns the latest fiat cents per coin main unit
type RateProvider interface {
	LatestPrice(ctx context.Context, coinType vo.CoinType, currency string) (decimal.Decimal, error)
}

// PriceFetcher queries an external price source. Prices are fiat cents per coin main unit.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, coinTypes []vo.CoinType, currency string) (map[vo.CoinType]decimal.Decimal, error)
}
