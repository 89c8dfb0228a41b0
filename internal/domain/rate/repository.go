package rate

import (
	"context"

	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
)

type ConversionRateRepository interface {
	Create(ctx context.Context, rate *ConversionRate) error
	// GetLatest returns the newest rate, or nil when none was ever recorded
	GetLatest(ctx context.Context, coinType vo.CoinType, currency string) (*ConversionRate, error)
}
