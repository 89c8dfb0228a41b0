package mappers

import (
	"fmt"

	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/domain/rate"
	"github.com/orris-inc/coinpayable/internal/infrastructure/persistence/models"
)

func ConversionRateToModel(r *rate.ConversionRate) *models.CurrencyConversionModel {
	return &models.CurrencyConversionModel{
		ID:        r.ID(),
		CoinType:  r.CoinType().String(),
		Currency:  r.Currency(),
		Price:     r.Price(),
		CreatedAt: r.CreatedAt(),
	}
}

func ConversionRateToDomain(model *models.CurrencyConversionModel) (*rate.ConversionRate, error) {
	coinType, err := vo.NewCoinType(model.CoinType)
	if err != nil {
		return nil, fmt.Errorf("invalid conversion rate row %d: %w", model.ID, err)
	}
	return rate.ReconstructConversionRate(model.ID, coinType, model.Currency, model.Price, model.CreatedAt), nil
}
