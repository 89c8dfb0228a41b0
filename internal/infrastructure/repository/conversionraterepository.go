package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/domain/rate"
	"github.com/orris-inc/coinpayable/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/coinpayable/internal/infrastructure/persistence/models"
	"github.com/orris-inc/coinpayable/internal/shared/db"
)

type ConversionRateRepository struct {
	db *gorm.DB
}

func NewConversionRateRepository(db *gorm.DB) *ConversionRateRepository {
	return &ConversionRateRepository{db: db}
}

var _ rate.ConversionRateRepository = (*ConversionRateRepository)(nil)

func (r *ConversionRateRepository) Create(ctx context.Context, cr *rate.ConversionRate) error {
	model := mappers.ConversionRateToModel(cr)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create conversion rate: %w", err)
	}

	cr.SetID(model.ID)
	return nil
}

func (r *ConversionRateRepository) GetLatest(ctx context.Context, coinType vo.CoinType, currency string) (*rate.ConversionRate, error) {
	var model models.CurrencyConversionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("coin_type = ? AND currency = ?", coinType.String(), strings.ToUpper(currency)).
		Order("created_at DESC, id DESC").
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest conversion rate: %w", err)
	}

	return mappers.ConversionRateToDomain(&model)
}
