package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/orris-inc/coinpayable/internal/application/payment/exchangerate"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/domain/rate"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

// UpdateConversionRatesUseCase records one fresh rate per enabled coin and accepted currency
type UpdateConversionRatesUseCase struct {
	rateRepo   rate.ConversionRateRepository
	fetcher    exchangerate.PriceFetcher
	coinTypes  []vo.CoinType
	currencies []string
	logger     logger.Interface
}

func NewUpdateConversionRatesUseCase(
	rateRepo rate.ConversionRateRepository,
	fetcher exchangerate.PriceFetcher,
	coinTypes []vo.CoinType,
	currencies []string,
	logger logger.Interface,
) *UpdateConversionRatesUseCase {
	return &UpdateConversionRatesUseCase{
		rateRepo:   rateRepo,
		fetcher:    fetcher,
		coinTypes:  coinTypes,
		currencies: currencies,
		logger:     logger,
	}
}

// Execute returns how many rates were stored. A coin missing from the price source is logged and skipped.
// A failing currency does not stop the others; its error is returned after the run.
func (uc *UpdateConversionRatesUseCase) Execute(ctx context.Context) (int, error) {
	if len(uc.coinTypes) == 0 {
		return 0, nil
	}

	stored := 0
	var errs []error
	for _, currency := range uc.currencies {
		n, err := uc.refresh(ctx, currency)
		stored += n
		if err != nil {
			uc.logger.Warnw("failed to refresh conversion rates", "currency", currency, "error", err)
			errs = append(errs, err)
		}
	}

	uc.logger.Infow("conversion rates updated", "stored", stored, "currencies", uc.currencies)
	return stored, stderrors.Join(errs...)
}

func (uc *UpdateConversionRatesUseCase) refresh(ctx context.Context, currency string) (int, error) {
	prices, err := uc.fetcher.FetchPrices(ctx, uc.coinTypes, currency)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s prices: %w", currency, err)
	}

	stored := 0
	for _, coinType := range uc.coinTypes {
		price, ok := prices[coinType]
		if !ok {
			uc.logger.Warnw("price source returned no price", "coin_type", coinType, "currency", currency)
			continue
		}

		r, err := rate.NewConversionRate(coinType, currency, price)
		if err != nil {
			uc.logger.Warnw("rejected conversion rate", "coin_type", coinType, "currency", currency, "price", price.String(), "error", err)
			continue
		}

		if err := uc.rateRepo.Create(ctx, r); err != nil {
			return stored, fmt.Errorf("failed to store %s/%s rate: %w", coinType, currency, err)
		}
		stored++
	}
	return stored, nil
}
