package exchangerate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/orris-inc/coinpayable/internal/application/payment/exchangerate"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

const (
	// CoinGecko public API base URL
	coingeckoAPIURL = "https://api.coingecko.com/api/v3"
	// HTTP request timeout
	requestTimeout = 10 * time.Second
)

var coingeckoIDs = map[vo.CoinType]string{
	vo.CoinTypeBTC: "bitcoin",
	vo.CoinTypeETH: "ethereum",
	vo.CoinTypeBCH: "bitcoin-cash",
}

// CoinGeckoFetcher reads spot prices from the CoinGecko simple price endpoint
type CoinGeckoFetcher struct {
	client *resty.Client
	logger logger.Interface
}

func NewCoinGeckoFetcher(apiURL, apiKey string, logger logger.Interface) *CoinGeckoFetcher {
	if apiURL == "" {
		apiURL = coingeckoAPIURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")).
		SetTimeout(requestTimeout)
	if apiKey != "" {
		client.SetHeader("x-cg-demo-api-key", apiKey)
	}
	return &CoinGeckoFetcher{client: client, logger: logger}
}

var _ exchangerate.PriceFetcher = (*CoinGeckoFetcher)(nil)

// FetchPrices returns fiat cents per coin. Coins missing from the response are omitted.
func (f *CoinGeckoFetcher) FetchPrices(ctx context.Context, coinTypes []vo.CoinType, currency string) (map[vo.CoinType]decimal.Decimal, error) {
	ids := make([]string, 0, len(coinTypes))
	for _, coinType := range coinTypes {
		id, ok := coingeckoIDs[coinType]
		if !ok {
			return nil, fmt.Errorf("no price source for coin type: %s", coinType)
		}
		ids = append(ids, id)
	}
	vsCurrency := strings.ToLower(currency)

	var data map[string]map[string]decimal.Decimal
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           strings.Join(ids, ","),
			"vs_currencies": vsCurrency,
			"precision":     "full",
		}).
		SetResult(&data).
		Get("/simple/price")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	prices := make(map[vo.CoinType]decimal.Decimal, len(coinTypes))
	for _, coinType := range coinTypes {
		price, ok := data[coingeckoIDs[coinType]][vsCurrency]
		if !ok {
			f.logger.Warnw("price missing from response",
				"coin_type", coinType,
				"currency", currency,
			)
			continue
		}
		if !price.IsPositive() {
			f.logger.Warnw("ignoring non-positive price",
				"coin_type", coinType,
				"currency", currency,
				"price", price.String(),
			)
			continue
		}
		prices[coinType] = price.Shift(2)
	}

	f.logger.Infow("fetched coin prices",
		"currency", currency,
		"count", len(prices),
	)

	return prices, nil
}
