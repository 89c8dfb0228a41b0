package exchangerate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

func TestCoinGeckoFetcher_FetchPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin,ethereum,bitcoin-cash", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"bitcoin":{"usd":65000.125},"ethereum":{"usd":0},"unrelated":{"usd":1}}`)
	}))
	defer srv.Close()

	f := NewCoinGeckoFetcher(srv.URL, "demo-key", logger.NewDiscardLogger())
	prices, err := f.FetchPrices(context.Background(), []vo.CoinType{vo.CoinTypeBTC, vo.CoinTypeETH, vo.CoinTypeBCH}, "USD")
	require.NoError(t, err)

	require.Len(t, prices, 1)
	assert.Equal(t, "6500012.5", prices[vo.CoinTypeBTC].String())
}

func TestCoinGeckoFetcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewCoinGeckoFetcher(srv.URL, "", logger.NewDiscardLogger())
	_, err := f.FetchPrices(context.Background(), []vo.CoinType{vo.CoinTypeBTC}, "USD")
	assert.Error(t, err)
}
