package usecases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	sharedConfig "github.com/orris-inc/coinpayable/internal/shared/config"
)

func TestNewSettings(t *testing.T) {
	s := NewSettings(
		sharedConfig.PaymentsConfig{Currency: "EUR", ExpirePaymentsAfter: time.Hour, Concurrency: 2},
		sharedConfig.RatesConfig{},
		map[string]sharedConfig.CoinConfig{
			"BTC":  {Confirmations: 1},
			"eth":  {Confirmations: 500},
			"doge": {Confirmations: 9},
		},
	)

	assert.Equal(t, "EUR", s.DefaultCurrency)
	assert.Equal(t, time.Hour, s.ExpireAfter)
	assert.Equal(t, 1, s.RequiredConfirmations(vo.CoinTypeBTC))
	assert.Equal(t, vo.MaxConfirmations, s.RequiredConfirmations(vo.CoinTypeETH))
	assert.Equal(t, 6, s.RequiredConfirmations(vo.CoinTypeBCH), "unset falls back to default")
	assert.Len(t, s.Confirmations, 2)
}

func TestNewSettings_Currencies(t *testing.T) {
	s := NewSettings(
		sharedConfig.PaymentsConfig{Currency: "usd"},
		sharedConfig.RatesConfig{Currencies: []string{"eur", " GBP ", "USD", "EUR", ""}},
		nil,
	)

	assert.Equal(t, "USD", s.DefaultCurrency)
	assert.Equal(t, []string{"USD", "EUR", "GBP"}, s.Currencies)

	tests := []struct {
		currency string
		want     bool
	}{
		{"USD", true},
		{"usd", true},
		{"eur", true},
		{"GBP", true},
		{"JPY", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.currency, func(t *testing.T) {
			assert.Equal(t, tt.want, s.AcceptsCurrency(tt.currency))
		})
	}
}
