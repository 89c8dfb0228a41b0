package usecases

import (
	"strings"
	"time"

	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	sharedConfig "github.com/orris-inc/coinpayable/internal/shared/config"
)

// Settings is the read-only configuration of the payment engine, built once at startup
type Settings struct {
	DefaultCurrency string
	ExpireAfter     time.Duration
	FetchTimeout    time.Duration
	Concurrency     int
	Confirmations   map[vo.CoinType]int

	// Currencies lists every accepted fiat currency, DefaultCurrency first
	Currencies []string
}

// NewSettings builds Settings from the loaded configuration
func NewSettings(payments sharedConfig.PaymentsConfig, rates sharedConfig.RatesConfig, coins map[string]sharedConfig.CoinConfig) Settings {
	s := Settings{
		DefaultCurrency: strings.ToUpper(strings.TrimSpace(payments.Currency)),
		ExpireAfter:     payments.ExpirePaymentsAfter,
		FetchTimeout:    payments.FetchTimeout,
		Concurrency:     payments.Concurrency,
		Confirmations:   make(map[vo.CoinType]int, len(coins)),
	}
	for name, coin := range coins {
		coinType, err := vo.NewCoinType(name)
		if err != nil {
			continue
		}
		s.Confirmations[coinType] = coin.Confirmations
	}

	s.Currencies = []string{s.DefaultCurrency}
	for _, currency := range rates.Currencies {
		currency = strings.ToUpper(strings.TrimSpace(currency))
		if currency != "" && !s.AcceptsCurrency(currency) {
			s.Currencies = append(s.Currencies, currency)
		}
	}
	return s
}

// AcceptsCurrency reports whether payments may be priced in currency.
// Only currencies the rate refresh job keeps fresh are accepted.
func (s Settings) AcceptsCurrency(currency string) bool {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == s.DefaultCurrency {
		return true
	}
	for _, c := range s.Currencies {
		if c == currency {
			return true
		}
	}
	return false
}

// RequiredConfirmations returns the confirmation threshold of coinType.
// Unset values fall back to the coin default and values above MaxConfirmations are capped.
func (s Settings) RequiredConfirmations(coinType vo.CoinType) int {
	n := s.Confirmations[coinType]
	if n <= 0 {
		return coinType.DefaultConfirmations()
	}
	if n > vo.MaxConfirmations {
		return vo.MaxConfirmations
	}
	return n
}
