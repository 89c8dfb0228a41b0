package exchangerate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/coinpayable/internal/application/payment/exchangerate"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/domain/rate"
	"github.com/orris-inc/coinpayable/internal/shared/biztime"
)

// Cache duration for looked up rates
const cacheDuration = 30 * time.Second

type cachedRate struct {
	rate     *rate.ConversionRate
	cachedAt time.Time
}

// RepositoryRateProvider serves the newest stored conversion rate
type RepositoryRateProvider struct {
	repo   rate.ConversionRateRepository
	maxAge time.Duration

	mu    sync.RWMutex
	cache map[string]cachedRate
}

// NewRepositoryRateProvider creates a provider. A zero maxAge accepts rates of any age.
func NewRepositoryRateProvider(repo rate.ConversionRateRepository, maxAge time.Duration) *RepositoryRateProvider {
	return &RepositoryRateProvider{
		repo:   repo,
		maxAge: maxAge,
		cache:  make(map[string]cachedRate),
	}
}

var _ exchangerate.RateProvider = (*RepositoryRateProvider)(nil)

func (p *RepositoryRateProvider) LatestPrice(ctx context.Context, coinType vo.CoinType, currency string) (decimal.Decimal, error) {
	currency = strings.ToUpper(currency)
	key := coinType.String() + "/" + currency
	now := biztime.NowUTC()

	p.mu.RLock()
	entry, ok := p.cache[key]
	p.mu.RUnlock()

	r := entry.rate
	if !ok || now.Sub(entry.cachedAt) >= cacheDuration {
		latest, err := p.repo.GetLatest(ctx, coinType, currency)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to load conversion rate: %w", err)
		}
		if latest == nil {
			return decimal.Zero, fmt.Errorf("%w: no %s rate in %s", exchangerate.ErrConversionUnavailable, coinType, currency)
		}
		r = latest

		p.mu.Lock()
		p.cache[key] = cachedRate{rate: latest, cachedAt: now}
		p.mu.Unlock()
	}

	if r.IsStale(p.maxAge, now) {
		return decimal.Zero, fmt.Errorf("%w: %s rate in %s is older than %s",
			exchangerate.ErrConversionUnavailable, coinType, currency, p.maxAge)
	}
	return r.Price(), nil
}
