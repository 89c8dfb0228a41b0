package blockchain

import (
	"fmt"
	"sort"
	"sync"

	"github.com/orris-inc/coinpayable/internal/application/payment/blockchain"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	sharedConfig "github.com/orris-inc/coinpayable/internal/shared/config"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

// Registry routes a coin type to its adapter
type Registry struct {
	mu       sync.RWMutex
	adapters map[vo.CoinType]blockchain.Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[vo.CoinType]blockchain.Adapter)}
}

var _ blockchain.Registry = (*Registry)(nil)

// NewRegistryFromConfig builds an adapter for every enabled coin
func NewRegistryFromConfig(coins map[string]sharedConfig.CoinConfig, logger logger.Interface) (*Registry, error) {
	r := NewRegistry()

	for name, cfg := range coins {
		if !cfg.Enabled {
			continue
		}
		coinType, err := vo.NewCoinType(name)
		if err != nil {
			return nil, err
		}

		adapter, err := newAdapter(coinType, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to configure %s adapter: %w", coinType, err)
		}
		r.Register(coinType, adapter)

		logger.Infow("blockchain adapter registered",
			"coin_type", coinType,
			"network", cfg.Network,
			"api_url", cfg.APIURL,
		)
	}

	return r, nil
}

func newAdapter(coinType vo.CoinType, cfg sharedConfig.CoinConfig, logger logger.Interface) (blockchain.Adapter, error) {
	switch coinType {
	case vo.CoinTypeBTC, vo.CoinTypeBCH:
		deriver, err := NewBitcoinDeriver(cfg.XPub, cfg.Network)
		if err != nil {
			return nil, err
		}
		if cfg.APIURL == "" {
			return nil, fmt.Errorf("api_url is required")
		}
		return NewEsploraAdapter(coinType, cfg.APIURL, deriver, logger), nil
	case vo.CoinTypeETH:
		deriver, err := NewEthereumDeriver(cfg.XPub)
		if err != nil {
			return nil, err
		}
		return NewEtherscanAdapter(cfg.APIURL, cfg.APIKey, cfg.ChainID, deriver, logger), nil
	default:
		return nil, fmt.Errorf("unsupported coin type: %s", coinType)
	}
}

func (r *Registry) Register(coinType vo.CoinType, adapter blockchain.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[coinType] = adapter
}

func (r *Registry) AdapterFor(coinType vo.CoinType) (blockchain.Adapter, error) {
	r.mu.RLock()
	adapter, ok := r.adapters[coinType]
	r.mu.RUnlock()

	if !ok {
		return nil, blockchain.NewAdapterError(coinType, "lookup", fmt.Errorf("coin type not enabled"))
	}
	return adapter, nil
}

// CoinTypes returns the enabled coin types in a stable order
func (r *Registry) CoinTypes() []vo.CoinType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]vo.CoinType, 0, len(r.adapters))
	for coinType := range r.adapters {
		out = append(out, coinType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
