package blockchain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/orris-inc/coinpayable/internal/application/payment/blockchain"
	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

const (
	// HTTP request timeout
	esploraRequestTimeout = 15 * time.Second
	// Confirmed transactions per /txs/chain page
	esploraChainPageSize = 25
	// Maximum confirmed-history pages to follow per fetch
	maxEsploraPages = 20
)

type esploraTx struct {
	TxID   string `json:"txid"`
	Status struct {
		Confirmed   bool  `json:"confirmed"`
		BlockHeight int64 `json:"block_height"`
	} `json:"status"`
	Vout []struct {
		ScriptPubKeyAddress string `json:"scriptpubkey_address"`
		Value               int64  `json:"value"`
	} `json:"vout"`
}

// EsploraAdapter serves UTXO coins through an Esplora compatible REST API
type EsploraAdapter struct {
	coinUnits
	coinType vo.CoinType
	client   *resty.Client
	deriver  AddressDeriver
	logger   logger.Interface
}

func NewEsploraAdapter(coinType vo.CoinType, apiURL string, deriver AddressDeriver, logger logger.Interface) *EsploraAdapter {
	return &EsploraAdapter{
		coinUnits: coinUnits{exponent: satoshiExponent},
		coinType:  coinType,
		client: resty.New().
			SetBaseURL(strings.TrimRight(apiURL, "/")).
			SetTimeout(esploraRequestTimeout),
		deriver: deriver,
		logger:  logger,
	}
}

var _ blockchain.Adapter = (*EsploraAdapter)(nil)

func (a *EsploraAdapter) CreateAddress(ctx context.Context, paymentID uint) (string, error) {
	if a.deriver == nil {
		return "", fmt.Errorf("address derivation not configured for %s", a.coinType)
	}
	if uint64(paymentID) > uint64(^uint32(0)) {
		return "", fmt.Errorf("payment id %d exceeds derivation range", paymentID)
	}
	return a.deriver.DeriveAddress(uint32(paymentID))
}

// FetchTransactions lists mempool and confirmed transactions paying address.
// Value is the sum of outputs to address; outgoing-only transactions are dropped.
func (a *EsploraAdapter) FetchTransactions(ctx context.Context, address string) ([]payment.ObservedTransaction, error) {
	tip, err := a.tipHeight(ctx)
	if err != nil {
		return nil, err
	}

	txs, err := a.getTxs(ctx, fmt.Sprintf("/address/%s/txs", address))
	if err != nil {
		return nil, err
	}

	lastConfirmed, confirmedCount := "", 0
	for _, tx := range txs {
		if tx.Status.Confirmed {
			lastConfirmed = tx.TxID
			confirmedCount++
		}
	}

	// The first page holds at most one page of confirmed history
	for page := 0; confirmedCount >= esploraChainPageSize && page < maxEsploraPages; page++ {
		more, err := a.getTxs(ctx, fmt.Sprintf("/address/%s/txs/chain/%s", address, lastConfirmed))
		if err != nil {
			return nil, err
		}
		if len(more) == 0 {
			break
		}
		txs = append(txs, more...)
		lastConfirmed = more[len(more)-1].TxID
		confirmedCount = len(more)
	}

	seen := make(map[string]struct{}, len(txs))
	observed := make([]payment.ObservedTransaction, 0, len(txs))
	for _, tx := range txs {
		if _, dup := seen[tx.TxID]; dup {
			continue
		}
		seen[tx.TxID] = struct{}{}

		var value int64
		for _, out := range tx.Vout {
			if out.ScriptPubKeyAddress == address {
				value += out.Value
			}
		}
		if value <= 0 {
			continue
		}

		confirmations := 0
		if tx.Status.Confirmed && tip >= tx.Status.BlockHeight {
			confirmations = int(tip - tx.Status.BlockHeight + 1)
		}

		observed = append(observed, payment.ObservedTransaction{
			Hash:           tx.TxID,
			Confirmations:  confirmations,
			EstimatedValue: decimal.NewFromInt(value),
		})
	}

	a.logger.Debugw("fetched esplora transactions",
		"coin_type", a.coinType,
		"address", address,
		"tip_height", tip,
		"count", len(observed),
	)

	return observed, nil
}

func (a *EsploraAdapter) tipHeight(ctx context.Context) (int64, error) {
	resp, err := a.client.R().SetContext(ctx).Get("/blocks/tip/height")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch tip height: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("tip height: unexpected status code %d", resp.StatusCode())
	}

	height, err := strconv.ParseInt(strings.TrimSpace(resp.String()), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid tip height %q: %w", resp.String(), err)
	}
	return height, nil
}

func (a *EsploraAdapter) getTxs(ctx context.Context, path string) ([]esploraTx, error) {
	var txs []esploraTx
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&txs).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("transactions: unexpected status code %d: %s", resp.StatusCode(), resp.String())
	}
	return txs, nil
}
