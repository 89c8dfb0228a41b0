package blockchain

import (
	"context"
	"encoding/json"
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
	// Etherscan V2 API base URL (unified for all EVM chains)
	etherscanV2APIURL = "https://api.etherscan.io/v2/api"
	// Ethereum mainnet chain ID
	ethereumChainID = "1"
	// HTTP request timeout
	etherscanRequestTimeout = 15 * time.Second
	// Maximum pages to scan per fetch
	maxEtherscanPages = 5
	// Results per page
	etherscanPageSize = 200
)

type etherscanResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type etherscanTx struct {
	Hash            string `json:"hash"`
	To              string `json:"to"`
	Value           string `json:"value"`
	Confirmations   string `json:"confirmations"`
	IsError         string `json:"isError"`
	TxReceiptStatus string `json:"txreceipt_status"`
}

// EtherscanAdapter serves ETH through the Etherscan V2 account API
type EtherscanAdapter struct {
	coinUnits
	apiKey  string
	chainID string
	client  *resty.Client
	deriver AddressDeriver
	logger  logger.Interface
}

func NewEtherscanAdapter(apiURL, apiKey, chainID string, deriver AddressDeriver, logger logger.Interface) *EtherscanAdapter {
	if apiURL == "" {
		apiURL = etherscanV2APIURL
	}
	if chainID == "" {
		chainID = ethereumChainID
	}
	return &EtherscanAdapter{
		coinUnits: coinUnits{exponent: weiExponent},
		apiKey:    apiKey,
		chainID:   chainID,
		client: resty.New().
			SetBaseURL(apiURL).
			SetTimeout(etherscanRequestTimeout),
		deriver: deriver,
		logger:  logger,
	}
}

var _ blockchain.Adapter = (*EtherscanAdapter)(nil)

func (a *EtherscanAdapter) CreateAddress(ctx context.Context, paymentID uint) (string, error) {
	if a.deriver == nil {
		return "", fmt.Errorf("address derivation not configured for %s", vo.CoinTypeETH)
	}
	if uint64(paymentID) > uint64(^uint32(0)) {
		return "", fmt.Errorf("payment id %d exceeds derivation range", paymentID)
	}
	return a.deriver.DeriveAddress(uint32(paymentID))
}

// FetchTransactions lists successful incoming transfers with a non-zero value
func (a *EtherscanAdapter) FetchTransactions(ctx context.Context, address string) ([]payment.ObservedTransaction, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("etherscan API key not configured")
	}

	var observed []payment.ObservedTransaction
	for page := 1; page <= maxEtherscanPages; page++ {
		txs, err := a.fetchPage(ctx, address, page)
		if err != nil {
			return nil, err
		}

		for _, tx := range txs {
			if !strings.EqualFold(tx.To, address) || tx.IsError == "1" || tx.TxReceiptStatus == "0" {
				continue
			}
			value, err := decimal.NewFromString(tx.Value)
			if err != nil {
				a.logger.Warnw("failed to parse transaction value",
					"tx_hash", tx.Hash,
					"value", tx.Value,
					"error", err,
				)
				continue
			}
			if !value.IsPositive() {
				continue
			}
			confirmations, _ := strconv.Atoi(tx.Confirmations)

			observed = append(observed, payment.ObservedTransaction{
				Hash:           tx.Hash,
				Confirmations:  confirmations,
				EstimatedValue: value,
			})
		}

		if len(txs) < etherscanPageSize {
			break
		}
	}

	return observed, nil
}

func (a *EtherscanAdapter) fetchPage(ctx context.Context, address string, page int) ([]etherscanTx, error) {
	var apiResp etherscanResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"chainid":    a.chainID,
			"module":     "account",
			"action":     "txlist",
			"address":    address,
			"startblock": "0",
			"endblock":   "99999999",
			"page":       strconv.Itoa(page),
			"offset":     strconv.Itoa(etherscanPageSize),
			"sort":       "desc",
			"apikey":     a.apiKey,
		}).
		SetResult(&apiResp).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	if apiResp.Status != "1" {
		if apiResp.Message == "No transactions found" {
			return nil, nil
		}
		var detail string
		if err := json.Unmarshal(apiResp.Result, &detail); err == nil && detail != "" {
			return nil, fmt.Errorf("etherscan API error: %s", detail)
		}
		return nil, fmt.Errorf("etherscan API error: %s", apiResp.Message)
	}

	var txs []etherscanTx
	if err := json.Unmarshal(apiResp.Result, &txs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
	}
	return txs, nil
}
