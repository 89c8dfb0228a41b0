package valueobjects

import (
	"fmt"
	"regexp"
	"strings"
)

// CoinType identifies the cryptocurrency a payment is settled in
type CoinType string

const (
	CoinTypeBTC CoinType = "btc"
	CoinTypeETH CoinType = "eth"
	CoinTypeBCH CoinType = "bch"
)

// MaxConfirmations caps configured confirmation thresholds
const MaxConfirmations = 100

var supportedCoinTypes = []CoinType{CoinTypeBTC, CoinTypeETH, CoinTypeBCH}

// NewCoinType parses a coin type, accepting any letter case
func NewCoinType(coinType string) (CoinType, error) {
	ct := CoinType(strings.ToLower(strings.TrimSpace(coinType)))
	if !ct.IsValid() {
		return "", fmt.Errorf("invalid coin type: %s", coinType)
	}
	return ct, nil
}

// SupportedCoinTypes returns every coin type the engine knows about
func SupportedCoinTypes() []CoinType {
	out := make([]CoinType, len(supportedCoinTypes))
	copy(out, supportedCoinTypes)
	return out
}

func (ct CoinType) IsValid() bool {
	for _, supported := range supportedCoinTypes {
		if ct == supported {
			return true
		}
	}
	return false
}

func (ct CoinType) String() string {
	return string(ct)
}

// DefaultConfirmations returns the block confirmations required when none are configured
func (ct CoinType) DefaultConfirmations() int {
	switch ct {
	case CoinTypeBTC:
		return 3
	case CoinTypeBCH:
		return 6
	case CoinTypeETH:
		return 12
	default:
		return 0
	}
}

var (
	// Legacy base58 (P2PKH/P2SH) and bech32 segwit
	btcAddressPattern = regexp.MustCompile(`^([13mn2][1-9A-HJ-NP-Za-km-z]{25,34}|(bc1|tb1)[02-9ac-hj-np-z]{11,71})$`)
	// Legacy base58 or cashaddr with optional prefix
	bchAddressPattern = regexp.MustCompile(`^([13mn2][1-9A-HJ-NP-Za-km-z]{25,34}|((bitcoincash|bchtest):)?[qp][02-9ac-hj-np-z]{41})$`)
	ethAddressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
)

// ValidateAddress checks the textual format of a receiving address for this coin type
func (ct CoinType) ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	var pattern *regexp.Regexp
	switch ct {
	case CoinTypeBTC:
		pattern = btcAddressPattern
	case CoinTypeBCH:
		pattern = bchAddressPattern
	case CoinTypeETH:
		pattern = ethAddressPattern
	default:
		return fmt.Errorf("cannot validate address for unknown coin type: %s", ct)
	}

	if !pattern.MatchString(address) {
		return fmt.Errorf("invalid %s address format: %s", ct, address)
	}
	return nil
}
