package blockchain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"golang.org/x/crypto/sha3"
)

// AddressDeriver derives the receiving address at a non-hardened index
type AddressDeriver interface {
	DeriveAddress(index uint32) (string, error)
}

// externalChain parses an account-level xpub and returns its receive branch (m/.../0)
func externalChain(xpub string) (*hdkeychain.ExtendedKey, error) {
	xpub = strings.TrimSpace(xpub)
	if xpub == "" {
		return nil, fmt.Errorf("xpub not configured")
	}

	account, err := hdkeychain.NewKeyFromString(xpub)
	if err != nil {
		return nil, fmt.Errorf("invalid xpub: %w", err)
	}
	if account.IsPrivate() {
		return nil, fmt.Errorf("refusing to use an extended private key, configure the xpub instead")
	}

	external, err := account.Derive(0)
	if err != nil {
		return nil, fmt.Errorf("failed to derive receive branch: %w", err)
	}
	return external, nil
}

func networkParams(network string) (*chaincfg.Params, error) {
	switch strings.ToLower(network) {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network: %s", network)
	}
}

// BitcoinDeriver derives P2PKH addresses. Bitcoin Cash legacy addresses share the encoding.
type BitcoinDeriver struct {
	external *hdkeychain.ExtendedKey
	params   *chaincfg.Params
}

func NewBitcoinDeriver(xpub, network string) (*BitcoinDeriver, error) {
	params, err := networkParams(network)
	if err != nil {
		return nil, err
	}
	external, err := externalChain(xpub)
	if err != nil {
		return nil, err
	}
	return &BitcoinDeriver{external: external, params: params}, nil
}

func (d *BitcoinDeriver) DeriveAddress(index uint32) (string, error) {
	if index >= hdkeychain.HardenedKeyStart {
		return "", fmt.Errorf("derivation index %d out of range", index)
	}

	child, err := d.external.Derive(index)
	if err != nil {
		return "", fmt.Errorf("failed to derive child %d: %w", index, err)
	}
	pub, err := child.ECPubKey()
	if err != nil {
		return "", fmt.Errorf("failed to get public key: %w", err)
	}

	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), d.params)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// EthereumDeriver derives EIP-55 checksummed addresses
type EthereumDeriver struct {
	external *hdkeychain.ExtendedKey
}

func NewEthereumDeriver(xpub string) (*EthereumDeriver, error) {
	external, err := externalChain(xpub)
	if err != nil {
		return nil, err
	}
	return &EthereumDeriver{external: external}, nil
}

func (d *EthereumDeriver) DeriveAddress(index uint32) (string, error) {
	if index >= hdkeychain.HardenedKeyStart {
		return "", fmt.Errorf("derivation index %d out of range", index)
	}

	child, err := d.external.Derive(index)
	if err != nil {
		return "", fmt.Errorf("failed to derive child %d: %w", index, err)
	}
	pub, err := child.ECPubKey()
	if err != nil {
		return "", fmt.Errorf("failed to get public key: %w", err)
	}

	// Drop the 0x04 prefix of the uncompressed point
	hash := keccak256(pub.SerializeUncompressed()[1:])
	return checksumAddress(hex.EncodeToString(hash[12:])), nil
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// checksumAddress applies EIP-55 mixed-case encoding to a lowercase hex address
func checksumAddress(lowerHex string) string {
	hash := hex.EncodeToString(keccak256([]byte(lowerHex)))

	out := make([]byte, len(lowerHex))
	for i := 0; i < len(lowerHex); i++ {
		c := lowerHex[i]
		if c >= 'a' && c <= 'f' && hash[i] >= '8' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return "0x" + string(out)
}
