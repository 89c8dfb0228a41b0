package coinpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Webhook request headers
const (
	HeaderEvent     = "X-Coinpay-Event"
	HeaderDelivery  = "X-Coinpay-Delivery"
	HeaderSignature = "X-Coinpay-Signature"
)

const maxDeliveryBytes = 1 << 20

var ErrInvalidSignature = errors.New("invalid webhook signature")

// VerifySignature checks a "sha256=<hex>" signature of body under secret.
func VerifySignature(secret string, body []byte, signature string) bool {
	raw, ok := strings.CutPrefix(signature, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(raw)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// ParseDelivery reads and verifies a webhook request.
// An empty secret skips verification.
func ParseDelivery(r *http.Request, secret string) (*Delivery, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDeliveryBytes))
	if err != nil {
		return nil, fmt.Errorf("read delivery: %w", err)
	}

	if secret != "" && !VerifySignature(secret, body, r.Header.Get(HeaderSignature)) {
		return nil, ErrInvalidSignature
	}

	var d Delivery
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("unmarshal delivery: %w", err)
	}
	return &d, nil
}
