package valueobjects

import (
	"fmt"
	"strings"
)

// Money is a fiat amount in cents
type Money struct {
	amountInCents int64
	currency      string
}

// NewMoney builds a fiat amount. The currency code is normalized to upper case.
func NewMoney(amountInCents int64, currency string) Money {
	return Money{
		amountInCents: amountInCents,
		currency:      strings.ToUpper(strings.TrimSpace(currency)),
	}
}

func (m Money) AmountInCents() int64 {
	return m.amountInCents
}

func (m Money) Currency() string {
	return m.currency
}

func (m Money) Equals(other Money) bool {
	return m.amountInCents == other.amountInCents && m.currency == other.currency
}

func (m Money) IsPositive() bool {
	return m.amountInCents > 0
}

func (m Money) String() string {
	sign := ""
	cents := m.amountInCents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, m.currency)
}
