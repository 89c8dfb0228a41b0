package payment

import (
	"github.com/shopspring/decimal"
)

// UnitConverter translates between a coin's smallest unit and its main unit.
// Each blockchain adapter supplies the granularity of its coin.
type UnitConverter interface {
	SubunitToMain(subunits decimal.Decimal) decimal.Decimal
	MainToSubunit(main decimal.Decimal) decimal.Decimal
}

// CurrencyAmountPaid is the fiat cents received, each row valued at its own rate snapshot.
// Rounding half-up happens once on the total.
func (p *Payment) CurrencyAmountPaid(conv UnitConverter) int64 {
	total := decimal.Zero
	for _, tx := range p.transactions {
		total = total.Add(conv.SubunitToMain(tx.estimatedValue).Mul(tx.coinConversion))
	}
	return total.Round(0).IntPart()
}

// CurrencyAmountDue is price minus paid. Negative means overpaid.
func (p *Payment) CurrencyAmountDue(conv UnitConverter) int64 {
	return p.price.AmountInCents() - p.CurrencyAmountPaid(conv)
}

// CalculateCoinAmountDue converts the outstanding fiat amount at rate into whole subunits, rounding up.
// Overpaid payments owe zero.
func (p *Payment) CalculateCoinAmountDue(conv UnitConverter, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidConversionRate
	}

	due := p.CurrencyAmountDue(conv)
	if due <= 0 {
		return decimal.Zero, nil
	}

	// Scale before dividing and take an exact quotient, wei amounts exceed Div's default precision
	subunits, remainder := conv.MainToSubunit(decimal.NewFromInt(due)).QuoRem(rate, 0)
	if remainder.IsPositive() {
		subunits = subunits.Add(decimal.NewFromInt(1))
	}
	return subunits, nil
}

// UpdateCoinAmountDue recomputes coin_amount_due at rate and snapshots rate as the payment's conversion
func (p *Payment) UpdateCoinAmountDue(conv UnitConverter, rate decimal.Decimal) error {
	due, err := p.CalculateCoinAmountDue(conv, rate)
	if err != nil {
		return err
	}
	p.coinAmountDue = due
	p.coinConversion = rate
	p.touch()
	return nil
}

// CoinAmountDueMain is coin_amount_due in main units
func (p *Payment) CoinAmountDueMain(conv UnitConverter) decimal.Decimal {
	return conv.SubunitToMain(p.coinAmountDue)
}

// CoinAmountPaid is the received value in main units
func (p *Payment) CoinAmountPaid(conv UnitConverter) decimal.Decimal {
	return conv.SubunitToMain(p.CoinAmountPaidSubunit())
}

func (p *Payment) CoinAmountPaidSubunit() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range p.transactions {
		total = total.Add(tx.estimatedValue)
	}
	return total
}
