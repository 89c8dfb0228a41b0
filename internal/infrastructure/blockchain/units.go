package blockchain

import "github.com/shopspring/decimal"

const (
	satoshiExponent = 8
	weiExponent     = 18
)

// coinUnits converts between a coin's main unit and its smallest unit
type coinUnits struct {
	exponent int32
}

func (u coinUnits) SubunitToMain(subunits decimal.Decimal) decimal.Decimal {
	return subunits.Shift(-u.exponent)
}

func (u coinUnits) MainToSubunit(main decimal.Decimal) decimal.Decimal {
	return main.Shift(u.exponent)
}
