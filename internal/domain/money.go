package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrAmountInvalid is returned when a monetary string cannot be parsed
var ErrAmountInvalid = errors.New("amount must be a valid decimal number")

var oneHundred = decimal.NewFromInt(100)

// RoundToCents rounds a monetary amount to two decimal places, half-up.
// This is the only place fractional cents are discarded; intermediate
// sums keep full precision.
func RoundToCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ApplyPercent returns amount * percent / 100 rounded to cents.
// Used for the per-cycle interest charge and the investor profit split.
func ApplyPercent(amount, percent decimal.Decimal) decimal.Decimal {
	return RoundToCents(amount.Mul(percent).Div(oneHundred))
}

// ParseAmount parses a monetary string into a decimal
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrAmountInvalid
	}
	return d, nil
}
