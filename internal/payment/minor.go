// Package payment talks to the payment gateway: it creates gateway orders,
// verifies callback and webhook signatures and converts amounts to the
// gateway's minor units.
package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnitExponents lists currencies whose minor unit is not 1/100.
var minorUnitExponents = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
}

// MinorUnitExponent returns the number of decimal places of a currency's minor unit.
func MinorUnitExponent(currency string) int32 {
	if exp, ok := minorUnitExponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}

// ToMinorUnits converts a decimal amount to the gateway's integer minor units,
// rounding half away from zero (149.50 INR -> 14950 paise).
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(MinorUnitExponent(currency)).Round(0).IntPart()
}
