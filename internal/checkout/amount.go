package checkout

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxUnitAmount is the processor's upper bound for a single unit amount.
const maxUnitAmount = 99_999_999

var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

var threeDecimalCurrencies = map[string]bool{
	"bhd": true, "jod": true, "kwd": true, "omr": true, "tnd": true,
}

func currencyExponent(currency string) int32 {
	c := strings.ToLower(currency)
	switch {
	case zeroDecimalCurrencies[c]:
		return 0
	case threeDecimalCurrencies[c]:
		return 3
	default:
		return 2
	}
}

// MinorUnits converts a major-unit amount into the processor's integer
// minor units for currency.
func MinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	if !amount.IsPositive() {
		return 0, &ValidationError{Message: "price must be greater than zero", Fields: []string{"price"}}
	}

	minor := amount.Shift(currencyExponent(currency))
	if !minor.IsInteger() {
		return 0, &ValidationError{Message: "price has more decimal places than " + strings.ToUpper(currency) + " allows", Fields: []string{"price"}}
	}
	if minor.GreaterThan(decimal.NewFromInt(maxUnitAmount)) {
		return 0, &ValidationError{Message: "price exceeds the maximum amount", Fields: []string{"price"}}
	}
	return minor.IntPart(), nil
}
