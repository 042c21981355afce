package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// Parse reads a positive amount with at most two decimal places. Both "1234.56"
// and the Brazilian "1.234,56" notations are accepted.
func Parse(input string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	trimmed = strings.TrimPrefix(trimmed, "R$")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(trimmed, ",") {
		trimmed = strings.ReplaceAll(trimmed, ".", "")
		trimmed = strings.Replace(trimmed, ",", ".", 1)
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return Validate(value)
}

// Validate rejects zero, negative and sub-cent amounts.
func Validate(value decimal.Decimal) (decimal.Decimal, error) {
	if !value.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if value.Exponent() < -2 && !value.Equal(value.Round(2)) {
		return decimal.Zero, ErrTooManyDecimals
	}
	return value.Round(2), nil
}

// FromFloat converts a model-provided float to a two-decimal amount.
func FromFloat(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value).Round(2)
}

// FormatBRL renders "R$ 1.234,56"; negative values become "R$ -1.234,56".
func FormatBRL(value decimal.Decimal) string {
	return "R$ " + FormatNumber(value)
}

// FormatNumber renders the pt-BR number without the currency symbol.
func FormatNumber(value decimal.Decimal) string {
	fixed := value.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	out := grouped.String() + "," + frac
	if value.IsNegative() && !value.Round(2).IsZero() {
		return "-" + out
	}
	return out
}
