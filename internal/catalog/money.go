package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FromEuros converts a decimal euro amount to cents, rounding half away from zero.
func FromEuros(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// ToEuros converts cents to a euro amount suitable for JSON output.
func ToEuros(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

// ParseEuros parses a price as published by shops: "0,89", "1.20 €", "€3.5".
func ParseEuros(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.NewReplacer("€", "", "EUR", "", " ", "").Replace(clean)
	if strings.Contains(clean, ",") {
		// "1.234,56" style: dots are thousand separators.
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid price %q: negative", s)
	}
	return FromEuros(d), nil
}
