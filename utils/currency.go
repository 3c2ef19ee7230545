package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatARS formats an amount the way menus are printed in Argentina.
// Example: 18800 -> "$ 18.800", 1234.5 -> "$ 1.234,50"
func FormatARS(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	parts := strings.SplitN(fixed, ".", 2)
	integerPart, decimalPart := parts[0], parts[1]

	// thousands separated by dots
	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	out := "$ " + sign + strings.Join(groups, ".")
	if decimalPart != "00" {
		out += "," + decimalPart
	}
	return out
}
