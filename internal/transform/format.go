package transform

import (
	"fmt"
	"math"
)

// FormatNumber abbreviates large values with K/M/B suffixes.
func FormatNumber(num float64, decimals int) string {
	abs := math.Abs(num)
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.*fB", decimals, num/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.*fM", decimals, num/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.*fK", decimals, num/1_000)
	default:
		return fmt.Sprintf("%.*f", decimals, num)
	}
}

// FormatCurrency abbreviates a USD value with K/M/B suffixes.
func FormatCurrency(num float64, decimals int) string {
	return "$" + FormatNumber(num, decimals)
}

// FormatPercent renders a percentage to the given precision.
func FormatPercent(num float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, num)
}
