package utils

import (
	"fmt"
	"math"
)

const maxAmericanOdds = 9999

// AmericanOdds renders the payout ratio of an option in a parimutuel pool.
// Returns "N/A" when the option would not profit.
func AmericanOdds(effectivePool, optionPool int64) string {
	if effectivePool <= 0 || optionPool <= 0 {
		return "N/A"
	}
	profit := float64(effectivePool)/float64(optionPool) - 1
	if profit <= 0 {
		return "N/A"
	}
	if profit >= 1 {
		return fmt.Sprintf("+%d", min(int64(math.RoundToEven(100*profit)), maxAmericanOdds))
	}
	return fmt.Sprintf("-%d", min(int64(math.RoundToEven(100/profit)), maxAmericanOdds))
}
