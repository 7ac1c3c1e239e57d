package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// ApplyRate returns floor(amount * rate) computed exactly
func ApplyRate(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Floor().IntPart()
}

// RateFromFloat converts a configured fraction such as 0.06 into a decimal
// without binary rounding noise
func RateFromFloat(rate float64) decimal.Decimal {
	return decimal.NewFromFloat(rate)
}

// IsFinitePositive reports whether v is a usable price or reserve
func IsFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
