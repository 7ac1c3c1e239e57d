package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type magnitudeUnit struct {
	suffix string
	factor float64
}

var magnitudeUnits = []magnitudeUnit{
	{"K", 1e3},
	{"M", 1e6},
	{"B", 1e9},
	{"T", 1e12},
	{"Q", 1e15},
}

// FormatMoney renders whole currency units. Values under 100,000 keep every
// digit with separators; larger values use the largest unit that keeps the
// number under 1000, e.g. 345678 -> "345.68 K".
func FormatMoney(n int64) string {
	if n > -100_000 && n < 100_000 {
		return groupThousands(strconv.FormatInt(n, 10))
	}

	sign := ""
	x := math.Abs(float64(n))
	if n < 0 {
		sign = "-"
	}

	unit := magnitudeUnits[len(magnitudeUnits)-1]
	for _, u := range magnitudeUnits {
		if x < u.factor*1000 {
			unit = u
			break
		}
	}

	return fmt.Sprintf("%s%s %s", sign, trimZeros(strconv.FormatFloat(x/unit.factor, 'f', 2, 64)), unit.suffix)
}

// FormatAssetQuantity renders a coin amount with up to decimals places,
// thousands separators, and trailing zeros removed
func FormatAssetQuantity(x float64, decimals int) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "N/A"
	}
	return trimZeros(groupThousands(strconv.FormatFloat(x, 'f', clamp(decimals, 0, 12), 64)))
}

// FormatCurrencyFloat renders fractional currency such as a market price.
// It switches to unit suffixes from 100,000 upward with at most 6 decimals.
func FormatCurrencyFloat(x float64, decimals int) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "N/A"
	}

	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}

	if x < 100_000 {
		return sign + FormatAssetQuantity(x, decimals)
	}

	unit := magnitudeUnits[len(magnitudeUnits)-1]
	for _, u := range magnitudeUnits {
		if x < u.factor*1000 {
			unit = u
			break
		}
	}

	value := strconv.FormatFloat(x/unit.factor, 'f', clamp(decimals, 0, 6), 64)
	return fmt.Sprintf("%s%s %s", sign, trimZeros(value), unit.suffix)
}

// groupThousands inserts commas into the integer part of a plain decimal string
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if hasFrac {
		return sign + b.String() + "." + frac
	}
	return sign + b.String()
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
