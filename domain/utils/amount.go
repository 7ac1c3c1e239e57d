package utils

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"econsim/domain"

	"github.com/shopspring/decimal"
)

var amountPattern = regexp.MustCompile(`^\s*([+-]?\d+(?:\.\d+)?)\s*([a-zA-Z]{0,5})\s*$`)

var amountSuffixes = map[string]int64{
	"":     1,
	"K":    1_000,
	"M":    1_000_000,
	"B":    1_000_000_000,
	"T":    1_000_000_000_000,
	"Q":    1_000_000_000_000_000,
	"THOU": 1_000,
	"MIL":  1_000_000,
	"MILL": 1_000_000,
	"BIL":  1_000_000_000,
	"TRIL": 1_000_000_000_000,
	"QUAD": 1_000_000_000_000_000,
	"MM":   1_000_000,
}

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// ParseAmount converts text such as "2.5K", "3mil" or "1,000" into whole
// currency units. The scaled value is truncated toward zero. maxValue is
// optional.
func ParseAmount(text string, minValue int64, maxValue *int64) (int64, error) {
	raw := strings.NewReplacer(",", "", "_", "").Replace(strings.TrimSpace(text))
	if raw == "" {
		return 0, fmt.Errorf("%w: missing amount", domain.ErrInvalidAmount)
	}

	m := amountPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("%w: invalid amount format %q", domain.ErrInvalidAmount, text)
	}

	suffix := strings.ToUpper(m[2])
	suffix = strings.TrimSuffix(suffix, "S")
	mult, ok := amountSuffixes[suffix]
	if !ok {
		return 0, fmt.Errorf("%w: unknown suffix %q", domain.ErrInvalidAmount, m[2])
	}

	mantissa, err := decimal.NewFromString(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %q", domain.ErrInvalidAmount, m[1])
	}

	scaled := mantissa.Mul(decimal.NewFromInt(mult)).Truncate(0)
	if scaled.GreaterThan(maxInt64) || scaled.LessThan(minInt64) {
		return 0, fmt.Errorf("%w: %q is out of range", domain.ErrInvalidAmount, text)
	}

	value := scaled.IntPart()
	if value < minValue {
		return 0, fmt.Errorf("%w: too small (minimum %d)", domain.ErrInvalidAmount, minValue)
	}
	if maxValue != nil && value > *maxValue {
		return 0, fmt.Errorf("%w: too large (maximum %d)", domain.ErrInvalidAmount, *maxValue)
	}
	return value, nil
}
