package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{99_999, "99,999"},
		{-1234, "-1,234"},
		{100_000, "100 K"},
		{345_678, "345.68 K"},
		{1_500_000, "1.5 M"},
		{2_000_000_000, "2 B"},
		{12_340_000_000_000, "12.34 T"},
		{3_000_000_000_000_000, "3 Q"},
		{-250_000, "-250 K"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, FormatMoney(tt.input))
		})
	}
}

func TestFormatAssetQuantity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    float64
		decimals int
		expected string
	}{
		{"trailing zeros stripped", 1234.5, 3, "1,234.5"},
		{"rounds to zero", 0.000001, 3, "0"},
		{"integer", 2, 0, "2"},
		{"zero decimals keeps separators", 1000, 0, "1,000"},
		{"decimals clamped high", 1.5, 20, "1.5"},
		{"decimals clamped low", 2.75, -3, "3"},
		{"small fraction", 9.0330, 3, "9.033"},
		{"nan", math.NaN(), 3, "N/A"},
		{"inf", math.Inf(1), 3, "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, FormatAssetQuantity(tt.input, tt.decimals))
		})
	}
}

func TestFormatCurrencyFloat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    float64
		decimals int
		expected string
	}{
		{"below compact threshold", 1000.1234, 3, "1,000.123"},
		{"compact thousands", 250_000.5, 2, "250 K"},
		{"compact millions", 1_234_567, 2, "1.23 M"},
		{"negative", -5, 2, "-5"},
		{"infinite", math.Inf(-1), 2, "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, FormatCurrencyFloat(tt.input, tt.decimals))
		})
	}
}
