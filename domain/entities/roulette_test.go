package entities

import (
	"testing"

	"econsim/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRouletteChoice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  RouletteRule
	}{
		{"17", NumberRule{N: 17}},
		{"n0", NumberRule{N: 0}},
		{" RED ", ColorRule{Red: true}},
		{"black", ColorRule{Red: false}},
		{"even", ParityRule{Even: true}},
		{"odd", ParityRule{Even: false}},
		{"high", HighLowRule{High: true}},
		{"low", HighLowRule{High: false}},
		{"1st12", DozenRule{Dozen: 1}},
		{"second12", DozenRule{Dozen: 2}},
		{"d3", DozenRule{Dozen: 3}},
		{"column2", ColumnRule{Column: 2}},
		{"c3", ColumnRule{Column: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			rule, err := ParseRouletteChoice(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rule)
		})
	}
}

func TestParseRouletteChoice_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseRouletteChoice("37")
	assert.ErrorIs(t, err, domain.ErrInvalidNumberRange)

	_, err = ParseRouletteChoice("n99")
	assert.ErrorIs(t, err, domain.ErrInvalidNumberRange)

	_, err = ParseRouletteChoice("green")
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = ParseRouletteChoice("n")
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestRouletteRules_Wins(t *testing.T) {
	t.Parallel()

	assert.True(t, NumberRule{N: 0}.Wins(0))
	assert.False(t, NumberRule{N: 1}.Wins(0))

	// zero loses every outside bet
	for _, rule := range []RouletteRule{
		ColorRule{Red: true}, ColorRule{}, ParityRule{Even: true}, ParityRule{},
		HighLowRule{High: true}, HighLowRule{}, DozenRule{Dozen: 1}, ColumnRule{Column: 3},
	} {
		assert.False(t, rule.Wins(0), rule.Label())
	}

	assert.True(t, ColorRule{Red: true}.Wins(1))
	assert.True(t, ColorRule{Red: false}.Wins(2))
	assert.True(t, ParityRule{Even: true}.Wins(36))
	assert.True(t, ParityRule{Even: false}.Wins(35))
	assert.True(t, HighLowRule{High: true}.Wins(19))
	assert.False(t, HighLowRule{High: true}.Wins(18))
	assert.True(t, HighLowRule{High: false}.Wins(18))
	assert.True(t, DozenRule{Dozen: 2}.Wins(13))
	assert.True(t, DozenRule{Dozen: 2}.Wins(24))
	assert.False(t, DozenRule{Dozen: 2}.Wins(25))
	assert.True(t, ColumnRule{Column: 1}.Wins(34))
	assert.True(t, ColumnRule{Column: 2}.Wins(35))
	assert.True(t, ColumnRule{Column: 3}.Wins(36))
	assert.False(t, ColumnRule{Column: 3}.Wins(35))
}

func TestRouletteRules_PayoutsAndColors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(50), NumberRule{N: 5}.Payout())
	assert.Equal(t, int64(1), ColorRule{}.Payout())
	assert.Equal(t, int64(3), DozenRule{Dozen: 1}.Payout())
	assert.Equal(t, int64(3), ColumnRule{Column: 1}.Payout())
	assert.Equal(t, "Dozen 3 (25-36)", DozenRule{Dozen: 3}.Label())

	assert.Equal(t, "green", RouletteColor(0))
	assert.Equal(t, "red", RouletteColor(32))
	assert.Equal(t, "black", RouletteColor(33))
}
