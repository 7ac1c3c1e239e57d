package entities

import (
	"fmt"
	"strconv"
	"strings"

	"econsim/domain"
)

// RouletteMaxNumber is the highest pocket on the wheel; pockets run from 0
const RouletteMaxNumber = 36

var rouletteRed = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true, 18: true,
	19: true, 21: true, 23: true, 25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// RouletteColor returns "green", "red" or "black" for a pocket
func RouletteColor(n int) string {
	if n == 0 {
		return "green"
	}
	if rouletteRed[n] {
		return "red"
	}
	return "black"
}

// RouletteRule is a single kind of roulette wager. Implementations are
// closed to this package.
type RouletteRule interface {
	// Wins reports whether the rule pays for the spun pocket
	Wins(spin int) bool
	// Payout is the profit multiple paid on a win
	Payout() int64
	// Label describes the wager
	Label() string

	sealed()
}

// NumberRule wins on a single pocket
type NumberRule struct{ N int }

// ColorRule wins on red or black
type ColorRule struct{ Red bool }

// ParityRule wins on even or odd
type ParityRule struct{ Even bool }

// HighLowRule wins on 19-36 or 1-18
type HighLowRule struct{ High bool }

// DozenRule wins on 1-12, 13-24 or 25-36
type DozenRule struct{ Dozen int }

// ColumnRule wins on one of the three table columns
type ColumnRule struct{ Column int }

func (NumberRule) sealed()  {}
func (ColorRule) sealed()   {}
func (ParityRule) sealed()  {}
func (HighLowRule) sealed() {}
func (DozenRule) sealed()   {}
func (ColumnRule) sealed()  {}

func (r NumberRule) Wins(spin int) bool { return spin == r.N }
func (r NumberRule) Payout() int64      { return 50 }
func (r NumberRule) Label() string      { return fmt.Sprintf("Number %d", r.N) }

func (r ColorRule) Wins(spin int) bool {
	if spin == 0 {
		return false
	}
	return rouletteRed[spin] == r.Red
}
func (r ColorRule) Payout() int64 { return 1 }
func (r ColorRule) Label() string {
	if r.Red {
		return "Red"
	}
	return "Black"
}

func (r ParityRule) Wins(spin int) bool {
	if spin == 0 {
		return false
	}
	return (spin%2 == 0) == r.Even
}
func (r ParityRule) Payout() int64 { return 1 }
func (r ParityRule) Label() string {
	if r.Even {
		return "Even"
	}
	return "Odd"
}

func (r HighLowRule) Wins(spin int) bool {
	if spin == 0 {
		return false
	}
	if r.High {
		return spin >= 19 && spin <= 36
	}
	return spin >= 1 && spin <= 18
}
func (r HighLowRule) Payout() int64 { return 1 }
func (r HighLowRule) Label() string {
	if r.High {
		return "High"
	}
	return "Low"
}

func (r DozenRule) Wins(spin int) bool {
	if spin == 0 {
		return false
	}
	low := (r.Dozen-1)*12 + 1
	return spin >= low && spin <= low+11
}
func (r DozenRule) Payout() int64 { return 3 }
func (r DozenRule) Label() string {
	low := (r.Dozen-1)*12 + 1
	return fmt.Sprintf("Dozen %d (%d-%d)", r.Dozen, low, low+11)
}

func (r ColumnRule) Wins(spin int) bool {
	if spin == 0 {
		return false
	}
	return spin%3 == r.Column%3
}
func (r ColumnRule) Payout() int64 { return 3 }
func (r ColumnRule) Label() string { return fmt.Sprintf("Column %d", r.Column) }

var rouletteAliases = map[string]RouletteRule{
	"red":      ColorRule{Red: true},
	"black":    ColorRule{Red: false},
	"even":     ParityRule{Even: true},
	"odd":      ParityRule{Even: false},
	"high":     HighLowRule{High: true},
	"low":      HighLowRule{High: false},
	"dozen1":   DozenRule{Dozen: 1},
	"d1":       DozenRule{Dozen: 1},
	"1st12":    DozenRule{Dozen: 1},
	"first12":  DozenRule{Dozen: 1},
	"dozen2":   DozenRule{Dozen: 2},
	"d2":       DozenRule{Dozen: 2},
	"2nd12":    DozenRule{Dozen: 2},
	"second12": DozenRule{Dozen: 2},
	"dozen3":   DozenRule{Dozen: 3},
	"d3":       DozenRule{Dozen: 3},
	"3rd12":    DozenRule{Dozen: 3},
	"third12":  DozenRule{Dozen: 3},
	"col1":     ColumnRule{Column: 1},
	"column1":  ColumnRule{Column: 1},
	"c1":       ColumnRule{Column: 1},
	"col2":     ColumnRule{Column: 2},
	"column2":  ColumnRule{Column: 2},
	"c2":       ColumnRule{Column: 2},
	"col3":     ColumnRule{Column: 3},
	"column3":  ColumnRule{Column: 3},
	"c3":       ColumnRule{Column: 3},
}

// ParseRouletteChoice turns a wager description such as "red", "17", "n17",
// "dozen2" or "col3" into its rule
func ParseRouletteChoice(choice string) (RouletteRule, error) {
	c := strings.ToLower(strings.TrimSpace(choice))

	digits := strings.TrimPrefix(c, "n")
	if digits != "" && isAllDigits(digits) {
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 || n > RouletteMaxNumber {
			return nil, fmt.Errorf("%w: roulette number %q", domain.ErrInvalidNumberRange, choice)
		}
		return NumberRule{N: n}, nil
	}

	if rule, ok := rouletteAliases[c]; ok {
		return rule, nil
	}
	return nil, fmt.Errorf("%w: unknown roulette choice %q", domain.ErrInvalidParameter, choice)
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
