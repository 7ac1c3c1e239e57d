package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLotteryTicket_MatchesIsPositional(t *testing.T) {
	t.Parallel()

	winning := [MainNumberCount]int{1, 2, 3, 4, 5}

	tests := []struct {
		name      string
		ticket    LotteryTicket
		matched   int
		powerball bool
		tier      LotteryTier
	}{
		{"jackpot", LotteryTicket{Numbers: [5]int{1, 2, 3, 4, 5}, Powerball: 2}, 5, true, LotteryTierJackpot},
		{"five without powerball", LotteryTicket{Numbers: [5]int{1, 2, 3, 4, 5}, Powerball: 1}, 5, false, LotteryTierFive},
		{"same set other order", LotteryTicket{Numbers: [5]int{5, 4, 3, 2, 1}, Powerball: 2}, 1, true, LotteryTierNone},
		{"four", LotteryTicket{Numbers: [5]int{1, 2, 3, 4, 6}, Powerball: 3}, 4, false, LotteryTierFour},
		{"three", LotteryTicket{Numbers: [5]int{1, 2, 3, 6, 6}, Powerball: 3}, 3, false, LotteryTierThree},
		{"two", LotteryTicket{Numbers: [5]int{6, 2, 6, 4, 6}, Powerball: 3}, 2, false, LotteryTierTwo},
		{"none", LotteryTicket{Numbers: [5]int{6, 6, 6, 6, 6}, Powerball: 2}, 0, true, LotteryTierNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			matched, pb := tt.ticket.Matches(winning, 2)
			assert.Equal(t, tt.matched, matched)
			assert.Equal(t, tt.powerball, pb)
			assert.Equal(t, tt.tier, TierFor(matched, pb))
		})
	}
}

func TestLotteryTier_FixedPrizes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(100000), LotteryTierFixedPrizes[LotteryTierFive])
	assert.Equal(t, int64(25000), LotteryTierFixedPrizes[LotteryTierFour])
	assert.Equal(t, int64(5000), LotteryTierFixedPrizes[LotteryTierThree])
	assert.Equal(t, int64(500), LotteryTierFixedPrizes[LotteryTierTwo])
	_, hasJackpot := LotteryTierFixedPrizes[LotteryTierJackpot]
	assert.False(t, hasJackpot)
	assert.Equal(t, "5+PB", LotteryTierJackpot.String())
}
