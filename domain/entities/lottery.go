package entities

import (
	"time"

	"github.com/google/uuid"
)

// MainNumberCount is how many main numbers a ticket carries
const MainNumberCount = 5

// LotteryTicket is one entry into the next draw
type LotteryTicket struct {
	ID        int64                `db:"id"`
	AccountID int64                `db:"account_id"`
	Numbers   [MainNumberCount]int `db:"-"`
	Powerball int                  `db:"pb"`
	BoughtAt  time.Time            `db:"bought_at"`
}

// Matches counts positional matches against the winning numbers and checks the powerball
func (t *LotteryTicket) Matches(winning [MainNumberCount]int, powerball int) (int, bool) {
	matched := 0
	for i, n := range t.Numbers {
		if n == winning[i] {
			matched++
		}
	}
	return matched, t.Powerball == powerball
}

// LotteryTier identifies a prize level
type LotteryTier int

const (
	LotteryTierNone LotteryTier = iota
	LotteryTierTwo
	LotteryTierThree
	LotteryTierFour
	LotteryTierFive
	LotteryTierJackpot
)

// LotteryTierFixedPrizes holds the fixed prize per winner for the non-jackpot tiers
var LotteryTierFixedPrizes = map[LotteryTier]int64{
	LotteryTierFive:  100000,
	LotteryTierFour:  25000,
	LotteryTierThree: 5000,
	LotteryTierTwo:   500,
}

// LotteryFixedTierOrder is the order fixed tiers are settled against the pool
var LotteryFixedTierOrder = []LotteryTier{LotteryTierFive, LotteryTierFour, LotteryTierThree, LotteryTierTwo}

// TierFor maps a match result onto its prize tier
func TierFor(matched int, powerball bool) LotteryTier {
	switch {
	case matched == MainNumberCount && powerball:
		return LotteryTierJackpot
	case matched == 5:
		return LotteryTierFive
	case matched == 4:
		return LotteryTierFour
	case matched == 3:
		return LotteryTierThree
	case matched == 2:
		return LotteryTierTwo
	}
	return LotteryTierNone
}

// String returns a short label for the tier
func (t LotteryTier) String() string {
	switch t {
	case LotteryTierJackpot:
		return "5+PB"
	case LotteryTierFive:
		return "5"
	case LotteryTierFour:
		return "4"
	case LotteryTierThree:
		return "3"
	case LotteryTierTwo:
		return "2"
	}
	return "none"
}

// LotteryPayout is one account's winnings from a draw
type LotteryPayout struct {
	AccountID int64
	Tier      LotteryTier
	Gross     int64
	Tax       int64
	Net       int64
}

// LotteryDraw is the audit record of a completed draw
type LotteryDraw struct {
	ID            uuid.UUID            `db:"id"`
	Numbers       [MainNumberCount]int `db:"-"`
	Powerball     int                  `db:"pb"`
	PoolBefore    int64                `db:"pool_before"`
	TierPaid      int64                `db:"tier_paid"`
	JackpotGross  int64                `db:"jackpot_gross"`
	JackpotTax    int64                `db:"jackpot_tax"`
	JackpotRebate int64                `db:"jackpot_rebate"`
	PoolAfter     int64                `db:"pool_after"`
	TicketCount   int                  `db:"ticket_count"`
	WinnerCount   int                  `db:"winner_count"`
	DrawnAt       time.Time            `db:"drawn_at"`
	Payouts       []*LotteryPayout
}
