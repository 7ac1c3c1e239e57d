package entities

import (
	"time"
)

// BetStatus is the lifecycle state of a parimutuel bet
type BetStatus string

const (
	BetStatusOpen     BetStatus = "open"
	BetStatusClosed   BetStatus = "closed"
	BetStatusResolved BetStatus = "resolved"
	BetStatusCanceled BetStatus = "canceled"
)

// Bet is a parimutuel pool over numbered options
type Bet struct {
	ID            int64      `db:"id"`
	CreatorID     int64      `db:"creator_id"`
	Title         string     `db:"title"`
	Status        BetStatus  `db:"status"`
	CreatedAt     time.Time  `db:"created_at"`
	ClosedAt      *time.Time `db:"closed_at"`
	ResolvedAt    *time.Time `db:"resolved_at"`
	WinningOption *int       `db:"winning_option"`
	BonusPool     int64      `db:"bonus_pool"`
	Note          *string    `db:"note"`
	Options       []*BetOption
}

// BetOption is one outcome of a bet, numbered from 1
type BetOption struct {
	BetID     int64  `db:"bet_id"`
	OptionNum int    `db:"option_num"`
	Label     string `db:"label"`
}

// BetWager is an account's stake on one option; further stakes accumulate here
type BetWager struct {
	BetID     int64     `db:"bet_id"`
	AccountID int64     `db:"account_id"`
	OptionNum int       `db:"option_num"`
	Amount    int64     `db:"amount"`
	PlacedAt  time.Time `db:"placed_at"`
}

// IsOpen reports whether the bet accepts wagers and bonus contributions
func (b *Bet) IsOpen() bool {
	return b.Status == BetStatusOpen
}

// IsFinal reports whether the bet reached a terminal state
func (b *Bet) IsFinal() bool {
	return b.Status == BetStatusResolved || b.Status == BetStatusCanceled
}

// CanResolve reports whether the bet may still be settled
func (b *Bet) CanResolve() bool {
	return b.Status == BetStatusOpen || b.Status == BetStatusClosed
}

// HasOption reports whether optionNum is one of the bet's options
func (b *Bet) HasOption(optionNum int) bool {
	for _, opt := range b.Options {
		if opt.OptionNum == optionNum {
			return true
		}
	}
	return false
}

// Close stops the bet from accepting wagers
func (b *Bet) Close(at time.Time) {
	b.Status = BetStatusClosed
	b.ClosedAt = &at
}

// Resolve marks the bet settled on the winning option
func (b *Bet) Resolve(winningOption int, note string, at time.Time) {
	if b.Status == BetStatusOpen {
		b.ClosedAt = &at
	}
	b.Status = BetStatusResolved
	b.WinningOption = &winningOption
	b.ResolvedAt = &at
	b.Note = &note
}

// Cancel marks the bet refunded
func (b *Bet) Cancel(note string, at time.Time) {
	b.Status = BetStatusCanceled
	b.ResolvedAt = &at
	b.Note = &note
}

// OptionTotals sums stakes per option
func OptionTotals(wagers []*BetWager) map[int]int64 {
	totals := make(map[int]int64)
	for _, w := range wagers {
		totals[w.OptionNum] += w.Amount
	}
	return totals
}

// StakesByAccount sums stakes per account
func StakesByAccount(wagers []*BetWager) map[int64]int64 {
	stakes := make(map[int64]int64)
	for _, w := range wagers {
		stakes[w.AccountID] += w.Amount
	}
	return stakes
}
