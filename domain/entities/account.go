package entities

import (
	"time"
)

// Account is a user's ledger row
type Account struct {
	ID              int64      `db:"id"`
	DisplayName     string     `db:"display_name"`
	Balance         int64      `db:"balance"`
	LastDailyAt     *time.Time `db:"last_daily_at"`
	Jailed          bool       `db:"jailed"`
	JailedAt        *time.Time `db:"jailed_at"`
	Paroled         bool       `db:"paroled"`
	ParoleStartedAt *time.Time `db:"parole_started_at"`
	ParoleLastPayAt *time.Time `db:"parole_last_pay_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// CanAfford reports whether the balance covers amount
func (a *Account) CanAfford(amount int64) bool {
	return amount >= 0 && a.Balance >= amount
}

// NextDailyAt returns when the next daily credit unlocks
func (a *Account) NextDailyAt(interval time.Duration) time.Time {
	if a.LastDailyAt == nil {
		return time.Time{}
	}
	return a.LastDailyAt.Add(interval)
}

// DailyReady reports whether a daily credit can be claimed at now
func (a *Account) DailyReady(now time.Time, interval time.Duration) bool {
	return !now.Before(a.NextDailyAt(interval))
}

// Jail marks the account jailed at the given time
func (a *Account) Jail(at time.Time) {
	a.Jailed = true
	a.JailedAt = &at
}

// StartParole clears the jail flag and starts a parole period at the given time
func (a *Account) StartParole(at time.Time) {
	a.Jailed = false
	a.JailedAt = nil
	a.Paroled = true
	a.ParoleStartedAt = &at
	last := at
	a.ParoleLastPayAt = &last
}

// EndParole clears every parole field
func (a *Account) EndParole() {
	a.Paroled = false
	a.ParoleStartedAt = nil
	a.ParoleLastPayAt = nil
}

// ParoleExpired reports whether the parole period has run its full length
func (a *Account) ParoleExpired(now time.Time, duration time.Duration) bool {
	if a.ParoleStartedAt == nil {
		return true
	}
	return now.Sub(*a.ParoleStartedAt) >= duration
}
