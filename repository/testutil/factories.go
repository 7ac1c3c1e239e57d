package testutil

import (
	"context"
	"testing"
	"time"

	"econsim/database"
	"econsim/domain/entities"

	"github.com/stretchr/testify/require"
)

// DefaultBalance is the balance given to accounts created by the factories
const DefaultBalance int64 = 100000

// CreateTestAccount inserts an account with the default balance
func CreateTestAccount(t *testing.T, db *database.DB, id int64, name string) *entities.Account {
	return CreateTestAccountWithBalance(t, db, id, name, DefaultBalance)
}

// CreateTestAccountWithBalance inserts an account with a specific balance
func CreateTestAccountWithBalance(t *testing.T, db *database.DB, id int64, name string, balance int64) *entities.Account {
	t.Helper()
	a := &entities.Account{ID: id, DisplayName: name, Balance: balance}
	err := db.QueryRow(context.Background(),
		`INSERT INTO accounts (id, display_name, balance) VALUES ($1, $2, $3) RETURNING created_at, updated_at`,
		id, name, balance,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	require.NoError(t, err)
	return a
}

// CreateTestBalanceHistory builds a history entry for an account
func CreateTestBalanceHistory(accountID int64, txType entities.TransactionType) *entities.BalanceHistory {
	return entities.NewBalanceChange(accountID, 100000, 90000, txType, map[string]any{"test": true})
}

// CreateTestTaxRun builds a tax run for a date key
func CreateTestTaxRun(dateKey string, ranAt time.Time) *entities.TaxRun {
	return &entities.TaxRun{
		DateKey:       dateKey,
		AccountsTaxed: 10,
		TotalTax:      5000,
		RanAt:         ranAt,
	}
}

// CreateTestTicket builds a ticket with the given numbers
func CreateTestTicket(accountID int64, pb int, nums ...int) *entities.LotteryTicket {
	t := &entities.LotteryTicket{AccountID: accountID, Powerball: pb, BoughtAt: time.Now().UTC()}
	copy(t.Numbers[:], nums)
	return t
}
