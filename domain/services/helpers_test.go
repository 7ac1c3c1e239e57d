package services

import (
	"testing"

	"econsim/config"
	"econsim/domain/entities"
	"econsim/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	config.SetTestConfig(config.NewTestConfig())
	m.Run()
}

// ledgerMocks bundles the repositories every service needs for balance changes
type ledgerMocks struct {
	accounts  *testhelpers.MockAccountRepository
	history   *testhelpers.MockBalanceHistoryRepository
	publisher *testhelpers.MockEventPublisher
}

func newLedgerMocks() *ledgerMocks {
	m := &ledgerMocks{
		accounts:  new(testhelpers.MockAccountRepository),
		history:   new(testhelpers.MockBalanceHistoryRepository),
		publisher: new(testhelpers.MockEventPublisher),
	}
	m.history.On("Record", mock.Anything, mock.Anything).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)
	return m
}

func (m *ledgerMocks) withAccount(account *entities.Account) *entities.Account {
	m.accounts.On("GetByID", mock.Anything, account.ID).Return(account, nil)
	return account
}

func (m *ledgerMocks) expectBalance(accountID, newBalance int64) {
	m.accounts.On("UpdateBalance", mock.Anything, accountID, newBalance).Return(nil).Once()
}

func (m *ledgerMocks) historyOf(txType entities.TransactionType) []*entities.BalanceHistory {
	var out []*entities.BalanceHistory
	for _, call := range m.history.Calls {
		if call.Method != "Record" {
			continue
		}
		h := call.Arguments.Get(1).(*entities.BalanceHistory)
		if h.TransactionType == txType {
			out = append(out, h)
		}
	}
	return out
}
