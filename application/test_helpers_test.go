package application

import (
	"context"
	"errors"

	"econsim/domain/interfaces"
	"econsim/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

// testUnitOfWork wires the repository mocks and counts lifecycle calls
type testUnitOfWork struct {
	accounts  *testhelpers.MockAccountRepository
	history   *testhelpers.MockBalanceHistoryRepository
	markets   *testhelpers.MockMarketRepository
	holdings  *testhelpers.MockHoldingRepository
	bets      *testhelpers.MockBetRepository
	lottery   *testhelpers.MockLotteryRepository
	state     *testhelpers.MockSystemStateRepository
	taxRuns   *testhelpers.MockTaxRunRepository
	publisher *testhelpers.MockEventPublisher

	beginErr  error
	begins    int
	commits   int
	rollbacks int
	active    bool
}

func newTestUnitOfWork() *testUnitOfWork {
	u := &testUnitOfWork{
		accounts:  new(testhelpers.MockAccountRepository),
		history:   new(testhelpers.MockBalanceHistoryRepository),
		markets:   new(testhelpers.MockMarketRepository),
		holdings:  new(testhelpers.MockHoldingRepository),
		bets:      new(testhelpers.MockBetRepository),
		lottery:   new(testhelpers.MockLotteryRepository),
		state:     new(testhelpers.MockSystemStateRepository),
		taxRuns:   new(testhelpers.MockTaxRunRepository),
		publisher: new(testhelpers.MockEventPublisher),
	}
	u.history.On("Record", mock.Anything, mock.Anything).Return(nil)
	u.publisher.On("Publish", mock.Anything).Return(nil)
	return u
}

func (u *testUnitOfWork) Begin(ctx context.Context) error {
	if u.beginErr != nil {
		return u.beginErr
	}
	if u.active {
		return errors.New("transaction already started")
	}
	u.begins++
	u.active = true
	return nil
}

func (u *testUnitOfWork) Commit() error {
	if !u.active {
		return errors.New("no transaction to commit")
	}
	u.commits++
	u.active = false
	return nil
}

func (u *testUnitOfWork) Rollback() error {
	if !u.active {
		return nil
	}
	u.rollbacks++
	u.active = false
	return nil
}

func (u *testUnitOfWork) AccountRepository() interfaces.AccountRepository { return u.accounts }
func (u *testUnitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return u.history
}
func (u *testUnitOfWork) MarketRepository() interfaces.MarketRepository   { return u.markets }
func (u *testUnitOfWork) HoldingRepository() interfaces.HoldingRepository { return u.holdings }
func (u *testUnitOfWork) BetRepository() interfaces.BetRepository         { return u.bets }
func (u *testUnitOfWork) LotteryRepository() interfaces.LotteryRepository { return u.lottery }
func (u *testUnitOfWork) SystemStateRepository() interfaces.SystemStateRepository {
	return u.state
}
func (u *testUnitOfWork) TaxRunRepository() interfaces.TaxRunRepository { return u.taxRuns }
func (u *testUnitOfWork) EventBus() interfaces.EventPublisher           { return u.publisher }

// testUnitOfWorkFactory hands out the same unit of work on every call
type testUnitOfWorkFactory struct {
	uow *testUnitOfWork
}

func (f *testUnitOfWorkFactory) Create() UnitOfWork {
	return f.uow
}
