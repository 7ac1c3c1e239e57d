package repository

import (
	"context"
	"testing"
	"time"

	"econsim/domain/entities"
	"econsim/events"
	"econsim/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitPersistsAndFlushesEvents(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	testutil.CreateTestAccount(t, testDB.DB, 1, "alice")

	bus := events.NewBus()
	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, e events.Event) {
		received <- e
	})

	ctx := context.Background()
	uow := NewUnitOfWorkFactory(testDB.DB, bus).Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	require.NoError(t, uow.AccountRepository().UpdateBalance(ctx, 1, 5))
	require.NoError(t, uow.EventBus().Publish(events.BalanceChangeEvent{
		AccountID: 1, OldBalance: testutil.DefaultBalance, NewBalance: 5,
		TransactionType: entities.TransactionTypeOperatorGive, ChangeAmount: 5 - testutil.DefaultBalance,
	}))

	select {
	case <-received:
		t.Fatal("event delivered before commit")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, uow.Commit())

	select {
	case e := <-received:
		assert.Equal(t, int64(5), e.(events.BalanceChangeEvent).NewBalance)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered after commit")
	}

	account, err := NewAccountRepository(testDB.DB).GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), account.Balance)

	// Rollback after commit is a no-op
	assert.NoError(t, uow.Rollback())
}

func TestUnitOfWork_RollbackDiscardsWritesAndEvents(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	testutil.CreateTestAccount(t, testDB.DB, 1, "alice")

	bus := events.NewBus()
	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, e events.Event) {
		received <- e
	})

	ctx := context.Background()
	uow := NewUnitOfWorkFactory(testDB.DB, bus).Create()
	require.NoError(t, uow.Begin(ctx))

	require.NoError(t, uow.AccountRepository().UpdateBalance(ctx, 1, 5))
	pool, err := uow.SystemStateRepository().AddToLotteryPool(ctx, 700)
	require.NoError(t, err)
	assert.Equal(t, int64(700), pool)
	require.NoError(t, uow.EventBus().Publish(events.BalanceChangeEvent{AccountID: 1, NewBalance: 5}))

	require.NoError(t, uow.Rollback())

	select {
	case <-received:
		t.Fatal("event delivered after rollback")
	case <-time.After(100 * time.Millisecond):
	}

	account, err := NewAccountRepository(testDB.DB).GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, testutil.DefaultBalance, account.Balance)

	pool, err = NewSystemStateRepository(testDB.DB).GetLotteryPool(ctx)
	require.NoError(t, err)
	assert.Zero(t, pool)
}

func TestUnitOfWork_Lifecycle(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	uow := NewUnitOfWorkFactory(testDB.DB, events.NewBus()).Create()

	assert.PanicsWithValue(t, "unit of work not started - call Begin() first", func() {
		uow.AccountRepository()
	})
	assert.Error(t, uow.Commit())
	assert.NoError(t, uow.Rollback())

	require.NoError(t, uow.Begin(ctx))
	assert.Error(t, uow.Begin(ctx))
	assert.NotNil(t, uow.MarketRepository())
	assert.NotNil(t, uow.TaxRunRepository())
	require.NoError(t, uow.Rollback())

	// The gate is released, so a second unit of work can start
	second := NewUnitOfWorkFactory(testDB.DB, events.NewBus()).Create()
	require.NoError(t, second.Begin(ctx))
	require.NoError(t, second.Rollback())
}
