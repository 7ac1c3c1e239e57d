package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"econsim/application"
	"econsim/database"
	"econsim/domain/interfaces"
	"econsim/events"

	"github.com/jackc/pgx/v5"
)

// mutationGate serializes units of work across the process. It is held from
// Begin until Commit or Rollback.
var mutationGate sync.Mutex

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                 *database.DB
	tx                 pgx.Tx
	ctx                context.Context
	transactionalBus   *events.TransactionalBus
	accountRepo        interfaces.AccountRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	marketRepo         interfaces.MarketRepository
	holdingRepo        interfaces.HoldingRepository
	betRepo            interfaces.BetRepository
	lotteryRepo        interfaces.LotteryRepository
	systemStateRepo    interfaces.SystemStateRepository
	taxRunRepo         interfaces.TaxRunRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) application.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() application.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin waits for the mutation gate and starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	mutationGate.Lock()
	tx, err := u.db.Begin(ctx)
	if err != nil {
		mutationGate.Unlock()
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepositoryWithTx(tx)
	u.marketRepo = newMarketRepositoryWithTx(tx)
	u.holdingRepo = newHoldingRepositoryWithTx(tx)
	u.betRepo = newBetRepositoryWithTx(tx)
	u.lotteryRepo = newLotteryRepositoryWithTx(tx)
	u.systemStateRepo = newSystemStateRepositoryWithTx(tx)
	u.taxRunRepo = newTaxRunRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and releases the gate
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	u.tx = nil
	mutationGate.Unlock()
	if err != nil {
		u.transactionalBus.Discard()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Flush pending events after successful commit
	u.transactionalBus.Flush()
	return nil
}

// Rollback rolls back the transaction and releases the gate.
// Safe to call after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	mutationGate.Unlock()

	// Discard pending events on rollback
	u.transactionalBus.Discard()

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func mustStarted[T any](repo T, started bool) T {
	if !started {
		panic("unit of work not started - call Begin() first")
	}
	return repo
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	return mustStarted(u.accountRepo, u.accountRepo != nil)
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return mustStarted(u.balanceHistoryRepo, u.balanceHistoryRepo != nil)
}

// MarketRepository returns the market repository for this unit of work
func (u *unitOfWork) MarketRepository() interfaces.MarketRepository {
	return mustStarted(u.marketRepo, u.marketRepo != nil)
}

// HoldingRepository returns the holding repository for this unit of work
func (u *unitOfWork) HoldingRepository() interfaces.HoldingRepository {
	return mustStarted(u.holdingRepo, u.holdingRepo != nil)
}

// BetRepository returns the bet repository for this unit of work
func (u *unitOfWork) BetRepository() interfaces.BetRepository {
	return mustStarted(u.betRepo, u.betRepo != nil)
}

// LotteryRepository returns the lottery repository for this unit of work
func (u *unitOfWork) LotteryRepository() interfaces.LotteryRepository {
	return mustStarted(u.lotteryRepo, u.lotteryRepo != nil)
}

// SystemStateRepository returns the system state repository for this unit of work
func (u *unitOfWork) SystemStateRepository() interfaces.SystemStateRepository {
	return mustStarted(u.systemStateRepo, u.systemStateRepo != nil)
}

// TaxRunRepository returns the tax run repository for this unit of work
func (u *unitOfWork) TaxRunRepository() interfaces.TaxRunRepository {
	return mustStarted(u.taxRunRepo, u.taxRunRepo != nil)
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	return u.transactionalBus
}
