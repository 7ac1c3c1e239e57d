package application

import (
	"context"

	"econsim/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() interfaces.AccountRepository
	BalanceHistoryRepository() interfaces.BalanceHistoryRepository
	MarketRepository() interfaces.MarketRepository
	HoldingRepository() interfaces.HoldingRepository
	BetRepository() interfaces.BetRepository
	LotteryRepository() interfaces.LotteryRepository
	SystemStateRepository() interfaces.SystemStateRepository
	TaxRunRepository() interfaces.TaxRunRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
