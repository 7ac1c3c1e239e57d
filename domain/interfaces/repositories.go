package interfaces

import (
	"context"
	"time"

	"econsim/domain/entities"
	"econsim/events"
)

// AccountRepository defines the interface for ledger account access
type AccountRepository interface {
	// GetByID retrieves an account, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Account, error)

	// Create inserts a new account with the starting balance
	Create(ctx context.Context, id int64, displayName string, initialBalance int64) (*entities.Account, error)

	// UpdateBalance sets an account's balance
	UpdateBalance(ctx context.Context, id int64, newBalance int64) error

	// UpdateLastDaily stores when the account last claimed daily credits
	UpdateLastDaily(ctx context.Context, id int64, at time.Time) error

	// UpdateStatus persists the jail and parole fields of the account
	UpdateStatus(ctx context.Context, account *entities.Account) error

	// GetAll returns every account ordered by id
	GetAll(ctx context.Context) ([]*entities.Account, error)

	// GetParoled returns accounts currently on parole
	GetParoled(ctx context.Context) ([]*entities.Account, error)

	// GetTop returns the richest accounts, ties broken by id
	GetTop(ctx context.Context, limit int) ([]*entities.Account, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByAccount returns the most recent entries for an account
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.BalanceHistory, error)
}

// MarketRepository defines the interface for market, price and event storage
type MarketRepository interface {
	GetBySymbol(ctx context.Context, symbol string) (*entities.Market, error)
	GetAll(ctx context.Context) ([]*entities.Market, error)

	// Update persists reserves, prices and tick timestamps
	Update(ctx context.Context, market *entities.Market) error

	// Price history
	RecordPrice(ctx context.Context, symbol string, price float64, at time.Time) error
	GetPriceSeries(ctx context.Context, symbol string, since time.Time, limit int) ([]*entities.PriceTick, error)

	// Shock events
	RecordEvent(ctx context.Context, event *entities.MarketEvent) error
	GetRecentEvents(ctx context.Context, limit int) ([]*entities.MarketEvent, error)

	// ClearHistory removes every price tick and event for a symbol
	ClearHistory(ctx context.Context, symbol string) error
}

// HoldingRepository defines the interface for per-account asset balances
type HoldingRepository interface {
	// Get returns the holding or nil when the account never held the symbol
	Get(ctx context.Context, accountID int64, symbol string) (*entities.Holding, error)

	// Set upserts the coin amount for an account and symbol
	Set(ctx context.Context, accountID int64, symbol string, coins float64) error

	// GetByAccount returns every non-zero holding of an account
	GetByAccount(ctx context.Context, accountID int64) ([]*entities.Holding, error)
}

// BetRepository defines the interface for parimutuel bet storage
type BetRepository interface {
	// CreateWithOptions inserts a bet and its options, assigning ids
	CreateWithOptions(ctx context.Context, bet *entities.Bet, options []*entities.BetOption) error

	// GetByID retrieves a bet with its options, nil when missing
	GetByID(ctx context.Context, id int64) (*entities.Bet, error)

	// Update persists status, timestamps, winning option, bonus pool and note
	Update(ctx context.Context, bet *entities.Bet) error

	// GetActive returns open and closed bets
	GetActive(ctx context.Context) ([]*entities.Bet, error)

	// Wagers
	GetWager(ctx context.Context, betID, accountID int64) (*entities.BetWager, error)
	SaveWager(ctx context.Context, wager *entities.BetWager) error
	GetWagers(ctx context.Context, betID int64) ([]*entities.BetWager, error)
}

// LotteryRepository defines the interface for tickets and draw history
type LotteryRepository interface {
	CreateTicket(ctx context.Context, ticket *entities.LotteryTicket) error
	GetAllTickets(ctx context.Context) ([]*entities.LotteryTicket, error)
	GetTicketsByAccount(ctx context.Context, accountID int64) ([]*entities.LotteryTicket, error)
	CountTickets(ctx context.Context) (int, error)

	// DeleteAllTickets clears the ticket table after a draw
	DeleteAllTickets(ctx context.Context) (int64, error)

	// RecordDraw stores the audit row for a completed draw
	RecordDraw(ctx context.Context, draw *entities.LotteryDraw) error
	GetRecentDraws(ctx context.Context, limit int) ([]*entities.LotteryDraw, error)
}

// SystemStateRepository defines the interface for keyed scalar state
type SystemStateRepository interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error

	GetLotteryPool(ctx context.Context) (int64, error)
	SetLotteryPool(ctx context.Context, pool int64) error

	// AddToLotteryPool increments the pool and returns the new value
	AddToLotteryPool(ctx context.Context, amount int64) (int64, error)
}

// TaxRunRepository defines the interface for tax run records
type TaxRunRepository interface {
	Create(ctx context.Context, run *entities.TaxRun) error
	GetByDateKey(ctx context.Context, dateKey string) (*entities.TaxRun, error)
	GetLatest(ctx context.Context) (*entities.TaxRun, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// RandomSource supplies the randomness used by ticks, games and draws
type RandomSource interface {
	// Float64 returns a value in [0, 1)
	Float64() float64

	// Intn returns a value in [0, n)
	Intn(n int) int
}
