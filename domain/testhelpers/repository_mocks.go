package testhelpers

import (
	"context"
	"time"

	"econsim/domain/entities"
	"econsim/events"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, id int64, displayName string, initialBalance int64) (*entities.Account, error) {
	args := m.Called(ctx, id, displayName, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, id int64, newBalance int64) error {
	args := m.Called(ctx, id, newBalance)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateLastDaily(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, account *entities.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetAll(ctx context.Context) ([]*entities.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetParoled(ctx context.Context) ([]*entities.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetTop(ctx context.Context, limit int) ([]*entities.Account, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Account), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockMarketRepository is a mock implementation of MarketRepository
type MockMarketRepository struct {
	mock.Mock
}

func (m *MockMarketRepository) GetBySymbol(ctx context.Context, symbol string) (*entities.Market, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Market), args.Error(1)
}

func (m *MockMarketRepository) GetAll(ctx context.Context) ([]*entities.Market, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Market), args.Error(1)
}

func (m *MockMarketRepository) Update(ctx context.Context, market *entities.Market) error {
	args := m.Called(ctx, market)
	return args.Error(0)
}

func (m *MockMarketRepository) RecordPrice(ctx context.Context, symbol string, price float64, at time.Time) error {
	args := m.Called(ctx, symbol, price, at)
	return args.Error(0)
}

func (m *MockMarketRepository) GetPriceSeries(ctx context.Context, symbol string, since time.Time, limit int) ([]*entities.PriceTick, error) {
	args := m.Called(ctx, symbol, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PriceTick), args.Error(1)
}

func (m *MockMarketRepository) RecordEvent(ctx context.Context, event *entities.MarketEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockMarketRepository) GetRecentEvents(ctx context.Context, limit int) ([]*entities.MarketEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MarketEvent), args.Error(1)
}

func (m *MockMarketRepository) ClearHistory(ctx context.Context, symbol string) error {
	args := m.Called(ctx, symbol)
	return args.Error(0)
}

// MockHoldingRepository is a mock implementation of HoldingRepository
type MockHoldingRepository struct {
	mock.Mock
}

func (m *MockHoldingRepository) Get(ctx context.Context, accountID int64, symbol string) (*entities.Holding, error) {
	args := m.Called(ctx, accountID, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Holding), args.Error(1)
}

func (m *MockHoldingRepository) Set(ctx context.Context, accountID int64, symbol string, coins float64) error {
	args := m.Called(ctx, accountID, symbol, coins)
	return args.Error(0)
}

func (m *MockHoldingRepository) GetByAccount(ctx context.Context, accountID int64) ([]*entities.Holding, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Holding), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) CreateWithOptions(ctx context.Context, bet *entities.Bet, options []*entities.BetOption) error {
	args := m.Called(ctx, bet, options)
	return args.Error(0)
}

func (m *MockBetRepository) GetByID(ctx context.Context, id int64) (*entities.Bet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) Update(ctx context.Context, bet *entities.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetActive(ctx context.Context) ([]*entities.Bet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) GetWager(ctx context.Context, betID, accountID int64) (*entities.BetWager, error) {
	args := m.Called(ctx, betID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BetWager), args.Error(1)
}

func (m *MockBetRepository) SaveWager(ctx context.Context, wager *entities.BetWager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockBetRepository) GetWagers(ctx context.Context, betID int64) ([]*entities.BetWager, error) {
	args := m.Called(ctx, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BetWager), args.Error(1)
}

// MockLotteryRepository is a mock implementation of LotteryRepository
type MockLotteryRepository struct {
	mock.Mock
}

func (m *MockLotteryRepository) CreateTicket(ctx context.Context, ticket *entities.LotteryTicket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockLotteryRepository) GetAllTickets(ctx context.Context) ([]*entities.LotteryTicket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LotteryTicket), args.Error(1)
}

func (m *MockLotteryRepository) GetTicketsByAccount(ctx context.Context, accountID int64) ([]*entities.LotteryTicket, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LotteryTicket), args.Error(1)
}

func (m *MockLotteryRepository) CountTickets(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockLotteryRepository) DeleteAllTickets(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLotteryRepository) RecordDraw(ctx context.Context, draw *entities.LotteryDraw) error {
	args := m.Called(ctx, draw)
	return args.Error(0)
}

func (m *MockLotteryRepository) GetRecentDraws(ctx context.Context, limit int) ([]*entities.LotteryDraw, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LotteryDraw), args.Error(1)
}

// MockSystemStateRepository is a mock implementation of SystemStateRepository
type MockSystemStateRepository struct {
	mock.Mock
}

func (m *MockSystemStateRepository) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockSystemStateRepository) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockSystemStateRepository) GetLotteryPool(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSystemStateRepository) SetLotteryPool(ctx context.Context, pool int64) error {
	args := m.Called(ctx, pool)
	return args.Error(0)
}

func (m *MockSystemStateRepository) AddToLotteryPool(ctx context.Context, amount int64) (int64, error) {
	args := m.Called(ctx, amount)
	return args.Get(0).(int64), args.Error(1)
}

// MockTaxRunRepository is a mock implementation of TaxRunRepository
type MockTaxRunRepository struct {
	mock.Mock
}

func (m *MockTaxRunRepository) Create(ctx context.Context, run *entities.TaxRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockTaxRunRepository) GetByDateKey(ctx context.Context, dateKey string) (*entities.TaxRun, error) {
	args := m.Called(ctx, dateKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TaxRun), args.Error(1)
}

func (m *MockTaxRunRepository) GetLatest(ctx context.Context) (*entities.TaxRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TaxRun), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
