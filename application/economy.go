package application

import (
	"context"
	"fmt"
	"time"

	"econsim/domain/entities"
	"econsim/domain/interfaces"
	"econsim/domain/services"
)

// serviceSet holds every domain service bound to one unit of work
type serviceSet struct {
	accounts interfaces.AccountService
	market   interfaces.MarketService
	tax      interfaces.TaxService
	jail     interfaces.JailService
	betting  interfaces.BettingService
	lottery  interfaces.LotteryService
	roulette interfaces.RouletteService
}

func newServiceSet(uow UnitOfWork, random interfaces.RandomSource) *serviceSet {
	publisher := uow.EventBus()
	return &serviceSet{
		accounts: services.NewAccountService(uow.AccountRepository(), uow.BalanceHistoryRepository(), publisher),
		market: services.NewMarketService(
			uow.AccountRepository(),
			uow.MarketRepository(),
			uow.HoldingRepository(),
			uow.BalanceHistoryRepository(),
			random,
			publisher,
		),
		tax: services.NewTaxService(
			uow.AccountRepository(),
			uow.BalanceHistoryRepository(),
			uow.SystemStateRepository(),
			uow.TaxRunRepository(),
			publisher,
		),
		jail: services.NewJailService(
			uow.AccountRepository(),
			uow.BalanceHistoryRepository(),
			uow.SystemStateRepository(),
			random,
			publisher,
		),
		betting: services.NewBettingService(uow.AccountRepository(), uow.BetRepository(), uow.BalanceHistoryRepository(), publisher),
		lottery: services.NewLotteryService(
			uow.AccountRepository(),
			uow.LotteryRepository(),
			uow.SystemStateRepository(),
			uow.BalanceHistoryRepository(),
			random,
			publisher,
		),
		roulette: services.NewRouletteService(uow.AccountRepository(), uow.BalanceHistoryRepository(), random, publisher),
	}
}

// Economy runs every economy operation inside its own unit of work. Mutations
// commit on success; queries always roll back.
type Economy struct {
	uowFactory UnitOfWorkFactory
	random     interfaces.RandomSource
	now        func() time.Time
}

// NewEconomy creates an economy backed by the given unit of work factory
func NewEconomy(uowFactory UnitOfWorkFactory, random interfaces.RandomSource) *Economy {
	return &Economy{
		uowFactory: uowFactory,
		random:     random,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Now returns the economy's current time
func (e *Economy) Now() time.Time {
	return e.now()
}

func mutate[T any](ctx context.Context, e *Economy, fn func(*serviceSet) (T, error)) (T, error) {
	var zero T
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := fn(newServiceSet(uow, e.random))
	if err != nil {
		return zero, err
	}
	if err := uow.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

func query[T any](ctx context.Context, e *Economy, fn func(*serviceSet) (T, error)) (T, error) {
	var zero T
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return fn(newServiceSet(uow, e.random))
}

// Accounts

func (e *Economy) Activate(ctx context.Context, accountID int64, displayName string) (*entities.Account, error) {
	return mutate(ctx, e, func(s *serviceSet) (*entities.Account, error) {
		return s.accounts.Activate(ctx, accountID, displayName)
	})
}

// Balance credits a due daily amount and returns the account
func (e *Economy) Balance(ctx context.Context, accountID int64) (*entities.Account, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*entities.Account, error) {
		if _, err := s.accounts.ApplyDailyIfDue(ctx, accountID, now); err != nil {
			return nil, err
		}
		return s.accounts.GetAccount(ctx, accountID)
	})
}

func (e *Economy) ClaimDaily(ctx context.Context, accountID int64) (*interfaces.DailyClaimResult, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*interfaces.DailyClaimResult, error) {
		return s.accounts.ClaimDaily(ctx, accountID, now)
	})
}

func (e *Economy) Gift(ctx context.Context, fromID, toID, amount int64) (*interfaces.TransferResult, error) {
	return mutate(ctx, e, func(s *serviceSet) (*interfaces.TransferResult, error) {
		return s.accounts.Gift(ctx, fromID, toID, amount)
	})
}

func (e *Economy) Give(ctx context.Context, accountID, amount int64) (*entities.Account, error) {
	return mutate(ctx, e, func(s *serviceSet) (*entities.Account, error) {
		return s.accounts.Give(ctx, accountID, amount)
	})
}

// Take returns the amount actually removed
func (e *Economy) Take(ctx context.Context, accountID, amount int64) (int64, error) {
	return mutate(ctx, e, func(s *serviceSet) (int64, error) {
		return s.accounts.Take(ctx, accountID, amount)
	})
}

func (e *Economy) Leaderboard(ctx context.Context, limit int) ([]*entities.Account, error) {
	return query(ctx, e, func(s *serviceSet) ([]*entities.Account, error) {
		return s.accounts.Leaderboard(ctx, limit)
	})
}

// Markets

func (e *Economy) Buy(ctx context.Context, accountID int64, symbol string, currencyIn int64) (*interfaces.TradeResult, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*interfaces.TradeResult, error) {
		return s.market.Buy(ctx, accountID, symbol, currencyIn, now)
	})
}

func (e *Economy) Sell(ctx context.Context, accountID int64, symbol string, assetIn float64) (*interfaces.TradeResult, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*interfaces.TradeResult, error) {
		return s.market.Sell(ctx, accountID, symbol, assetIn, now)
	})
}

func (e *Economy) SellAll(ctx context.Context, accountID int64, symbol string) (*interfaces.TradeResult, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*interfaces.TradeResult, error) {
		return s.market.SellAll(ctx, accountID, symbol, now)
	})
}

// TickMarkets applies one drift step to every market
func (e *Economy) TickMarkets(ctx context.Context) ([]*interfaces.TickResult, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) ([]*interfaces.TickResult, error) {
		return s.market.Tick(ctx, now)
	})
}

func (e *Economy) SetMarket(ctx context.Context, symbol string, startPrice, liquidity float64) (*entities.Market, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*entities.Market, error) {
		return s.market.SetMarket(ctx, symbol, startPrice, liquidity, now)
	})
}

func (e *Economy) ListMarkets(ctx context.Context) ([]*entities.Market, error) {
	return query(ctx, e, func(s *serviceSet) ([]*entities.Market, error) {
		return s.market.ListMarkets(ctx)
	})
}

func (e *Economy) GetMarket(ctx context.Context, symbol string) (*entities.Market, error) {
	return query(ctx, e, func(s *serviceSet) (*entities.Market, error) {
		return s.market.GetMarket(ctx, symbol)
	})
}

func (e *Economy) Portfolio(ctx context.Context, accountID int64) (*interfaces.Portfolio, error) {
	return query(ctx, e, func(s *serviceSet) (*interfaces.Portfolio, error) {
		return s.market.GetPortfolio(ctx, accountID)
	})
}

func (e *Economy) PriceSeries(ctx context.Context, symbol string, window time.Duration, limit int) ([]*entities.PriceTick, error) {
	now := e.now()
	return query(ctx, e, func(s *serviceSet) ([]*entities.PriceTick, error) {
		return s.market.PriceSeries(ctx, symbol, window, limit, now)
	})
}

func (e *Economy) RecentMarketEvents(ctx context.Context, limit int) ([]*entities.MarketEvent, error) {
	return query(ctx, e, func(s *serviceSet) ([]*entities.MarketEvent, error) {
		return s.market.RecentEvents(ctx, limit)
	})
}

// Taxation, jail and parole

// RunTaxIfDue reports whether a tax pass ran for today
func (e *Economy) RunTaxIfDue(ctx context.Context) (*interfaces.TaxRunResult, bool, error) {
	now := e.now()
	type outcome struct {
		result *interfaces.TaxRunResult
		ran    bool
	}
	out, err := mutate(ctx, e, func(s *serviceSet) (outcome, error) {
		result, ran, err := s.tax.RunIfDue(ctx, now)
		return outcome{result, ran}, err
	})
	return out.result, out.ran, err
}

func (e *Economy) TaxStatus(ctx context.Context) (*interfaces.TaxStatus, error) {
	now := e.now()
	return query(ctx, e, func(s *serviceSet) (*interfaces.TaxStatus, error) {
		return s.tax.Status(ctx, now)
	})
}

func (e *Economy) Release(ctx context.Context, accountID int64) (*interfaces.ReleaseResult, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*interfaces.ReleaseResult, error) {
		return s.jail.Release(ctx, accountID, now)
	})
}

func (e *Economy) ParoleTick(ctx context.Context) (*interfaces.ParoleTickResult, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*interfaces.ParoleTickResult, error) {
		return s.jail.ParoleTick(ctx, now)
	})
}

func (e *Economy) Steal(ctx context.Context, thiefID, targetID int64) (*interfaces.StealResult, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*interfaces.StealResult, error) {
		return s.jail.Steal(ctx, thiefID, targetID, now)
	})
}

// Betting

func (e *Economy) CreateBet(ctx context.Context, creatorID int64, title string, options []string) (*entities.Bet, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*entities.Bet, error) {
		return s.betting.CreateBet(ctx, creatorID, title, options, now)
	})
}

func (e *Economy) PlaceWager(ctx context.Context, betID, accountID int64, optionNum int, amount int64) (*entities.BetWager, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*entities.BetWager, error) {
		return s.betting.PlaceWager(ctx, betID, accountID, optionNum, amount, now)
	})
}

func (e *Economy) CloseBet(ctx context.Context, betID int64) (*entities.Bet, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*entities.Bet, error) {
		return s.betting.CloseBet(ctx, betID, now)
	})
}

func (e *Economy) AddBonusPool(ctx context.Context, betID, amount int64) (*entities.Bet, error) {
	return mutate(ctx, e, func(s *serviceSet) (*entities.Bet, error) {
		return s.betting.AddBonusPool(ctx, betID, amount)
	})
}

func (e *Economy) CancelBet(ctx context.Context, betID int64, note string) (*interfaces.BetSettlement, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*interfaces.BetSettlement, error) {
		return s.betting.Cancel(ctx, betID, note, now)
	})
}

func (e *Economy) ResolveBet(ctx context.Context, betID int64, winningOption int) (*interfaces.BetSettlement, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*interfaces.BetSettlement, error) {
		return s.betting.Resolve(ctx, betID, winningOption, now)
	})
}

func (e *Economy) BetSummary(ctx context.Context, betID int64) (*interfaces.BetSummary, error) {
	return query(ctx, e, func(s *serviceSet) (*interfaces.BetSummary, error) {
		return s.betting.GetBetSummary(ctx, betID)
	})
}

func (e *Economy) ListOpenBets(ctx context.Context) ([]*entities.Bet, error) {
	return query(ctx, e, func(s *serviceSet) ([]*entities.Bet, error) {
		return s.betting.ListOpenBets(ctx)
	})
}

// Lottery

func (e *Economy) BuyTicket(ctx context.Context, accountID int64) (*entities.LotteryTicket, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*entities.LotteryTicket, error) {
		return s.lottery.BuyTicket(ctx, accountID, now)
	})
}

func (e *Economy) Draw(ctx context.Context) (*entities.LotteryDraw, error) {
	now := e.now()
	return mutate(ctx, e, func(s *serviceSet) (*entities.LotteryDraw, error) {
		return s.lottery.Draw(ctx, now)
	})
}

// LotteryOverview is the pool, ticket count and most recent draws
type LotteryOverview struct {
	Pool        int64
	TicketCount int
	RecentDraws []*entities.LotteryDraw
}

func (e *Economy) Lottery(ctx context.Context, recent int) (*LotteryOverview, error) {
	return query(ctx, e, func(s *serviceSet) (*LotteryOverview, error) {
		pool, err := s.lottery.GetPool(ctx)
		if err != nil {
			return nil, err
		}
		count, err := s.lottery.TicketCount(ctx)
		if err != nil {
			return nil, err
		}
		draws, err := s.lottery.RecentDraws(ctx, recent)
		if err != nil {
			return nil, err
		}
		return &LotteryOverview{Pool: pool, TicketCount: count, RecentDraws: draws}, nil
	})
}

func (e *Economy) Tickets(ctx context.Context, accountID int64) ([]*entities.LotteryTicket, error) {
	return query(ctx, e, func(s *serviceSet) ([]*entities.LotteryTicket, error) {
		return s.lottery.GetTickets(ctx, accountID)
	})
}

// Roulette

func (e *Economy) PlayRoulette(ctx context.Context, accountID, amount int64, choice string) (*interfaces.RouletteResult, error) {
	return mutate(ctx, e, func(s *serviceSet) (*interfaces.RouletteResult, error) {
		return s.roulette.Play(ctx, accountID, amount, choice)
	})
}
