package interfaces

import (
	"context"
	"time"

	"econsim/domain/entities"

	"github.com/shopspring/decimal"
)

// AccountService defines ledger lifecycle and transfer operations
type AccountService interface {
	// Activate creates an account with the starting balance
	Activate(ctx context.Context, accountID int64, displayName string) (*entities.Account, error)

	// GetAccount returns the account or ErrNotActivated
	GetAccount(ctx context.Context, accountID int64) (*entities.Account, error)

	// ClaimDaily credits the daily amount, failing with ErrDailyNotReady before the interval elapsed
	ClaimDaily(ctx context.Context, accountID int64, now time.Time) (*DailyClaimResult, error)

	// ApplyDailyIfDue credits the daily amount when due and returns what was credited
	ApplyDailyIfDue(ctx context.Context, accountID int64, now time.Time) (int64, error)

	// Gift moves currency between two activated accounts
	Gift(ctx context.Context, fromID, toID int64, amount int64) (*TransferResult, error)

	// Give and Take are operator adjustments. Take is clamped to the balance.
	Give(ctx context.Context, accountID int64, amount int64) (*entities.Account, error)
	Take(ctx context.Context, accountID int64, amount int64) (int64, error)

	// Leaderboard returns the richest accounts
	Leaderboard(ctx context.Context, limit int) ([]*entities.Account, error)
}

// DailyClaimResult is the outcome of a daily credit claim
type DailyClaimResult struct {
	Credited   int64
	NewBalance int64
	NextAt     time.Time
}

// TransferResult reports balances after a gift
type TransferResult struct {
	Amount      int64
	FromBalance int64
	ToBalance   int64
}

// MarketService defines the automated market maker operations
type MarketService interface {
	Buy(ctx context.Context, accountID int64, symbol string, currencyIn int64, now time.Time) (*TradeResult, error)
	Sell(ctx context.Context, accountID int64, symbol string, assetIn float64, now time.Time) (*TradeResult, error)

	// SellAll sells the account's entire holding of symbol
	SellAll(ctx context.Context, accountID int64, symbol string, now time.Time) (*TradeResult, error)

	// Tick applies one drift step to every market
	Tick(ctx context.Context, now time.Time) ([]*TickResult, error)

	// SetMarket reseeds a market and clears its history
	SetMarket(ctx context.Context, symbol string, startPrice, liquidity float64, now time.Time) (*entities.Market, error)

	ListMarkets(ctx context.Context) ([]*entities.Market, error)
	GetMarket(ctx context.Context, symbol string) (*entities.Market, error)
	GetHolding(ctx context.Context, accountID int64, symbol string) (float64, error)
	GetPortfolio(ctx context.Context, accountID int64) (*Portfolio, error)
	RecentEvents(ctx context.Context, limit int) ([]*entities.MarketEvent, error)
	PriceSeries(ctx context.Context, symbol string, window time.Duration, limit int, now time.Time) ([]*entities.PriceTick, error)
}

// TradeResult is the outcome of an executed buy or sell
type TradeResult struct {
	Symbol      string
	Currency    int64
	Asset       float64
	PriceBefore float64
	PriceAfter  float64
	Balance     int64
	Holding     float64
}

// TickResult describes one market's drift step
type TickResult struct {
	Symbol      string
	PriceBefore float64
	PriceAfter  float64
	Shock       *entities.MarketEvent
}

// PortfolioPosition is one valued holding
type PortfolioPosition struct {
	Symbol string
	Coins  float64
	Price  float64
	Value  float64
}

// Portfolio is an account's holdings valued at the last price
type Portfolio struct {
	AccountID  int64
	Balance    int64
	Positions  []PortfolioPosition
	TotalValue float64
}

// TaxService defines the daily wealth tax
type TaxService interface {
	// TaxRateForBalance returns the bracket rate for a balance
	TaxRateForBalance(balance int64) decimal.Decimal

	// RunIfDue taxes every account once per eligible calendar day. The bool
	// reports whether a run happened.
	RunIfDue(ctx context.Context, now time.Time) (*TaxRunResult, bool, error)

	// Status reports eligibility for the current day
	Status(ctx context.Context, now time.Time) (*TaxStatus, error)
}

// TaxRunResult summarizes one tax pass
type TaxRunResult struct {
	DateKey       string
	AccountsTaxed int
	TotalTax      int64
	PoolAfter     int64
}

// TaxStatus describes the scheduler's view of today
type TaxStatus struct {
	Timezone    string
	DateKey     string
	Eligible    bool
	AlreadyRan  bool
	LastTaxDate string
}

// JailService defines jail, release, parole and steal operations
type JailService interface {
	Release(ctx context.Context, accountID int64, now time.Time) (*ReleaseResult, error)
	ParoleTick(ctx context.Context, now time.Time) (*ParoleTickResult, error)

	// CheckNotJailed returns ErrJailed for jailed accounts
	CheckNotJailed(ctx context.Context, accountID int64) error

	Steal(ctx context.Context, thiefID, targetID int64, now time.Time) (*StealResult, error)
}

// ReleaseResult is the outcome of paying out of jail
type ReleaseResult struct {
	Cost       int64
	NewBalance int64
	ParoleEnds time.Time
}

// ParoleTickResult summarizes one parole pass
type ParoleTickResult struct {
	Processed   int
	Expired     int
	TotalPaid   int64
	PoolAfter   int64
	AccountPaid map[int64]int64
}

// StealOutcome is how a steal attempt ended
type StealOutcome string

const (
	StealSucceeded StealOutcome = "succeeded"
	StealJailed    StealOutcome = "jailed"
	StealPenalized StealOutcome = "penalized"
)

// StealResult is the outcome of a steal attempt
type StealResult struct {
	Outcome       StealOutcome
	Probability   float64
	Amount        int64
	ThiefBalance  int64
	TargetBalance int64
}

// BettingService defines the parimutuel bet lifecycle
type BettingService interface {
	CreateBet(ctx context.Context, creatorID int64, title string, options []string, now time.Time) (*entities.Bet, error)
	PlaceWager(ctx context.Context, betID, accountID int64, optionNum int, amount int64, now time.Time) (*entities.BetWager, error)
	CloseBet(ctx context.Context, betID int64, now time.Time) (*entities.Bet, error)
	AddBonusPool(ctx context.Context, betID int64, amount int64) (*entities.Bet, error)
	Cancel(ctx context.Context, betID int64, note string, now time.Time) (*BetSettlement, error)
	Resolve(ctx context.Context, betID int64, winningOption int, now time.Time) (*BetSettlement, error)
	GetBetSummary(ctx context.Context, betID int64) (*BetSummary, error)
	ListOpenBets(ctx context.Context) ([]*entities.Bet, error)
}

// BetPayout is one account's credit from a settlement
type BetPayout struct {
	AccountID int64
	Stake     int64
	Share     int64
	Total     int64
}

// BetSettlement reports what a resolve or cancel paid out
type BetSettlement struct {
	Bet        *entities.Bet
	TotalPool  int64
	WinPool    int64
	LosingPool int64
	ExtraPool  int64
	Refunded   bool
	Payouts    []BetPayout
}

// BetOptionSummary is one option's pool with derived odds
type BetOptionSummary struct {
	OptionNum int
	Label     string
	Pool      int64
	Odds      string
}

// BetSummary is a bet with its pools
type BetSummary struct {
	Bet           *entities.Bet
	UserPool      int64
	EffectivePool int64
	WagerCount    int
	Options       []BetOptionSummary
}

// LotteryService defines ticket sales and draws
type LotteryService interface {
	BuyTicket(ctx context.Context, accountID int64, now time.Time) (*entities.LotteryTicket, error)
	Draw(ctx context.Context, now time.Time) (*entities.LotteryDraw, error)
	GetPool(ctx context.Context) (int64, error)
	GetTickets(ctx context.Context, accountID int64) ([]*entities.LotteryTicket, error)
	TicketCount(ctx context.Context) (int, error)
	RecentDraws(ctx context.Context, limit int) ([]*entities.LotteryDraw, error)
}

// RouletteService defines a single-spin roulette game
type RouletteService interface {
	Play(ctx context.Context, accountID int64, amount int64, choice string) (*RouletteResult, error)
}

// RouletteResult is the outcome of one spin
type RouletteResult struct {
	Spin    int
	Color   string
	Rule    string
	Won     bool
	Delta   int64
	Balance int64
}
