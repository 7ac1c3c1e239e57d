package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"econsim/domain"
	"econsim/domain/entities"
	"econsim/domain/interfaces"
	"econsim/domain/utils"
	"econsim/events"

	log "github.com/sirupsen/logrus"
)

// Drift parameters for the background tick
const (
	driftSigma       = 0.0015
	driftBias        = 3.5e-7
	driftSamples     = 6
	driftTrend       = -3.5e-8
	maxTickDrop      = -0.0070
	minTickMultiple  = 0.05
	moonProbability  = 0.003
	crashProbability = 0.002
	moonMin, moonMax = 0.01, 0.08
	crashMin         = 0.01
	crashMax         = 0.10

	holdingTolerance   = 1e-12
	minSeriesPoints    = 50
	maxSeriesPoints    = 5000
	defaultEventsLimit = 10
)

var shockNotes = map[entities.MarketEventKind]string{
	entities.MarketEventMoon:  "Viral hype wave hit the market.",
	entities.MarketEventCrash: "Liquidity panic cascaded through the pool.",
}

// Drift is one sampled price move
type Drift struct {
	Move  float64
	Kind  entities.MarketEventKind
	Shock float64
}

// Multiplier is the factor applied to the price
func (d Drift) Multiplier() float64 {
	return math.Max(minTickMultiple, 1+d.Move)
}

// SampleDrift draws the noise and optional shock for one market tick
func SampleDrift(rng interfaces.RandomSource) Drift {
	sum := 0.0
	for i := 0; i < driftSamples; i++ {
		sum += uniform(rng, -1, 1)
	}
	noise := (sum/driftSamples)*driftSigma - driftBias

	var d Drift
	r := rng.Float64()
	switch {
	case r < moonProbability:
		d.Kind = entities.MarketEventMoon
		d.Shock = uniform(rng, moonMin, moonMax)
	case r < moonProbability+crashProbability:
		d.Kind = entities.MarketEventCrash
		d.Shock = -uniform(rng, crashMin, crashMax)
	}

	d.Move = math.Max(noise+d.Shock-driftTrend, maxTickDrop)
	return d
}

func uniform(rng interfaces.RandomSource, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

type marketService struct {
	ledger
	marketRepo  interfaces.MarketRepository
	holdingRepo interfaces.HoldingRepository
	random      interfaces.RandomSource
}

// NewMarketService creates a new market service
func NewMarketService(
	accountRepo interfaces.AccountRepository,
	marketRepo interfaces.MarketRepository,
	holdingRepo interfaces.HoldingRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	random interfaces.RandomSource,
	eventPublisher interfaces.EventPublisher,
) interfaces.MarketService {
	return &marketService{
		ledger: ledger{
			accountRepo:        accountRepo,
			balanceHistoryRepo: balanceHistoryRepo,
			eventPublisher:     eventPublisher,
		},
		marketRepo:  marketRepo,
		holdingRepo: holdingRepo,
		random:      random,
	}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (s *marketService) market(ctx context.Context, symbol string) (*entities.Market, error) {
	market, err := s.marketRepo.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	if market == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSymbol, symbol)
	}
	return market, nil
}

func (s *marketService) holding(ctx context.Context, accountID int64, symbol string) (float64, error) {
	h, err := s.holdingRepo.Get(ctx, accountID, symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to get holding: %w", err)
	}
	if h == nil {
		return 0, nil
	}
	return h.Coins, nil
}

// Buy spends currencyIn on symbol
func (s *marketService) Buy(ctx context.Context, accountID int64, symbol string, currencyIn int64, now time.Time) (*interfaces.TradeResult, error) {
	if currencyIn <= 0 {
		return nil, fmt.Errorf("%w: buy amount must be positive", domain.ErrInvalidAmount)
	}
	symbol = normalizeSymbol(symbol)

	account, err := s.activeAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.CanAfford(currencyIn) {
		return nil, fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientBalance, account.Balance, currencyIn)
	}

	market, err := s.market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	quote, err := market.QuoteBuy(currencyIn)
	if err != nil {
		return nil, err
	}

	owned, err := s.holding(ctx, accountID, symbol)
	if err != nil {
		return nil, err
	}
	newHolding := owned + quote.AssetAmount

	if err := s.adjust(ctx, account, -currencyIn, entities.TransactionTypeMarketBuy, map[string]any{
		"symbol": symbol,
		"coins":  quote.AssetAmount,
		"price":  quote.PriceAfter,
	}); err != nil {
		return nil, err
	}
	if err := s.holdingRepo.Set(ctx, accountID, symbol, newHolding); err != nil {
		return nil, fmt.Errorf("failed to update holding: %w", err)
	}
	if err := s.applyTrade(ctx, market, quote, now); err != nil {
		return nil, err
	}

	s.publishTrade(accountID, "buy", market, quote, now)

	return &interfaces.TradeResult{
		Symbol:      symbol,
		Currency:    currencyIn,
		Asset:       quote.AssetAmount,
		PriceBefore: quote.PriceBefore,
		PriceAfter:  quote.PriceAfter,
		Balance:     account.Balance,
		Holding:     newHolding,
	}, nil
}

// Sell sells assetIn coins of symbol
func (s *marketService) Sell(ctx context.Context, accountID int64, symbol string, assetIn float64, now time.Time) (*interfaces.TradeResult, error) {
	if !utils.IsFinitePositive(assetIn) {
		return nil, fmt.Errorf("%w: sell quantity must be positive", domain.ErrInvalidAmount)
	}
	symbol = normalizeSymbol(symbol)

	account, err := s.activeAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	owned, err := s.holding(ctx, accountID, symbol)
	if err != nil {
		return nil, err
	}
	if assetIn > owned+holdingTolerance {
		return nil, fmt.Errorf("%w: have %g %s, selling %g", domain.ErrInsufficientHolding, owned, symbol, assetIn)
	}

	market, err := s.market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	quote, err := market.QuoteSell(assetIn)
	if err != nil {
		return nil, err
	}

	newHolding := math.Max(0, owned-assetIn)
	if err := s.holdingRepo.Set(ctx, accountID, symbol, newHolding); err != nil {
		return nil, fmt.Errorf("failed to update holding: %w", err)
	}
	if err := s.adjust(ctx, account, quote.CurrencyAmount, entities.TransactionTypeMarketSell, map[string]any{
		"symbol": symbol,
		"coins":  assetIn,
		"price":  quote.PriceAfter,
	}); err != nil {
		return nil, err
	}
	if err := s.applyTrade(ctx, market, quote, now); err != nil {
		return nil, err
	}

	s.publishTrade(accountID, "sell", market, quote, now)

	return &interfaces.TradeResult{
		Symbol:      symbol,
		Currency:    quote.CurrencyAmount,
		Asset:       assetIn,
		PriceBefore: quote.PriceBefore,
		PriceAfter:  quote.PriceAfter,
		Balance:     account.Balance,
		Holding:     newHolding,
	}, nil
}

// SellAll sells the whole holding of symbol
func (s *marketService) SellAll(ctx context.Context, accountID int64, symbol string, now time.Time) (*interfaces.TradeResult, error) {
	if _, err := s.activeAccount(ctx, accountID); err != nil {
		return nil, err
	}
	symbol = normalizeSymbol(symbol)
	owned, err := s.holding(ctx, accountID, symbol)
	if err != nil {
		return nil, err
	}
	if owned <= 0 {
		return nil, fmt.Errorf("%w: no %s to sell", domain.ErrInsufficientHolding, symbol)
	}
	return s.Sell(ctx, accountID, symbol, owned, now)
}

func (s *marketService) applyTrade(ctx context.Context, market *entities.Market, quote *entities.TradeQuote, now time.Time) error {
	market.ApplyQuote(quote, now)
	if err := s.marketRepo.Update(ctx, market); err != nil {
		return fmt.Errorf("failed to update market: %w", err)
	}
	if err := s.marketRepo.RecordPrice(ctx, market.Symbol, market.LastPrice, now); err != nil {
		return fmt.Errorf("failed to record price: %w", err)
	}
	return nil
}

func (s *marketService) publishTrade(accountID int64, side string, market *entities.Market, quote *entities.TradeQuote, now time.Time) {
	if err := s.eventPublisher.Publish(events.TradeExecutedEvent{
		AccountID:   accountID,
		Symbol:      market.Symbol,
		Side:        side,
		Currency:    quote.CurrencyAmount,
		Asset:       quote.AssetAmount,
		PriceBefore: quote.PriceBefore,
		PriceAfter:  quote.PriceAfter,
	}); err != nil {
		log.WithError(err).Error("Failed to publish trade executed event")
	}
	s.publishPrice(market, now)
}

func (s *marketService) publishPrice(market *entities.Market, now time.Time) {
	if err := s.eventPublisher.Publish(events.PriceUpdatedEvent{
		Symbol:       market.Symbol,
		Price:        market.LastPrice,
		DayOpenPrice: market.DayOpenPrice,
		At:           now,
	}); err != nil {
		log.WithError(err).Error("Failed to publish price updated event")
	}
}

// Tick applies one drift step to every liquid market
func (s *marketService) Tick(ctx context.Context, now time.Time) ([]*interfaces.TickResult, error) {
	markets, err := s.marketRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get markets: %w", err)
	}

	results := make([]*interfaces.TickResult, 0, len(markets))
	for _, market := range markets {
		rolled := market.CrossesDay(now)
		if rolled {
			if open := market.Price(); utils.IsFinitePositive(open) {
				market.DayOpenPrice = open
			}
		}
		if !market.IsLiquid() {
			log.WithField("symbol", market.Symbol).Debug("Skipping illiquid market")
			continue
		}

		priceBefore := market.Price()
		drift := SampleDrift(s.random)
		if err := market.Retarget(priceBefore * drift.Multiplier()); err != nil {
			log.WithFields(log.Fields{
				"symbol": market.Symbol,
				"error":  err,
			}).Warn("Rejected market tick")
			if rolled {
				if err := s.marketRepo.Update(ctx, market); err != nil {
					return nil, fmt.Errorf("failed to update day open for %s: %w", market.Symbol, err)
				}
			}
			continue
		}
		market.LastTickAt = now

		if err := s.marketRepo.Update(ctx, market); err != nil {
			return nil, fmt.Errorf("failed to update market %s: %w", market.Symbol, err)
		}
		if err := s.marketRepo.RecordPrice(ctx, market.Symbol, market.LastPrice, now); err != nil {
			return nil, fmt.Errorf("failed to record price for %s: %w", market.Symbol, err)
		}

		result := &interfaces.TickResult{
			Symbol:      market.Symbol,
			PriceBefore: priceBefore,
			PriceAfter:  market.LastPrice,
		}

		if drift.Kind != "" {
			event := &entities.MarketEvent{
				Symbol:     market.Symbol,
				Kind:       drift.Kind,
				Pct:        (market.LastPrice/priceBefore - 1) * 100,
				Note:       shockNotes[drift.Kind],
				OccurredAt: now,
			}
			if err := s.marketRepo.RecordEvent(ctx, event); err != nil {
				return nil, fmt.Errorf("failed to record market event for %s: %w", market.Symbol, err)
			}
			result.Shock = event

			if err := s.eventPublisher.Publish(events.MarketShockEvent{
				Symbol: event.Symbol,
				Kind:   event.Kind,
				Pct:    event.Pct,
				Note:   event.Note,
				At:     now,
			}); err != nil {
				log.WithError(err).Error("Failed to publish market shock event")
			}
		}

		s.publishPrice(market, now)
		results = append(results, result)
	}

	return results, nil
}

// SetMarket reseeds a market from a start price and currency liquidity
func (s *marketService) SetMarket(ctx context.Context, symbol string, startPrice, liquidity float64, now time.Time) (*entities.Market, error) {
	symbol = normalizeSymbol(symbol)
	if !utils.IsFinitePositive(startPrice) {
		return nil, fmt.Errorf("%w: start price must be > 0", domain.ErrInvalidParameter)
	}
	if !utils.IsFinitePositive(liquidity) {
		return nil, fmt.Errorf("%w: liquidity must be > 0", domain.ErrInvalidParameter)
	}

	market, err := s.market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := market.Reseed(startPrice, liquidity, now); err != nil {
		return nil, err
	}

	if err := s.marketRepo.Update(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to update market: %w", err)
	}
	if err := s.marketRepo.ClearHistory(ctx, symbol); err != nil {
		return nil, fmt.Errorf("failed to clear market history: %w", err)
	}
	if err := s.marketRepo.RecordPrice(ctx, symbol, startPrice, now); err != nil {
		return nil, fmt.Errorf("failed to record price: %w", err)
	}

	s.publishPrice(market, now)
	return market, nil
}

// ListMarkets returns every market
func (s *marketService) ListMarkets(ctx context.Context) ([]*entities.Market, error) {
	markets, err := s.marketRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list markets: %w", err)
	}
	return markets, nil
}

// GetMarket returns one market by symbol
func (s *marketService) GetMarket(ctx context.Context, symbol string) (*entities.Market, error) {
	return s.market(ctx, normalizeSymbol(symbol))
}

// GetHolding returns an account's coins of symbol
func (s *marketService) GetHolding(ctx context.Context, accountID int64, symbol string) (float64, error) {
	return s.holding(ctx, accountID, normalizeSymbol(symbol))
}

// GetPortfolio values every holding at the current pool price
func (s *marketService) GetPortfolio(ctx context.Context, accountID int64) (*interfaces.Portfolio, error) {
	account, err := s.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	holdings, err := s.holdingRepo.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}

	portfolio := &interfaces.Portfolio{
		AccountID: accountID,
		Balance:   account.Balance,
	}
	for _, h := range holdings {
		if h.Coins <= 0 {
			continue
		}
		market, err := s.market(ctx, h.Symbol)
		if err != nil {
			return nil, err
		}
		price := market.Price()
		if !utils.IsFinitePositive(price) {
			price = 0
		}
		position := interfaces.PortfolioPosition{
			Symbol: h.Symbol,
			Coins:  h.Coins,
			Price:  price,
			Value:  h.Coins * price,
		}
		portfolio.Positions = append(portfolio.Positions, position)
		portfolio.TotalValue += position.Value
	}
	return portfolio, nil
}

// RecentEvents returns the latest shock events across all markets
func (s *marketService) RecentEvents(ctx context.Context, limit int) ([]*entities.MarketEvent, error) {
	if limit <= 0 {
		limit = defaultEventsLimit
	}
	evs, err := s.marketRepo.GetRecentEvents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get market events: %w", err)
	}
	return evs, nil
}

// PriceSeries returns price ticks of symbol recorded within window before now
func (s *marketService) PriceSeries(ctx context.Context, symbol string, window time.Duration, limit int, now time.Time) ([]*entities.PriceTick, error) {
	symbol = normalizeSymbol(symbol)
	if _, err := s.market(ctx, symbol); err != nil {
		return nil, err
	}
	limit = max(minSeriesPoints, min(limit, maxSeriesPoints))

	ticks, err := s.marketRepo.GetPriceSeries(ctx, symbol, now.Add(-window), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price series: %w", err)
	}
	return ticks, nil
}
