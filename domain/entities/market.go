package entities

import (
	"fmt"
	"math"
	"time"

	"econsim/domain"
)

// Reserve floors applied when a drift tick re-targets a market
const (
	MinReserveCurrency = 1000.0
	MinReserveAsset    = 0.0001
)

// Market is a constant-product pool between the currency and one asset
type Market struct {
	Symbol          string    `db:"symbol"`
	Name            string    `db:"name"`
	ReserveCurrency float64   `db:"reserve_currency"`
	ReserveAsset    float64   `db:"reserve_asset"`
	Fee             float64   `db:"fee"`
	CreatedAt       time.Time `db:"created_at"`
	LastPrice       float64   `db:"last_price"`
	LastTickAt      time.Time `db:"last_tick_at"`
	DayOpenPrice    float64   `db:"day_open_price"`
}

// TradeQuote is the outcome of a trade computed against a market snapshot
type TradeQuote struct {
	CurrencyAmount  int64
	AssetAmount     float64
	PriceBefore     float64
	PriceAfter      float64
	ReserveCurrency float64
	ReserveAsset    float64
}

// Price returns reserve_currency / reserve_asset
func (m *Market) Price() float64 {
	return m.ReserveCurrency / m.ReserveAsset
}

// K returns the invariant product of the reserves
func (m *Market) K() float64 {
	return m.ReserveCurrency * m.ReserveAsset
}

// IsLiquid reports whether both reserves are finite and positive
func (m *Market) IsLiquid() bool {
	return isFinitePositive(m.ReserveCurrency) && isFinitePositive(m.ReserveAsset)
}

// DayChangePct returns the percentage move since the day open
func (m *Market) DayChangePct() float64 {
	if m.DayOpenPrice <= 0 {
		return 0
	}
	return (m.LastPrice/m.DayOpenPrice - 1) * 100
}

// QuoteBuy prices spending currencyIn on the asset. The fee discounts the
// input used on the curve while the full input is credited to the pool.
func (m *Market) QuoteBuy(currencyIn int64) (*TradeQuote, error) {
	if currencyIn <= 0 {
		return nil, fmt.Errorf("%w: buy amount must be positive", domain.ErrInvalidAmount)
	}
	if !m.IsLiquid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrIlliquidMarket, m.Symbol)
	}

	k := m.K()
	effectiveIn := float64(currencyIn) * (1 - m.Fee)
	curveCurrency := m.ReserveCurrency + effectiveIn
	assetOut := m.ReserveAsset - k/curveCurrency
	if math.IsNaN(assetOut) || assetOut <= 0 {
		return nil, fmt.Errorf("%w: %d buys no %s", domain.ErrTradeTooSmall, currencyIn, m.Symbol)
	}

	newCurrency := m.ReserveCurrency + float64(currencyIn)
	newAsset := m.ReserveAsset - assetOut
	if newAsset <= 0 {
		return nil, fmt.Errorf("%w: %s asset reserve would be exhausted", domain.ErrIlliquidMarket, m.Symbol)
	}
	if !isFinitePositive(newCurrency) || !isFinitePositive(assetOut) {
		return nil, fmt.Errorf("%w: buy on %s", domain.ErrNonFinite, m.Symbol)
	}

	return &TradeQuote{
		CurrencyAmount:  currencyIn,
		AssetAmount:     assetOut,
		PriceBefore:     m.Price(),
		PriceAfter:      newCurrency / newAsset,
		ReserveCurrency: newCurrency,
		ReserveAsset:    newAsset,
	}, nil
}

// QuoteSell prices selling assetIn. The payout is floored to whole currency
// units and only the floored payout leaves the pool.
func (m *Market) QuoteSell(assetIn float64) (*TradeQuote, error) {
	if !isFinitePositive(assetIn) {
		return nil, fmt.Errorf("%w: sell quantity must be positive", domain.ErrInvalidAmount)
	}
	if !m.IsLiquid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrIlliquidMarket, m.Symbol)
	}

	k := m.K()
	effectiveIn := assetIn * (1 - m.Fee)
	currencyOut := m.ReserveCurrency - k/(m.ReserveAsset+effectiveIn)
	if math.IsNaN(currencyOut) || math.IsInf(currencyOut, 0) {
		return nil, fmt.Errorf("%w: sell on %s", domain.ErrNonFinite, m.Symbol)
	}

	payout := int64(math.Floor(currencyOut))
	if payout <= 0 {
		return nil, fmt.Errorf("%w: selling %g %s pays nothing", domain.ErrTradeTooSmall, assetIn, m.Symbol)
	}

	newCurrency := m.ReserveCurrency - float64(payout)
	newAsset := m.ReserveAsset + assetIn
	if newCurrency <= 0 {
		return nil, fmt.Errorf("%w: %s currency reserve would be exhausted", domain.ErrIlliquidMarket, m.Symbol)
	}
	if !isFinitePositive(newAsset) {
		return nil, fmt.Errorf("%w: sell on %s", domain.ErrNonFinite, m.Symbol)
	}

	return &TradeQuote{
		CurrencyAmount:  payout,
		AssetAmount:     assetIn,
		PriceBefore:     m.Price(),
		PriceAfter:      newCurrency / newAsset,
		ReserveCurrency: newCurrency,
		ReserveAsset:    newAsset,
	}, nil
}

// ApplyQuote moves the market to the reserves of an executed trade
func (m *Market) ApplyQuote(q *TradeQuote, at time.Time) {
	m.ReserveCurrency = q.ReserveCurrency
	m.ReserveAsset = q.ReserveAsset
	m.LastPrice = q.PriceAfter
	m.LastTickAt = at
}

// Retarget rebuilds the reserves around targetPrice keeping k, then applies
// the reserve floors. A floor re-derives the opposite side from k.
func (m *Market) Retarget(targetPrice float64) error {
	if !isFinitePositive(targetPrice) {
		return fmt.Errorf("%w: target price %v", domain.ErrNonFinite, targetPrice)
	}

	k := m.K()
	currency := math.Sqrt(k * targetPrice)
	asset := math.Sqrt(k / targetPrice)

	if currency < MinReserveCurrency {
		currency = MinReserveCurrency
		asset = k / currency
	}
	if asset < MinReserveAsset {
		asset = MinReserveAsset
		currency = k / asset
	}
	if !isFinitePositive(currency) || !isFinitePositive(asset) {
		return fmt.Errorf("%w: retarget of %s", domain.ErrNonFinite, m.Symbol)
	}

	m.ReserveCurrency = currency
	m.ReserveAsset = asset
	m.LastPrice = currency / asset
	return nil
}

// Reseed resets the reserves from an opening price and currency liquidity
func (m *Market) Reseed(startPrice, liquidity float64, at time.Time) error {
	if !isFinitePositive(startPrice) || !isFinitePositive(liquidity) {
		return fmt.Errorf("%w: price and liquidity must be positive", domain.ErrInvalidParameter)
	}
	m.ReserveCurrency = liquidity
	m.ReserveAsset = liquidity / startPrice
	m.LastPrice = startPrice
	m.DayOpenPrice = startPrice
	m.LastTickAt = at
	return nil
}

// CrossesDay reports whether now falls on a later UTC epoch day than the last tick
func (m *Market) CrossesDay(now time.Time) bool {
	return epochDay(now) != epochDay(m.LastTickAt)
}

func epochDay(t time.Time) int64 {
	return t.Unix() / 86400
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Holding is an account's balance of one asset
type Holding struct {
	AccountID int64   `db:"account_id"`
	Symbol    string  `db:"symbol"`
	Coins     float64 `db:"coins"`
}

// PriceTick is one point of a market's price history
type PriceTick struct {
	ID         int64     `db:"id"`
	Symbol     string    `db:"symbol"`
	Price      float64   `db:"price"`
	RecordedAt time.Time `db:"recorded_at"`
}

// MarketEventKind labels a price shock
type MarketEventKind string

const (
	MarketEventMoon  MarketEventKind = "MOON"
	MarketEventCrash MarketEventKind = "CRASH"
)

// MarketEvent records a shock applied during a drift tick
type MarketEvent struct {
	ID         int64           `db:"id"`
	Symbol     string          `db:"symbol"`
	Kind       MarketEventKind `db:"kind"`
	Pct        float64         `db:"pct"`
	Note       string          `db:"note"`
	OccurredAt time.Time       `db:"occurred_at"`
}
