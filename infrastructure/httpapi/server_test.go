package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"econsim/application"
	"econsim/domain"
	"econsim/domain/entities"
	"econsim/domain/interfaces"
	"econsim/infrastructure/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEconomy struct {
	mock.Mock
}

func (m *mockEconomy) ListMarkets(ctx context.Context) ([]*entities.Market, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Market), args.Error(1)
}

func (m *mockEconomy) GetMarket(ctx context.Context, symbol string) (*entities.Market, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Market), args.Error(1)
}

func (m *mockEconomy) PriceSeries(ctx context.Context, symbol string, window time.Duration, limit int) ([]*entities.PriceTick, error) {
	args := m.Called(ctx, symbol, window, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PriceTick), args.Error(1)
}

func (m *mockEconomy) RecentMarketEvents(ctx context.Context, limit int) ([]*entities.MarketEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MarketEvent), args.Error(1)
}

func (m *mockEconomy) Lottery(ctx context.Context, recent int) (*application.LotteryOverview, error) {
	args := m.Called(ctx, recent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.LotteryOverview), args.Error(1)
}

func (m *mockEconomy) TaxStatus(ctx context.Context) (*interfaces.TaxStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.TaxStatus), args.Error(1)
}

func (m *mockEconomy) Leaderboard(ctx context.Context, limit int) ([]*entities.Account, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Account), args.Error(1)
}

func (m *mockEconomy) ListOpenBets(ctx context.Context) ([]*entities.Bet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *mockEconomy) BetSummary(ctx context.Context, betID int64) (*interfaces.BetSummary, error) {
	args := m.Called(ctx, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.BetSummary), args.Error(1)
}

type stubPrices map[string]*cache.CachedPrice

func (s stubPrices) GetPrices(ctx context.Context, symbols []string) (map[string]*cache.CachedPrice, error) {
	out := make(map[string]*cache.CachedPrice)
	for _, sym := range symbols {
		if p, ok := s[sym]; ok {
			out[sym] = p
		}
	}
	return out, nil
}

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()
	rec := serve(t, New(new(mockEconomy), nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestServer_Markets(t *testing.T) {
	t.Parallel()
	econ := new(mockEconomy)
	econ.On("ListMarkets", mock.Anything).Return([]*entities.Market{
		{Symbol: "BLOO", Name: "Bloo Coin", LastPrice: 1100, DayOpenPrice: 1000, ReserveCurrency: 1e7, ReserveAsset: 1e4, Fee: 0.007},
	}, nil)

	rec := serve(t, New(econ, nil), "/api/markets")
	require.Equal(t, http.StatusOK, rec.Code)

	markets := decode[[]marketView](t, rec)
	require.Len(t, markets, 1)
	assert.Equal(t, "BLOO", markets[0].Symbol)
	assert.InDelta(t, 10.0, markets[0].DayChangePct, 1e-9)
}

func TestServer_UnknownMarket(t *testing.T) {
	t.Parallel()
	econ := new(mockEconomy)
	econ.On("GetMarket", mock.Anything, "NOPE").Return(nil, fmt.Errorf("%w: NOPE", domain.ErrUnknownSymbol))

	rec := serve(t, New(econ, nil), "/api/markets/NOPE")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_PriceSeriesWindow(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	econ := new(mockEconomy)
	econ.On("PriceSeries", mock.Anything, "hop", 2*time.Hour, defaultSeriesPoints).Return([]*entities.PriceTick{
		{Symbol: "HOP", Price: 990, RecordedAt: at},
		{Symbol: "HOP", Price: 1001, RecordedAt: at.Add(time.Minute)},
	}, nil)

	rec := serve(t, New(econ, nil), "/api/markets/hop/prices?window=2h")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Symbol string          `json:"symbol"`
		Window string          `json:"window"`
		Points []priceTickView `json:"points"`
	}](t, rec)
	assert.Equal(t, "HOP", body.Symbol)
	assert.Equal(t, "2h0m0s", body.Window)
	require.Len(t, body.Points, 2)
	assert.Equal(t, 1001.0, body.Points[1].Price)
}

func TestServer_MarketEventsRouteIsNotASymbol(t *testing.T) {
	t.Parallel()
	econ := new(mockEconomy)
	econ.On("RecentMarketEvents", mock.Anything, 3).Return([]*entities.MarketEvent{
		{Symbol: "BDC", Kind: entities.MarketEventMoon, Pct: 5},
	}, nil)

	rec := serve(t, New(econ, nil), "/api/markets/events?limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	evs := decode[[]marketEventView](t, rec)
	require.Len(t, evs, 1)
	assert.Equal(t, "MOON", evs[0].Kind)
	econ.AssertNotCalled(t, "GetMarket", mock.Anything, mock.Anything)
}

func TestServer_Lottery(t *testing.T) {
	t.Parallel()
	econ := new(mockEconomy)
	econ.On("Lottery", mock.Anything, recentDrawCount).Return(&application.LotteryOverview{
		Pool:        345678,
		TicketCount: 4,
		RecentDraws: []*entities.LotteryDraw{{Numbers: [5]int{1, 2, 3, 4, 5}, Powerball: 2}},
	}, nil)

	rec := serve(t, New(econ, nil), "/api/lottery")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, 345678.0, body["pool"])
	assert.Equal(t, "345.68 K", body["pool_display"])
	assert.Equal(t, 4.0, body["tickets"])
}

func TestServer_TaxStatus(t *testing.T) {
	t.Parallel()
	econ := new(mockEconomy)
	econ.On("TaxStatus", mock.Anything).Return(&interfaces.TaxStatus{
		Timezone: "America/Chicago", DateKey: "2026-10-16", Eligible: true, LastTaxDate: "2026-10-15",
	}, nil)

	rec := serve(t, New(econ, nil), "/api/tax/status")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["eligible"])
	assert.Equal(t, "2026-10-15", body["last_tax_date"])
}

func TestServer_Leaderboard(t *testing.T) {
	t.Parallel()
	econ := new(mockEconomy)
	econ.On("Leaderboard", mock.Anything, defaultLeaderboardLimit).Return([]*entities.Account{
		{ID: 2, DisplayName: "bob", Balance: 900},
		{ID: 1, DisplayName: "alice", Balance: 500},
	}, nil)

	rec := serve(t, New(econ, nil), "/api/leaderboard?limit=bogus")
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]accountView](t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, "alice", rows[1].DisplayName)
}

func TestServer_Bet(t *testing.T) {
	t.Parallel()
	econ := new(mockEconomy)
	bet := &entities.Bet{ID: 9, Title: "Rain?", Status: entities.BetStatusOpen, Options: []*entities.BetOption{
		{BetID: 9, OptionNum: 1, Label: "Yes"}, {BetID: 9, OptionNum: 2, Label: "No"},
	}}
	econ.On("BetSummary", mock.Anything, int64(9)).Return(&interfaces.BetSummary{
		Bet: bet, UserPool: 400, EffectivePool: 400, WagerCount: 2,
		Options: []interfaces.BetOptionSummary{{OptionNum: 1, Label: "Yes", Pool: 100, Odds: "+300"}},
	}, nil)
	econ.On("BetSummary", mock.Anything, int64(10)).Return(nil, fmt.Errorf("%w: #10", domain.ErrUnknownBet))

	s := New(econ, nil)

	rec := serve(t, s, "/api/bets/9")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, 400.0, body["user_pool"])

	assert.Equal(t, http.StatusNotFound, serve(t, s, "/api/bets/10").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, s, "/api/bets/abc").Code)
}

func TestServer_CachedPrices(t *testing.T) {
	t.Parallel()
	econ := new(mockEconomy)
	econ.On("ListMarkets", mock.Anything).Return([]*entities.Market{{Symbol: "BLOO"}, {Symbol: "HOP"}}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, serve(t, New(econ, nil), "/api/prices").Code)

	prices := stubPrices{"BLOO": {Symbol: "BLOO", Price: 1000}}
	rec := serve(t, New(econ, prices), "/api/prices")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]cache.CachedPrice](t, rec)
	assert.Len(t, body, 1)
	assert.Equal(t, 1000.0, body["BLOO"].Price)
}

func TestServer_InternalErrorsAreHidden(t *testing.T) {
	t.Parallel()
	econ := new(mockEconomy)
	econ.On("ListOpenBets", mock.Anything).Return(nil, fmt.Errorf("failed to get bets: connection reset"))

	rec := serve(t, New(econ, nil), "/api/bets")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}
