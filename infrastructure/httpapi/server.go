// Package httpapi serves a read-only JSON view of the economy.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"econsim/application"
	"econsim/domain"
	"econsim/domain/entities"
	"econsim/domain/interfaces"
	"econsim/domain/utils"
	"econsim/infrastructure/cache"
	"econsim/infrastructure/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

const (
	defaultSeriesPoints     = 180
	defaultEventLimit       = 20
	defaultLeaderboardLimit = 10
	recentDrawCount         = 5
	shutdownTimeout         = 10 * time.Second
)

// EconomyReader is the query side of the economy
type EconomyReader interface {
	ListMarkets(ctx context.Context) ([]*entities.Market, error)
	GetMarket(ctx context.Context, symbol string) (*entities.Market, error)
	PriceSeries(ctx context.Context, symbol string, window time.Duration, limit int) ([]*entities.PriceTick, error)
	RecentMarketEvents(ctx context.Context, limit int) ([]*entities.MarketEvent, error)
	Lottery(ctx context.Context, recent int) (*application.LotteryOverview, error)
	TaxStatus(ctx context.Context) (*interfaces.TaxStatus, error)
	Leaderboard(ctx context.Context, limit int) ([]*entities.Account, error)
	ListOpenBets(ctx context.Context) ([]*entities.Bet, error)
	BetSummary(ctx context.Context, betID int64) (*interfaces.BetSummary, error)
}

// PriceReader reads the latest cached prices
type PriceReader interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]*cache.CachedPrice, error)
}

// Server routes the status API
type Server struct {
	economy EconomyReader
	prices  PriceReader
	mux     *chi.Mux
}

// New creates a server. prices may be nil when no cache is configured.
func New(economy EconomyReader, prices PriceReader) *Server {
	s := &Server{
		economy: economy,
		prices:  prices,
		mux:     chi.NewRouter(),
	}
	s.routes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(observability.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Handle("/metrics", observability.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/markets", s.handleMarkets)
		r.Get("/markets/events", s.handleMarketEvents)
		r.Get("/markets/{symbol}", s.handleMarket)
		r.Get("/markets/{symbol}/prices", s.handlePriceSeries)
		r.Get("/prices", s.handleCachedPrices)
		r.Get("/lottery", s.handleLottery)
		r.Get("/tax/status", s.handleTaxStatus)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/bets", s.handleBets)
		r.Get("/bets/{id}", s.handleBet)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP status server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("HTTP status server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type marketView struct {
	Symbol          string    `json:"symbol"`
	Name            string    `json:"name"`
	Price           float64   `json:"price"`
	DayOpenPrice    float64   `json:"day_open_price"`
	DayChangePct    float64   `json:"day_change_pct"`
	ReserveCurrency float64   `json:"reserve_currency"`
	ReserveAsset    float64   `json:"reserve_asset"`
	Fee             float64   `json:"fee"`
	LastTickAt      time.Time `json:"last_tick_at"`
}

func toMarketView(m *entities.Market) marketView {
	return marketView{
		Symbol:          m.Symbol,
		Name:            m.Name,
		Price:           m.LastPrice,
		DayOpenPrice:    m.DayOpenPrice,
		DayChangePct:    m.DayChangePct(),
		ReserveCurrency: m.ReserveCurrency,
		ReserveAsset:    m.ReserveAsset,
		Fee:             m.Fee,
		LastTickAt:      m.LastTickAt,
	}
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := s.economy.ListMarkets(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]marketView, 0, len(markets))
	for _, m := range markets {
		out = append(out, toMarketView(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	m, err := s.economy.GetMarket(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMarketView(m))
}

type priceTickView struct {
	Price      float64   `json:"price"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (s *Server) handlePriceSeries(w http.ResponseWriter, r *http.Request) {
	window := utils.ParseTimeWindow(r.URL.Query().Get("window"))
	limit := queryInt(r, "points", defaultSeriesPoints)

	ticks, err := s.economy.PriceSeries(r.Context(), chi.URLParam(r, "symbol"), window, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]priceTickView, 0, len(ticks))
	for _, t := range ticks {
		out = append(out, priceTickView{Price: t.Price, RecordedAt: t.RecordedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol": strings.ToUpper(chi.URLParam(r, "symbol")),
		"window": window.String(),
		"points": out,
	})
}

type marketEventView struct {
	Symbol     string    `json:"symbol"`
	Kind       string    `json:"kind"`
	Pct        float64   `json:"pct"`
	Note       string    `json:"note"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *Server) handleMarketEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.economy.RecentMarketEvents(r.Context(), queryInt(r, "limit", defaultEventLimit))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]marketEventView, 0, len(evs))
	for _, e := range evs {
		out = append(out, marketEventView{
			Symbol:     e.Symbol,
			Kind:       string(e.Kind),
			Pct:        e.Pct,
			Note:       e.Note,
			OccurredAt: e.OccurredAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCachedPrices(w http.ResponseWriter, r *http.Request) {
	if s.prices == nil {
		writeError(w, http.StatusServiceUnavailable, "price cache not configured")
		return
	}
	markets, err := s.economy.ListMarkets(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	symbols := make([]string, 0, len(markets))
	for _, m := range markets {
		symbols = append(symbols, m.Symbol)
	}
	prices, err := s.prices.GetPrices(r.Context(), symbols)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, prices)
}

type drawView struct {
	ID          string    `json:"id"`
	Numbers     []int     `json:"numbers"`
	Powerball   int       `json:"powerball"`
	PoolBefore  int64     `json:"pool_before"`
	PoolAfter   int64     `json:"pool_after"`
	TierPaid    int64     `json:"tier_paid"`
	JackpotPaid int64     `json:"jackpot_gross"`
	JackpotTax  int64     `json:"jackpot_tax"`
	WinnerCount int       `json:"winner_count"`
	DrawnAt     time.Time `json:"drawn_at"`
}

func (s *Server) handleLottery(w http.ResponseWriter, r *http.Request) {
	overview, err := s.economy.Lottery(r.Context(), recentDrawCount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	draws := make([]drawView, 0, len(overview.RecentDraws))
	for _, d := range overview.RecentDraws {
		draws = append(draws, drawView{
			ID:          d.ID.String(),
			Numbers:     d.Numbers[:],
			Powerball:   d.Powerball,
			PoolBefore:  d.PoolBefore,
			PoolAfter:   d.PoolAfter,
			TierPaid:    d.TierPaid,
			JackpotPaid: d.JackpotGross,
			JackpotTax:  d.JackpotTax,
			WinnerCount: d.WinnerCount,
			DrawnAt:     d.DrawnAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pool":         overview.Pool,
		"pool_display": utils.FormatMoney(overview.Pool),
		"tickets":      overview.TicketCount,
		"recent_draws": draws,
	})
}

func (s *Server) handleTaxStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.economy.TaxStatus(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"timezone":      status.Timezone,
		"date_key":      status.DateKey,
		"eligible":      status.Eligible,
		"already_ran":   status.AlreadyRan,
		"last_tax_date": status.LastTaxDate,
	})
}

type accountView struct {
	Rank        int    `json:"rank"`
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Balance     int64  `json:"balance"`
	Jailed      bool   `json:"jailed"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.economy.Leaderboard(r.Context(), queryInt(r, "limit", defaultLeaderboardLimit))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]accountView, 0, len(accounts))
	for i, a := range accounts {
		out = append(out, accountView{
			Rank:        i + 1,
			ID:          a.ID,
			DisplayName: a.DisplayName,
			Balance:     a.Balance,
			Jailed:      a.Jailed,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type betView struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	BonusPool int64     `json:"bonus_pool"`
	CreatedAt time.Time `json:"created_at"`
	Options   []string  `json:"options"`
}

func toBetView(b *entities.Bet) betView {
	options := make([]string, 0, len(b.Options))
	for _, o := range b.Options {
		options = append(options, o.Label)
	}
	return betView{
		ID:        b.ID,
		Title:     b.Title,
		Status:    string(b.Status),
		BonusPool: b.BonusPool,
		CreatedAt: b.CreatedAt,
		Options:   options,
	}
}

func (s *Server) handleBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.economy.ListOpenBets(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]betView, 0, len(bets))
	for _, b := range bets {
		out = append(out, toBetView(b))
	}
	writeJSON(w, http.StatusOK, out)
}

type betOptionView struct {
	OptionNum int    `json:"option"`
	Label     string `json:"label"`
	Pool      int64  `json:"pool"`
	Odds      string `json:"odds"`
}

func (s *Server) handleBet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bet id")
		return
	}
	summary, err := s.economy.BetSummary(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	options := make([]betOptionView, 0, len(summary.Options))
	for _, o := range summary.Options {
		options = append(options, betOptionView{OptionNum: o.OptionNum, Label: o.Label, Pool: o.Pool, Odds: o.Odds})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bet":            toBetView(summary.Bet),
		"user_pool":      summary.UserPool,
		"effective_pool": summary.EffectivePool,
		"wagers":         summary.WagerCount,
		"options":        options,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownSymbol), errors.Is(err, domain.ErrUnknownBet):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidParameter):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.WithError(err).Error("Status API request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
