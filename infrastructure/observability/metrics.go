// Package observability provides Prometheus instrumentation for the economy.
package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"econsim/events"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesTotal counts executed trades by symbol and side.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econsim_trades_total",
		Help: "Total number of market trades executed",
	}, []string{"symbol", "side"})

	// TradeVolume sums the currency side of executed trades.
	TradeVolume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econsim_trade_volume_total",
		Help: "Cumulative currency traded",
	}, []string{"symbol", "side"})

	// MarketPrice tracks the last committed price per market.
	MarketPrice = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "econsim_market_price",
		Help: "Last committed market price",
	}, []string{"symbol"})

	// MarketShocks counts MOON and CRASH events.
	MarketShocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econsim_market_shocks_total",
		Help: "Price shocks applied during drift ticks",
	}, []string{"symbol", "kind"})

	// TaxCollected sums wealth tax taken across runs.
	TaxCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econsim_tax_collected_total",
		Help: "Currency collected by the daily wealth tax",
	})

	// TaxRuns counts completed tax runs.
	TaxRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econsim_tax_runs_total",
		Help: "Completed daily tax runs",
	})

	// ParoleCollected sums parole payments.
	ParoleCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econsim_parole_collected_total",
		Help: "Currency collected from paroled accounts",
	})

	// LotteryPool tracks the pool left after the last draw.
	LotteryPool = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "econsim_lottery_pool",
		Help: "Lottery pool after the most recent draw",
	})

	// LotteryPayouts sums currency paid by draws.
	LotteryPayouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econsim_lottery_paid_total",
		Help: "Currency paid to lottery winners before jackpot tax",
	})

	// BetsSettled counts resolved and canceled bets.
	BetsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econsim_bets_settled_total",
		Help: "Bets that reached a final state",
	}, []string{"status"})

	// BalanceChanges counts ledger movements by transaction type.
	BalanceChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econsim_balance_changes_total",
		Help: "Recorded balance changes",
	}, []string{"type"})

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econsim_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "econsim_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "route"})
)

// Subscriber registers handlers for bus events
type Subscriber interface {
	Subscribe(eventType events.EventType, handler events.Handler)
}

// RegisterSubscriptions feeds committed economy events into the metrics
func RegisterSubscriptions(subscriber Subscriber) {
	for _, eventType := range []events.EventType{
		events.EventTypeBalanceChange,
		events.EventTypeTradeExecuted,
		events.EventTypePriceUpdated,
		events.EventTypeMarketShock,
		events.EventTypeTaxCollected,
		events.EventTypeParoleCollected,
		events.EventTypeBetSettled,
		events.EventTypeLotteryDrawn,
	} {
		subscriber.Subscribe(eventType, Observe)
	}
}

// Observe records one event
func Observe(_ context.Context, event events.Event) {
	switch e := event.(type) {
	case events.BalanceChangeEvent:
		BalanceChanges.WithLabelValues(string(e.TransactionType)).Inc()
	case events.TradeExecutedEvent:
		TradesTotal.WithLabelValues(e.Symbol, e.Side).Inc()
		TradeVolume.WithLabelValues(e.Symbol, e.Side).Add(float64(e.Currency))
	case events.PriceUpdatedEvent:
		MarketPrice.WithLabelValues(e.Symbol).Set(e.Price)
	case events.MarketShockEvent:
		MarketShocks.WithLabelValues(e.Symbol, string(e.Kind)).Inc()
	case events.TaxCollectedEvent:
		TaxRuns.Inc()
		TaxCollected.Add(float64(e.TotalTax))
	case events.ParoleCollectedEvent:
		ParoleCollected.Add(float64(e.Total))
	case events.BetSettledEvent:
		BetsSettled.WithLabelValues(string(e.Status)).Inc()
	case events.LotteryDrawnEvent:
		LotteryPool.Set(float64(e.PoolAfter))
		LotteryPayouts.Add(float64(e.TotalPaid))
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics labelled by the matched chi route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
