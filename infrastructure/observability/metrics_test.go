package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"econsim/domain/entities"
	"econsim/events"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve_MarketEvents(t *testing.T) {
	ctx := context.Background()

	Observe(ctx, events.TradeExecutedEvent{Symbol: "OBS1", Side: "buy", Currency: 2500})
	Observe(ctx, events.TradeExecutedEvent{Symbol: "OBS1", Side: "buy", Currency: 500})
	Observe(ctx, events.PriceUpdatedEvent{Symbol: "OBS1", Price: 1234.5})
	Observe(ctx, events.MarketShockEvent{Symbol: "OBS1", Kind: entities.MarketEventCrash, Pct: -4})

	assert.Equal(t, 2.0, testutil.ToFloat64(TradesTotal.WithLabelValues("OBS1", "buy")))
	assert.Equal(t, 3000.0, testutil.ToFloat64(TradeVolume.WithLabelValues("OBS1", "buy")))
	assert.Equal(t, 1234.5, testutil.ToFloat64(MarketPrice.WithLabelValues("OBS1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(MarketShocks.WithLabelValues("OBS1", "CRASH")))
}

func TestObserve_EconomyTotals(t *testing.T) {
	ctx := context.Background()
	taxBefore := testutil.ToFloat64(TaxCollected)
	runsBefore := testutil.ToFloat64(TaxRuns)
	paidBefore := testutil.ToFloat64(LotteryPayouts)

	Observe(ctx, events.TaxCollectedEvent{DateKey: "2026-10-16", AccountsTaxed: 3, TotalTax: 900})
	Observe(ctx, events.LotteryDrawnEvent{PoolAfter: 4242, TotalPaid: 100})
	Observe(ctx, events.BetSettledEvent{BetID: 1, Status: entities.BetStatusCanceled})

	assert.Equal(t, taxBefore+900, testutil.ToFloat64(TaxCollected))
	assert.Equal(t, runsBefore+1, testutil.ToFloat64(TaxRuns))
	assert.Equal(t, 4242.0, testutil.ToFloat64(LotteryPool))
	assert.Equal(t, paidBefore+100, testutil.ToFloat64(LotteryPayouts))
	assert.GreaterOrEqual(t, testutil.ToFloat64(BetsSettled.WithLabelValues("canceled")), 1.0)
}

func TestRegisterSubscriptions_CoversEveryEconomyEvent(t *testing.T) {
	bus := events.NewBus()
	recorder := &recordingSubscriber{bus: bus}

	RegisterSubscriptions(recorder)

	assert.Len(t, recorder.types, 8)
	assert.Contains(t, recorder.types, events.EventTypeLotteryDrawn)
	assert.NotContains(t, recorder.types, events.EventTypeAccountActivated)
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/markets/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/markets/{symbol}", "418"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets/BLOO", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/markets/{symbol}", "418")))
}

type recordingSubscriber struct {
	bus   *events.Bus
	types []events.EventType
}

func (s *recordingSubscriber) Subscribe(eventType events.EventType, handler events.Handler) {
	s.types = append(s.types, eventType)
	s.bus.Subscribe(eventType, handler)
}
