package events

import (
	"context"
	"sync"
	"time"

	"econsim/domain/entities"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange    EventType = "balance_change"
	EventTypeAccountActivated EventType = "account_activated"
	EventTypeTradeExecuted    EventType = "trade_executed"
	EventTypePriceUpdated     EventType = "price_updated"
	EventTypeMarketShock      EventType = "market_shock"
	EventTypeTaxCollected     EventType = "tax_collected"
	EventTypeParoleCollected  EventType = "parole_collected"
	EventTypeBetSettled       EventType = "bet_settled"
	EventTypeLotteryDrawn     EventType = "lottery_drawn"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	AccountID       int64
	OldBalance      int64
	NewBalance      int64
	TransactionType entities.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountActivatedEvent represents a newly created ledger account
type AccountActivatedEvent struct {
	AccountID      int64
	DisplayName    string
	InitialBalance int64
}

func (e AccountActivatedEvent) Type() EventType {
	return EventTypeAccountActivated
}

// TradeExecutedEvent represents a completed market buy or sell
type TradeExecutedEvent struct {
	AccountID   int64
	Symbol      string
	Side        string // "buy" or "sell"
	Currency    int64
	Asset       float64
	PriceBefore float64
	PriceAfter  float64
}

func (e TradeExecutedEvent) Type() EventType {
	return EventTypeTradeExecuted
}

// PriceUpdatedEvent carries a market's latest price after a trade, tick or reseed
type PriceUpdatedEvent struct {
	Symbol       string
	Price        float64
	DayOpenPrice float64
	At           time.Time
}

func (e PriceUpdatedEvent) Type() EventType {
	return EventTypePriceUpdated
}

// MarketShockEvent represents a MOON or CRASH applied during a tick
type MarketShockEvent struct {
	Symbol string
	Kind   entities.MarketEventKind
	Pct    float64
	Note   string
	At     time.Time
}

func (e MarketShockEvent) Type() EventType {
	return EventTypeMarketShock
}

// TaxCollectedEvent represents a completed daily wealth-tax pass
type TaxCollectedEvent struct {
	DateKey       string
	AccountsTaxed int
	TotalTax      int64
}

func (e TaxCollectedEvent) Type() EventType {
	return EventTypeTaxCollected
}

// ParoleCollectedEvent represents parole payments taken during one tick
type ParoleCollectedEvent struct {
	AccountID int64
	Steps     int64
	Total     int64
	Expired   bool
}

func (e ParoleCollectedEvent) Type() EventType {
	return EventTypeParoleCollected
}

// BetSettledEvent represents a bet reaching resolved or canceled
type BetSettledEvent struct {
	BetID         int64
	Status        entities.BetStatus
	WinningOption *int
	TotalPaid     int64
}

func (e BetSettledEvent) Type() EventType {
	return EventTypeBetSettled
}

// LotteryDrawnEvent represents a completed lottery draw
type LotteryDrawnEvent struct {
	DrawID       string
	PoolBefore   int64
	PoolAfter    int64
	TotalPaid    int64
	JackpotTaxed int64
	WinnerCount  int
}

func (e LotteryDrawnEvent) Type() EventType {
	return EventTypeLotteryDrawn
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers. Handlers run on their
// own goroutines; a panicking handler is logged and does not affect others.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until the
// transaction commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a pending-event buffer in front of real
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes the event until Flush
func (b *TransactionalBus) Publish(e Event) error {
	b.pending = append(b.pending, e)
	return nil
}

// Pending returns the number of stashed events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush emits every stashed event. Called after a successful commit.
func (b *TransactionalBus) Flush() {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events")

	// Handlers outlive the transaction context
	eventCtx := context.Background()
	for _, ev := range b.pending {
		if b.real != nil {
			b.real.Emit(eventCtx, ev)
		}
	}
	b.pending = nil
}

// Discard drops stashed events. Called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
