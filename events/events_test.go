package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"econsim/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionalBus_FlushDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	tx := NewTransactionalBus(bus)

	received := make(chan BalanceChangeEvent, 1)
	bus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if e, ok := event.(BalanceChangeEvent); ok {
			received <- e
		}
	})

	ev := BalanceChangeEvent{
		AccountID:       42,
		OldBalance:      1000,
		NewBalance:      1750,
		TransactionType: entities.TransactionTypeDaily,
		ChangeAmount:    750,
	}
	require.NoError(t, tx.Publish(ev))
	assert.Equal(t, 1, tx.Pending())

	tx.Flush()
	assert.Equal(t, 0, tx.Pending())

	select {
	case got := <-received:
		assert.Equal(t, ev, got)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	bus := NewBus()
	tx := NewTransactionalBus(bus)

	var mu sync.Mutex
	calls := 0
	bus.Subscribe(EventTypeMarketShock, func(ctx context.Context, event Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	require.NoError(t, tx.Publish(MarketShockEvent{Symbol: "BLOO", Kind: entities.MarketEventMoon}))
	tx.Discard()
	tx.Flush()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}

func TestBus_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeTaxCollected, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeTaxCollected, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Emit(context.Background(), TaxCollectedEvent{DateKey: "2024-05-07"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler did not run")
	}
}

func TestBus_OnlyMatchingTypeReceives(t *testing.T) {
	bus := NewBus()

	got := make(chan EventType, 2)
	bus.Subscribe(EventTypePriceUpdated, func(ctx context.Context, event Event) {
		got <- event.Type()
	})

	bus.Emit(context.Background(), LotteryDrawnEvent{DrawID: "x"})
	bus.Emit(context.Background(), PriceUpdatedEvent{Symbol: "BDC", Price: 1000})

	select {
	case typ := <-got:
		assert.Equal(t, EventTypePriceUpdated, typ)
	case <-time.After(2 * time.Second):
		t.Fatal("price event not delivered")
	}
	select {
	case typ := <-got:
		t.Fatalf("unexpected delivery of %s", typ)
	case <-time.After(50 * time.Millisecond):
	}
}
