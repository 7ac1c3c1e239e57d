package application

import (
	"context"
	"time"

	"econsim/events"

	log "github.com/sirupsen/logrus"
)

// EventSubscriber registers handlers for bus events
type EventSubscriber interface {
	Subscribe(eventType events.EventType, handler events.Handler)
}

// PriceFeed receives committed price updates and market shocks
type PriceFeed interface {
	StorePrice(ctx context.Context, symbol string, price, dayOpenPrice float64, at time.Time) error
	PublishShock(ctx context.Context, shock events.MarketShockEvent) error
}

// RegisterApplicationSubscriptions forwards committed market events to the price feed
func RegisterApplicationSubscriptions(subscriber EventSubscriber, feed PriceFeed) {
	subscriber.Subscribe(events.EventTypePriceUpdated, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.PriceUpdatedEvent)
		if !ok {
			return
		}
		if err := feed.StorePrice(ctx, e.Symbol, e.Price, e.DayOpenPrice, e.At); err != nil {
			log.WithError(err).WithField("symbol", e.Symbol).Warn("Failed to store price in feed")
		}
	})

	subscriber.Subscribe(events.EventTypeMarketShock, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.MarketShockEvent)
		if !ok {
			return
		}
		if err := feed.PublishShock(ctx, e); err != nil {
			log.WithError(err).WithField("symbol", e.Symbol).Warn("Failed to publish market shock")
		}
	})
}
