// Package cache keeps the latest market prices in Redis and publishes market
// shocks on a Redis channel.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"econsim/application"
	"econsim/events"

	"github.com/redis/go-redis/v9"
)

// ShockChannel is the pub/sub channel carrying market shocks
const ShockChannel = "econsim:market:shocks"

// ErrNotFound is returned when no price is cached for a symbol
var ErrNotFound = errors.New("cache: not found")

// ClientConfig holds connection parameters for the Redis client
type ClientConfig struct {
	Addr     string
	Password string
	DB       int
}

// PriceCache stores each market's latest price as a hash at "price:{symbol}"
// with fields price, day_open and ts (Unix nanoseconds)
type PriceCache struct {
	rdb *redis.Client
}

// New connects to Redis and verifies the connection with a ping
func New(ctx context.Context, cfg ClientConfig) (*PriceCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &PriceCache{rdb: rdb}, nil
}

// Ping checks the Redis connection
func (c *PriceCache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *PriceCache) Close() error {
	return c.rdb.Close()
}

func priceKey(symbol string) string {
	return "price:" + symbol
}

// CachedPrice is a market's latest committed price
type CachedPrice struct {
	Symbol       string    `json:"symbol"`
	Price        float64   `json:"price"`
	DayOpenPrice float64   `json:"day_open_price"`
	At           time.Time `json:"at"`
}

// StorePrice records the latest price for a market
func (c *PriceCache) StorePrice(ctx context.Context, symbol string, price, dayOpenPrice float64, at time.Time) error {
	fields := map[string]any{
		"price":    strconv.FormatFloat(price, 'f', -1, 64),
		"day_open": strconv.FormatFloat(dayOpenPrice, 'f', -1, 64),
		"ts":       strconv.FormatInt(at.UnixNano(), 10),
	}
	if err := c.rdb.HSet(ctx, priceKey(symbol), fields).Err(); err != nil {
		return fmt.Errorf("redis: set price %s: %w", symbol, err)
	}
	return nil
}

// GetPrice returns the cached price for a symbol or ErrNotFound
func (c *PriceCache) GetPrice(ctx context.Context, symbol string) (*CachedPrice, error) {
	vals, err := c.rdb.HGetAll(ctx, priceKey(symbol)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get price %s: %w", symbol, err)
	}
	return parsePrice(symbol, vals)
}

// GetPrices returns the cached prices of several symbols using a pipeline.
// Symbols without a cached price are omitted.
func (c *PriceCache) GetPrices(ctx context.Context, symbols []string) (map[string]*CachedPrice, error) {
	if len(symbols) == 0 {
		return map[string]*CachedPrice{}, nil
	}

	pipe := c.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(symbols))
	for _, s := range symbols {
		cmds[s] = pipe.HGetAll(ctx, priceKey(s))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get prices pipeline: %w", err)
	}

	result := make(map[string]*CachedPrice, len(symbols))
	for symbol, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil {
			continue
		}
		p, err := parsePrice(symbol, vals)
		if err != nil {
			continue
		}
		result[symbol] = p
	}
	return result, nil
}

func parsePrice(symbol string, vals map[string]string) (*CachedPrice, error) {
	if len(vals) == 0 {
		return nil, ErrNotFound
	}
	price, err := strconv.ParseFloat(vals["price"], 64)
	if err != nil {
		return nil, fmt.Errorf("redis: parse price %s: %w", symbol, err)
	}
	dayOpen, err := strconv.ParseFloat(vals["day_open"], 64)
	if err != nil {
		return nil, fmt.Errorf("redis: parse day open %s: %w", symbol, err)
	}
	ts, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis: parse ts %s: %w", symbol, err)
	}
	return &CachedPrice{
		Symbol:       symbol,
		Price:        price,
		DayOpenPrice: dayOpen,
		At:           time.Unix(0, ts).UTC(),
	}, nil
}

// ShockMessage is the JSON payload published on ShockChannel
type ShockMessage struct {
	Symbol string    `json:"symbol"`
	Kind   string    `json:"kind"`
	Pct    float64   `json:"pct"`
	Note   string    `json:"note"`
	At     time.Time `json:"at"`
}

// PublishShock announces a market shock to feed subscribers
func (c *PriceCache) PublishShock(ctx context.Context, shock events.MarketShockEvent) error {
	payload, err := json.Marshal(ShockMessage{
		Symbol: shock.Symbol,
		Kind:   string(shock.Kind),
		Pct:    shock.Pct,
		Note:   shock.Note,
		At:     shock.At,
	})
	if err != nil {
		return fmt.Errorf("redis: encode shock: %w", err)
	}
	if err := c.rdb.Publish(ctx, ShockChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", ShockChannel, err)
	}
	return nil
}

// SubscribeShocks streams shocks until ctx is cancelled. The returned channel
// is closed when the subscription ends.
func (c *PriceCache) SubscribeShocks(ctx context.Context) (<-chan ShockMessage, error) {
	pubsub := c.rdb.Subscribe(ctx, ShockChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", ShockChannel, err)
	}

	out := make(chan ShockMessage, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var shock ShockMessage
				if err := json.Unmarshal([]byte(msg.Payload), &shock); err != nil {
					continue
				}
				select {
				case out <- shock:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Compile-time interface check.
var _ application.PriceFeed = (*PriceCache)(nil)
