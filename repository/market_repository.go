package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"econsim/database"
	"econsim/domain/entities"

	"github.com/jackc/pgx/v5"
)

const marketColumns = `
	symbol, name, reserve_currency, reserve_asset, fee,
	created_at, last_price, last_tick_at, day_open_price`

// MarketRepository implements the MarketRepository interface
type MarketRepository struct {
	q queryable
}

// NewMarketRepository creates a new market repository
func NewMarketRepository(db *database.DB) *MarketRepository {
	return &MarketRepository{q: db.Pool}
}

// newMarketRepositoryWithTx creates a new market repository with a transaction
func newMarketRepositoryWithTx(tx queryable) *MarketRepository {
	return &MarketRepository{q: tx}
}

func scanMarket(row rowScanner) (*entities.Market, error) {
	var m entities.Market
	err := row.Scan(
		&m.Symbol,
		&m.Name,
		&m.ReserveCurrency,
		&m.ReserveAsset,
		&m.Fee,
		&m.CreatedAt,
		&m.LastPrice,
		&m.LastTickAt,
		&m.DayOpenPrice,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetBySymbol returns the market or nil when the symbol is unknown
func (r *MarketRepository) GetBySymbol(ctx context.Context, symbol string) (*entities.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE symbol = $1`

	market, err := scanMarket(r.q.QueryRow(ctx, query, strings.ToUpper(symbol)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market %s: %w", symbol, err)
	}
	return market, nil
}

// GetAll returns every market ordered by symbol
func (r *MarketRepository) GetAll(ctx context.Context) ([]*entities.Market, error) {
	rows, err := r.q.Query(ctx, `SELECT `+marketColumns+` FROM markets ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to get markets: %w", err)
	}
	defer rows.Close()

	var markets []*entities.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate markets: %w", err)
	}
	return markets, nil
}

// Update persists reserves, prices and tick timestamps
func (r *MarketRepository) Update(ctx context.Context, market *entities.Market) error {
	query := `
		UPDATE markets
		SET reserve_currency = $1, reserve_asset = $2, fee = $3,
		    last_price = $4, last_tick_at = $5, day_open_price = $6
		WHERE symbol = $7
	`
	result, err := r.q.Exec(ctx, query,
		market.ReserveCurrency,
		market.ReserveAsset,
		market.Fee,
		market.LastPrice,
		market.LastTickAt,
		market.DayOpenPrice,
		market.Symbol,
	)
	if err != nil {
		return fmt.Errorf("failed to update market %s: %w", market.Symbol, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("market %s not found", market.Symbol)
	}
	return nil
}

// RecordPrice appends a point to the price history
func (r *MarketRepository) RecordPrice(ctx context.Context, symbol string, price float64, at time.Time) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO price_ticks (symbol, price, recorded_at) VALUES ($1, $2, $3)`,
		symbol, price, at)
	if err != nil {
		return fmt.Errorf("failed to record price for %s: %w", symbol, err)
	}
	return nil
}

// GetPriceSeries returns up to limit points recorded at or after since, oldest first
func (r *MarketRepository) GetPriceSeries(ctx context.Context, symbol string, since time.Time, limit int) ([]*entities.PriceTick, error) {
	query := `
		SELECT id, symbol, price, recorded_at
		FROM price_ticks
		WHERE symbol = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC, id ASC
		LIMIT $3
	`
	rows, err := r.q.Query(ctx, query, symbol, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price series for %s: %w", symbol, err)
	}
	defer rows.Close()

	var ticks []*entities.PriceTick
	for rows.Next() {
		var t entities.PriceTick
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Price, &t.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price tick: %w", err)
		}
		ticks = append(ticks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price ticks: %w", err)
	}
	return ticks, nil
}

// RecordEvent stores a shock and assigns its id
func (r *MarketRepository) RecordEvent(ctx context.Context, event *entities.MarketEvent) error {
	query := `
		INSERT INTO market_events (symbol, kind, pct, note, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.q.QueryRow(ctx, query,
		event.Symbol,
		string(event.Kind),
		event.Pct,
		event.Note,
		event.OccurredAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to record %s event for %s: %w", event.Kind, event.Symbol, err)
	}
	return nil
}

// GetRecentEvents returns the latest shocks across all markets, newest first
func (r *MarketRepository) GetRecentEvents(ctx context.Context, limit int) ([]*entities.MarketEvent, error) {
	query := `
		SELECT id, symbol, kind, pct, note, occurred_at
		FROM market_events
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get market events: %w", err)
	}
	defer rows.Close()

	var out []*entities.MarketEvent
	for rows.Next() {
		var e entities.MarketEvent
		var kind string
		if err := rows.Scan(&e.ID, &e.Symbol, &kind, &e.Pct, &e.Note, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan market event: %w", err)
		}
		e.Kind = entities.MarketEventKind(kind)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate market events: %w", err)
	}
	return out, nil
}

// ClearHistory removes every price tick and event for a symbol
func (r *MarketRepository) ClearHistory(ctx context.Context, symbol string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM price_ticks WHERE symbol = $1`, symbol); err != nil {
		return fmt.Errorf("failed to clear price history for %s: %w", symbol, err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM market_events WHERE symbol = $1`, symbol); err != nil {
		return fmt.Errorf("failed to clear events for %s: %w", symbol, err)
	}
	return nil
}
