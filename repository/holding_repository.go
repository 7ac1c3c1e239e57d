package repository

import (
	"context"
	"errors"
	"fmt"

	"econsim/database"
	"econsim/domain/entities"

	"github.com/jackc/pgx/v5"
)

// HoldingRepository implements the HoldingRepository interface
type HoldingRepository struct {
	q queryable
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *database.DB) *HoldingRepository {
	return &HoldingRepository{q: db.Pool}
}

// newHoldingRepositoryWithTx creates a new holding repository with a transaction
func newHoldingRepositoryWithTx(tx queryable) *HoldingRepository {
	return &HoldingRepository{q: tx}
}

// Get returns the holding or nil when the account never held the symbol
func (r *HoldingRepository) Get(ctx context.Context, accountID int64, symbol string) (*entities.Holding, error) {
	query := `SELECT account_id, symbol, coins FROM holdings WHERE account_id = $1 AND symbol = $2`

	var h entities.Holding
	err := r.q.QueryRow(ctx, query, accountID, symbol).Scan(&h.AccountID, &h.Symbol, &h.Coins)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s holding for account %d: %w", symbol, accountID, err)
	}
	return &h, nil
}

// Set upserts the coin amount for an account and symbol
func (r *HoldingRepository) Set(ctx context.Context, accountID int64, symbol string, coins float64) error {
	query := `
		INSERT INTO holdings (account_id, symbol, coins)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, symbol) DO UPDATE SET coins = EXCLUDED.coins
	`
	if _, err := r.q.Exec(ctx, query, accountID, symbol, coins); err != nil {
		return fmt.Errorf("failed to set %s holding for account %d: %w", symbol, accountID, err)
	}
	return nil
}

// GetByAccount returns every non-zero holding of an account
func (r *HoldingRepository) GetByAccount(ctx context.Context, accountID int64) ([]*entities.Holding, error) {
	query := `
		SELECT account_id, symbol, coins
		FROM holdings
		WHERE account_id = $1 AND coins > 0
		ORDER BY symbol
	`
	rows, err := r.q.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var holdings []*entities.Holding
	for rows.Next() {
		var h entities.Holding
		if err := rows.Scan(&h.AccountID, &h.Symbol, &h.Coins); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}
	return holdings, nil
}
