package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"econsim/database"

	"github.com/jackc/pgx/v5"
)

const lotteryPoolKey = "lottery_pool"

// SystemStateRepository implements the SystemStateRepository interface
type SystemStateRepository struct {
	q queryable
}

// NewSystemStateRepository creates a new system state repository
func NewSystemStateRepository(db *database.DB) *SystemStateRepository {
	return &SystemStateRepository{q: db.Pool}
}

// newSystemStateRepositoryWithTx creates a new system state repository with a transaction
func newSystemStateRepositoryWithTx(tx queryable) *SystemStateRepository {
	return &SystemStateRepository{q: tx}
}

// Get returns the stored value and whether the key exists
func (r *SystemStateRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.q.QueryRow(ctx, `SELECT value FROM system_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get system state %q: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a value
func (r *SystemStateRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO system_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	if _, err := r.q.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set system state %q: %w", key, err)
	}
	return nil
}

// GetLotteryPool returns the pool, zero when it was never set
func (r *SystemStateRepository) GetLotteryPool(ctx context.Context) (int64, error) {
	value, ok, err := r.Get(ctx, lotteryPoolKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	pool, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid lottery pool value %q: %w", value, err)
	}
	return pool, nil
}

// SetLotteryPool overwrites the pool
func (r *SystemStateRepository) SetLotteryPool(ctx context.Context, pool int64) error {
	return r.Set(ctx, lotteryPoolKey, strconv.FormatInt(pool, 10))
}

// AddToLotteryPool increments the pool and returns the new value
func (r *SystemStateRepository) AddToLotteryPool(ctx context.Context, amount int64) (int64, error) {
	query := `
		INSERT INTO system_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET value = (system_state.value::BIGINT + $3::BIGINT)::TEXT
		RETURNING value::BIGINT
	`
	var pool int64
	err := r.q.QueryRow(ctx, query, lotteryPoolKey, strconv.FormatInt(amount, 10), amount).Scan(&pool)
	if err != nil {
		return 0, fmt.Errorf("failed to add %d to lottery pool: %w", amount, err)
	}
	return pool, nil
}
