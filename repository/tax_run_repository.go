package repository

import (
	"context"
	"errors"
	"fmt"

	"econsim/database"
	"econsim/domain/entities"

	"github.com/jackc/pgx/v5"
)

// TaxRunRepository implements the TaxRunRepository interface
type TaxRunRepository struct {
	q queryable
}

// NewTaxRunRepository creates a new tax run repository
func NewTaxRunRepository(db *database.DB) *TaxRunRepository {
	return &TaxRunRepository{q: db.Pool}
}

// newTaxRunRepositoryWithTx creates a new tax run repository with a transaction
func newTaxRunRepositoryWithTx(tx queryable) *TaxRunRepository {
	return &TaxRunRepository{q: tx}
}

// Create creates a new tax run record. The date key is unique.
func (r *TaxRunRepository) Create(ctx context.Context, run *entities.TaxRun) error {
	query := `
		INSERT INTO tax_runs (date_key, accounts_taxed, total_tax, ran_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.q.QueryRow(ctx, query, run.DateKey, run.AccountsTaxed, run.TotalTax, run.RanAt).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("failed to create tax run for %s: %w", run.DateKey, err)
	}
	return nil
}

// GetByDateKey returns the run for a calendar date, nil when none
func (r *TaxRunRepository) GetByDateKey(ctx context.Context, dateKey string) (*entities.TaxRun, error) {
	query := `
		SELECT id, date_key, accounts_taxed, total_tax, ran_at
		FROM tax_runs
		WHERE date_key = $1
	`
	var run entities.TaxRun
	err := r.q.QueryRow(ctx, query, dateKey).Scan(&run.ID, &run.DateKey, &run.AccountsTaxed, &run.TotalTax, &run.RanAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tax run for %s: %w", dateKey, err)
	}
	return &run, nil
}

// GetLatest returns the most recent tax run
func (r *TaxRunRepository) GetLatest(ctx context.Context) (*entities.TaxRun, error) {
	query := `
		SELECT id, date_key, accounts_taxed, total_tax, ran_at
		FROM tax_runs
		ORDER BY ran_at DESC, id DESC
		LIMIT 1
	`
	var run entities.TaxRun
	err := r.q.QueryRow(ctx, query).Scan(&run.ID, &run.DateKey, &run.AccountsTaxed, &run.TotalTax, &run.RanAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest tax run: %w", err)
	}
	return &run, nil
}
