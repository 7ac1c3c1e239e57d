package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"econsim/database"
	"econsim/domain/entities"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `
	id, display_name, balance, last_daily_at, jailed, jailed_at,
	paroled, parole_started_at, parole_last_pay_at, created_at, updated_at`

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

func scanAccount(row rowScanner) (*entities.Account, error) {
	var a entities.Account
	err := row.Scan(
		&a.ID,
		&a.DisplayName,
		&a.Balance,
		&a.LastDailyAt,
		&a.Jailed,
		&a.JailedAt,
		&a.Paroled,
		&a.ParoleStartedAt,
		&a.ParoleLastPayAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]*entities.Account, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*entities.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// GetByID retrieves an account, returning nil when it does not exist
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return account, nil
}

// Create inserts a new account with the starting balance
func (r *AccountRepository) Create(ctx context.Context, id int64, displayName string, initialBalance int64) (*entities.Account, error) {
	query := `
		INSERT INTO accounts (id, display_name, balance)
		VALUES ($1, $2, $3)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, id, displayName, initialBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create account %d: %w", id, err)
	}
	return account, nil
}

// UpdateBalance sets an account's balance
func (r *AccountRepository) UpdateBalance(ctx context.Context, id int64, newBalance int64) error {
	result, err := r.q.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, newBalance, id)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d not found", id)
	}
	return nil
}

// UpdateLastDaily stores when the account last claimed daily credits
func (r *AccountRepository) UpdateLastDaily(ctx context.Context, id int64, at time.Time) error {
	result, err := r.q.Exec(ctx, `UPDATE accounts SET last_daily_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to update daily claim for account %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d not found", id)
	}
	return nil
}

// UpdateStatus persists the jail and parole fields of the account
func (r *AccountRepository) UpdateStatus(ctx context.Context, account *entities.Account) error {
	query := `
		UPDATE accounts
		SET jailed = $1, jailed_at = $2, paroled = $3,
		    parole_started_at = $4, parole_last_pay_at = $5
		WHERE id = $6
	`
	result, err := r.q.Exec(ctx, query,
		account.Jailed,
		account.JailedAt,
		account.Paroled,
		account.ParoleStartedAt,
		account.ParoleLastPayAt,
		account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update status for account %d: %w", account.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d not found", account.ID)
	}
	return nil
}

// GetAll returns every account ordered by id
func (r *AccountRepository) GetAll(ctx context.Context) ([]*entities.Account, error) {
	accounts, err := r.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all accounts: %w", err)
	}
	return accounts, nil
}

// GetParoled returns accounts currently on parole
func (r *AccountRepository) GetParoled(ctx context.Context) ([]*entities.Account, error) {
	accounts, err := r.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE paroled ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get paroled accounts: %w", err)
	}
	return accounts, nil
}

// GetTop returns the richest accounts, ties broken by id
func (r *AccountRepository) GetTop(ctx context.Context, limit int) ([]*entities.Account, error) {
	accounts, err := r.queryAccounts(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY balance DESC, id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return accounts, nil
}
