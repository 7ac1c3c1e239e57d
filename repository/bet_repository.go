package repository

import (
	"context"
	"errors"
	"fmt"

	"econsim/database"
	"econsim/domain/entities"

	"github.com/jackc/pgx/v5"
)

const betColumns = `
	id, creator_id, title, status, created_at, closed_at,
	resolved_at, winning_option, bonus_pool, note`

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

func scanBet(row rowScanner) (*entities.Bet, error) {
	var b entities.Bet
	var status string
	err := row.Scan(
		&b.ID,
		&b.CreatorID,
		&b.Title,
		&status,
		&b.CreatedAt,
		&b.ClosedAt,
		&b.ResolvedAt,
		&b.WinningOption,
		&b.BonusPool,
		&b.Note,
	)
	if err != nil {
		return nil, err
	}
	b.Status = entities.BetStatus(status)
	return &b, nil
}

// CreateWithOptions inserts a bet and its options, assigning ids
func (r *BetRepository) CreateWithOptions(ctx context.Context, bet *entities.Bet, options []*entities.BetOption) error {
	query := `
		INSERT INTO bets (creator_id, title, status, created_at, bonus_pool)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.q.QueryRow(ctx, query,
		bet.CreatorID,
		bet.Title,
		string(bet.Status),
		bet.CreatedAt,
		bet.BonusPool,
	).Scan(&bet.ID)
	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}

	if len(options) == 0 {
		return nil
	}

	optionQuery := `INSERT INTO bet_options (bet_id, option_num, label) VALUES`
	var args []any
	for i, option := range options {
		if i > 0 {
			optionQuery += ","
		}
		paramIndex := i * 3
		optionQuery += fmt.Sprintf(" ($%d, $%d, $%d)", paramIndex+1, paramIndex+2, paramIndex+3)
		args = append(args, bet.ID, option.OptionNum, option.Label)
		option.BetID = bet.ID
	}

	if _, err := r.q.Exec(ctx, optionQuery, args...); err != nil {
		return fmt.Errorf("failed to create bet options: %w", err)
	}
	return nil
}

// GetByID retrieves a bet with its options, nil when missing
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*entities.Bet, error) {
	bet, err := scanBet(r.q.QueryRow(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}

	options, err := r.getOptions(ctx, id)
	if err != nil {
		return nil, err
	}
	bet.Options = options
	return bet, nil
}

func (r *BetRepository) getOptions(ctx context.Context, betID int64) ([]*entities.BetOption, error) {
	rows, err := r.q.Query(ctx,
		`SELECT bet_id, option_num, label FROM bet_options WHERE bet_id = $1 ORDER BY option_num`, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get options for bet %d: %w", betID, err)
	}
	defer rows.Close()

	var options []*entities.BetOption
	for rows.Next() {
		var o entities.BetOption
		if err := rows.Scan(&o.BetID, &o.OptionNum, &o.Label); err != nil {
			return nil, fmt.Errorf("failed to scan bet option: %w", err)
		}
		options = append(options, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bet options: %w", err)
	}
	return options, nil
}

// Update persists status, timestamps, winning option, bonus pool and note
func (r *BetRepository) Update(ctx context.Context, bet *entities.Bet) error {
	query := `
		UPDATE bets
		SET status = $1, closed_at = $2, resolved_at = $3,
		    winning_option = $4, bonus_pool = $5, note = $6
		WHERE id = $7
	`
	result, err := r.q.Exec(ctx, query,
		string(bet.Status),
		bet.ClosedAt,
		bet.ResolvedAt,
		bet.WinningOption,
		bet.BonusPool,
		bet.Note,
		bet.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bet %d: %w", bet.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet %d not found", bet.ID)
	}
	return nil
}

// GetActive returns open and closed bets, newest first
func (r *BetRepository) GetActive(ctx context.Context) ([]*entities.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE status IN ('open', 'closed')
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active bets: %w", err)
	}

	var bets []*entities.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	// Options are loaded after the cursor is closed; a transaction allows one open query
	for _, b := range bets {
		if b.Options, err = r.getOptions(ctx, b.ID); err != nil {
			return nil, err
		}
	}
	return bets, nil
}

// GetWager returns the account's stake on a bet, nil when none
func (r *BetRepository) GetWager(ctx context.Context, betID, accountID int64) (*entities.BetWager, error) {
	query := `
		SELECT bet_id, account_id, option_num, amount, placed_at
		FROM bet_wagers
		WHERE bet_id = $1 AND account_id = $2
	`
	var w entities.BetWager
	err := r.q.QueryRow(ctx, query, betID, accountID).Scan(&w.BetID, &w.AccountID, &w.OptionNum, &w.Amount, &w.PlacedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager for account %d on bet %d: %w", accountID, betID, err)
	}
	return &w, nil
}

// SaveWager upserts the stake of an account on a bet
func (r *BetRepository) SaveWager(ctx context.Context, wager *entities.BetWager) error {
	query := `
		INSERT INTO bet_wagers (bet_id, account_id, option_num, amount, placed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bet_id, account_id)
		DO UPDATE SET amount = EXCLUDED.amount, placed_at = EXCLUDED.placed_at
	`
	_, err := r.q.Exec(ctx, query, wager.BetID, wager.AccountID, wager.OptionNum, wager.Amount, wager.PlacedAt)
	if err != nil {
		return fmt.Errorf("failed to save wager for account %d on bet %d: %w", wager.AccountID, wager.BetID, err)
	}
	return nil
}

// GetWagers returns every stake on a bet ordered by account id
func (r *BetRepository) GetWagers(ctx context.Context, betID int64) ([]*entities.BetWager, error) {
	query := `
		SELECT bet_id, account_id, option_num, amount, placed_at
		FROM bet_wagers
		WHERE bet_id = $1
		ORDER BY account_id
	`
	rows, err := r.q.Query(ctx, query, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wagers for bet %d: %w", betID, err)
	}
	defer rows.Close()

	var wagers []*entities.BetWager
	for rows.Next() {
		var w entities.BetWager
		if err := rows.Scan(&w.BetID, &w.AccountID, &w.OptionNum, &w.Amount, &w.PlacedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wagers: %w", err)
	}
	return wagers, nil
}
