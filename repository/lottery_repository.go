package repository

import (
	"context"
	"fmt"

	"econsim/database"
	"econsim/domain/entities"
)

// LotteryRepository implements the LotteryRepository interface
type LotteryRepository struct {
	q queryable
}

// NewLotteryRepository creates a new lottery repository
func NewLotteryRepository(db *database.DB) *LotteryRepository {
	return &LotteryRepository{q: db.Pool}
}

// newLotteryRepositoryWithTx creates a new lottery repository with a transaction
func newLotteryRepositoryWithTx(tx queryable) *LotteryRepository {
	return &LotteryRepository{q: tx}
}

// CreateTicket inserts a ticket and assigns its id
func (r *LotteryRepository) CreateTicket(ctx context.Context, ticket *entities.LotteryTicket) error {
	query := `
		INSERT INTO lottery_tickets (account_id, n1, n2, n3, n4, n5, pb, bought_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	n := ticket.Numbers
	err := r.q.QueryRow(ctx, query,
		ticket.AccountID, n[0], n[1], n[2], n[3], n[4], ticket.Powerball, ticket.BoughtAt,
	).Scan(&ticket.ID)
	if err != nil {
		return fmt.Errorf("failed to create ticket for account %d: %w", ticket.AccountID, err)
	}
	return nil
}

func (r *LotteryRepository) queryTickets(ctx context.Context, where string, args ...any) ([]*entities.LotteryTicket, error) {
	query := `
		SELECT id, account_id, n1, n2, n3, n4, n5, pb, bought_at
		FROM lottery_tickets ` + where + `
		ORDER BY id
	`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*entities.LotteryTicket
	for rows.Next() {
		var t entities.LotteryTicket
		err := rows.Scan(
			&t.ID, &t.AccountID,
			&t.Numbers[0], &t.Numbers[1], &t.Numbers[2], &t.Numbers[3], &t.Numbers[4],
			&t.Powerball, &t.BoughtAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}
	return tickets, nil
}

// GetAllTickets returns every ticket in the next draw
func (r *LotteryRepository) GetAllTickets(ctx context.Context) ([]*entities.LotteryTicket, error) {
	tickets, err := r.queryTickets(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}
	return tickets, nil
}

// GetTicketsByAccount returns an account's tickets in the next draw
func (r *LotteryRepository) GetTicketsByAccount(ctx context.Context, accountID int64) ([]*entities.LotteryTicket, error) {
	tickets, err := r.queryTickets(ctx, "WHERE account_id = $1", accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets for account %d: %w", accountID, err)
	}
	return tickets, nil
}

// CountTickets returns how many tickets are in the next draw
func (r *LotteryRepository) CountTickets(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM lottery_tickets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return n, nil
}

// DeleteAllTickets clears the ticket table after a draw
func (r *LotteryRepository) DeleteAllTickets(ctx context.Context) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM lottery_tickets`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tickets: %w", err)
	}
	return result.RowsAffected(), nil
}

// RecordDraw stores the audit row for a completed draw
func (r *LotteryRepository) RecordDraw(ctx context.Context, draw *entities.LotteryDraw) error {
	query := `
		INSERT INTO lottery_draws (
			id, n1, n2, n3, n4, n5, pb, pool_before, tier_paid, jackpot_gross,
			jackpot_tax, jackpot_rebate, pool_after, ticket_count, winner_count, drawn_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	n := draw.Numbers
	_, err := r.q.Exec(ctx, query,
		draw.ID,
		n[0], n[1], n[2], n[3], n[4],
		draw.Powerball,
		draw.PoolBefore,
		draw.TierPaid,
		draw.JackpotGross,
		draw.JackpotTax,
		draw.JackpotRebate,
		draw.PoolAfter,
		draw.TicketCount,
		draw.WinnerCount,
		draw.DrawnAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record draw %s: %w", draw.ID, err)
	}
	return nil
}

// GetRecentDraws returns the latest draws, newest first. Payouts are not loaded.
func (r *LotteryRepository) GetRecentDraws(ctx context.Context, limit int) ([]*entities.LotteryDraw, error) {
	query := `
		SELECT id, n1, n2, n3, n4, n5, pb, pool_before, tier_paid, jackpot_gross,
		       jackpot_tax, jackpot_rebate, pool_after, ticket_count, winner_count, drawn_at
		FROM lottery_draws
		ORDER BY drawn_at DESC
		LIMIT $1
	`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get draws: %w", err)
	}
	defer rows.Close()

	var draws []*entities.LotteryDraw
	for rows.Next() {
		var d entities.LotteryDraw
		err := rows.Scan(
			&d.ID,
			&d.Numbers[0], &d.Numbers[1], &d.Numbers[2], &d.Numbers[3], &d.Numbers[4],
			&d.Powerball,
			&d.PoolBefore,
			&d.TierPaid,
			&d.JackpotGross,
			&d.JackpotTax,
			&d.JackpotRebate,
			&d.PoolAfter,
			&d.TicketCount,
			&d.WinnerCount,
			&d.DrawnAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draws: %w", err)
	}
	return draws, nil
}
