package services

import (
	"context"
	"fmt"

	"econsim/domain"
	"econsim/domain/entities"
	"econsim/domain/interfaces"
	"econsim/domain/utils"
)

// ledger applies balance changes and records their history
type ledger struct {
	accountRepo        interfaces.AccountRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
}

// account loads an activated account
func (l ledger) account(ctx context.Context, accountID int64) (*entities.Account, error) {
	account, err := l.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: account %d", domain.ErrNotActivated, accountID)
	}
	return account, nil
}

// activeAccount loads an activated account that is not jailed
func (l ledger) activeAccount(ctx context.Context, accountID int64) (*entities.Account, error) {
	account, err := l.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Jailed {
		return nil, fmt.Errorf("%w: account %d", domain.ErrJailed, accountID)
	}
	return account, nil
}

// adjust moves account.Balance by delta, persists it and records history.
// The account is updated in place.
func (l ledger) adjust(ctx context.Context, account *entities.Account, delta int64, txType entities.TransactionType, metadata map[string]any) error {
	before := account.Balance
	after := before + delta
	if after < 0 {
		return fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientBalance, before, -delta)
	}

	if err := l.accountRepo.UpdateBalance(ctx, account.ID, after); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	history := entities.NewBalanceChange(account.ID, before, after, txType, metadata)
	if err := utils.RecordBalanceChange(ctx, l.balanceHistoryRepo, l.eventPublisher, history); err != nil {
		return fmt.Errorf("failed to record balance change: %w", err)
	}

	account.Balance = after
	return nil
}
