package services

import (
	"context"
	"fmt"
	"time"

	"econsim/config"
	"econsim/domain"
	"econsim/domain/entities"
	"econsim/domain/interfaces"
	"econsim/domain/utils"
)

const defaultLeaderboardSize = 10

type accountService struct {
	ledger
	startingBalance int64
	dailyCredits    int64
	dailyInterval   time.Duration
}

// NewAccountService creates a new account service
func NewAccountService(accountRepo interfaces.AccountRepository, balanceHistoryRepo interfaces.BalanceHistoryRepository, eventPublisher interfaces.EventPublisher) interfaces.AccountService {
	cfg := config.Get()
	return &accountService{
		ledger: ledger{
			accountRepo:        accountRepo,
			balanceHistoryRepo: balanceHistoryRepo,
			eventPublisher:     eventPublisher,
		},
		startingBalance: cfg.StartingBalance,
		dailyCredits:    cfg.DailyCredits,
		dailyInterval:   cfg.DailyInterval.Duration,
	}
}

// Activate creates an account with the starting balance
func (s *accountService) Activate(ctx context.Context, accountID int64, displayName string) (*entities.Account, error) {
	existing, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: account %d", domain.ErrAlreadyActivated, accountID)
	}

	account, err := s.accountRepo.Create(ctx, accountID, displayName, s.startingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	history := entities.NewBalanceChange(accountID, 0, s.startingBalance, entities.TransactionTypeInitial, map[string]any{
		"display_name": displayName,
	})
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, fmt.Errorf("failed to record initial balance: %w", err)
	}

	return account, nil
}

// GetAccount returns an activated account
func (s *accountService) GetAccount(ctx context.Context, accountID int64) (*entities.Account, error) {
	return s.account(ctx, accountID)
}

// ClaimDaily credits the daily allowance once per interval
func (s *accountService) ClaimDaily(ctx context.Context, accountID int64, now time.Time) (*interfaces.DailyClaimResult, error) {
	account, err := s.activeAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !account.DailyReady(now, s.dailyInterval) {
		next := account.NextDailyAt(s.dailyInterval)
		return nil, fmt.Errorf("%w: available in %s", domain.ErrDailyNotReady, next.Sub(now).Round(time.Second))
	}

	if err := s.creditDaily(ctx, account, now); err != nil {
		return nil, err
	}

	return &interfaces.DailyClaimResult{
		Credited:   s.dailyCredits,
		NewBalance: account.Balance,
		NextAt:     now.Add(s.dailyInterval),
	}, nil
}

// ApplyDailyIfDue credits the allowance when due. Unknown and jailed
// accounts get nothing.
func (s *accountService) ApplyDailyIfDue(ctx context.Context, accountID int64, now time.Time) (int64, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil || account.Jailed || !account.DailyReady(now, s.dailyInterval) {
		return 0, nil
	}

	if err := s.creditDaily(ctx, account, now); err != nil {
		return 0, err
	}
	return s.dailyCredits, nil
}

func (s *accountService) creditDaily(ctx context.Context, account *entities.Account, now time.Time) error {
	if err := s.adjust(ctx, account, s.dailyCredits, entities.TransactionTypeDaily, nil); err != nil {
		return err
	}
	if err := s.accountRepo.UpdateLastDaily(ctx, account.ID, now); err != nil {
		return fmt.Errorf("failed to update last daily: %w", err)
	}
	account.LastDailyAt = &now
	return nil
}

// Gift moves currency from one account to another
func (s *accountService) Gift(ctx context.Context, fromID, toID int64, amount int64) (*interfaces.TransferResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: gift amount must be positive", domain.ErrInvalidAmount)
	}
	if fromID == toID {
		return nil, fmt.Errorf("%w: cannot gift to yourself", domain.ErrSelfTarget)
	}

	sender, err := s.activeAccount(ctx, fromID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.account(ctx, toID)
	if err != nil {
		return nil, err
	}
	if !sender.CanAfford(amount) {
		return nil, fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientBalance, sender.Balance, amount)
	}

	if err := s.adjust(ctx, sender, -amount, entities.TransactionTypeGiftOut, map[string]any{
		"recipient_id": toID,
		"amount":       amount,
	}); err != nil {
		return nil, fmt.Errorf("failed to debit sender: %w", err)
	}
	if err := s.adjust(ctx, recipient, amount, entities.TransactionTypeGiftIn, map[string]any{
		"sender_id": fromID,
		"amount":    amount,
	}); err != nil {
		return nil, fmt.Errorf("failed to credit recipient: %w", err)
	}

	return &interfaces.TransferResult{
		Amount:      amount,
		FromBalance: sender.Balance,
		ToBalance:   recipient.Balance,
	}, nil
}

// Give mints currency into an account
func (s *accountService) Give(ctx context.Context, accountID int64, amount int64) (*entities.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	account, err := s.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.adjust(ctx, account, amount, entities.TransactionTypeOperatorGive, nil); err != nil {
		return nil, err
	}
	return account, nil
}

// Take removes up to amount from an account and returns what was taken
func (s *accountService) Take(ctx context.Context, accountID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	account, err := s.account(ctx, accountID)
	if err != nil {
		return 0, err
	}

	taken := min(amount, account.Balance)
	if taken <= 0 {
		return 0, fmt.Errorf("%w: account %d has nothing to take", domain.ErrInsufficientBalance, accountID)
	}
	if err := s.adjust(ctx, account, -taken, entities.TransactionTypeOperatorTake, map[string]any{
		"requested": amount,
	}); err != nil {
		return 0, err
	}
	return taken, nil
}

// Leaderboard returns the richest accounts
func (s *accountService) Leaderboard(ctx context.Context, limit int) ([]*entities.Account, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	accounts, err := s.accountRepo.GetTop(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return accounts, nil
}
