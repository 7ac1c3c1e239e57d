package services

import (
	"context"
	"fmt"

	"econsim/domain"
	"econsim/domain/entities"
	"econsim/domain/interfaces"
)

type rouletteService struct {
	ledger
	random interfaces.RandomSource
}

// NewRouletteService creates a new roulette service
func NewRouletteService(
	accountRepo interfaces.AccountRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	random interfaces.RandomSource,
	eventPublisher interfaces.EventPublisher,
) interfaces.RouletteService {
	return &rouletteService{
		ledger: ledger{
			accountRepo:        accountRepo,
			balanceHistoryRepo: balanceHistoryRepo,
			eventPublisher:     eventPublisher,
		},
		random: random,
	}
}

// Play spins once. A win pays amount times the rule's multiple; a loss
// forfeits amount.
func (s *rouletteService) Play(ctx context.Context, accountID int64, amount int64, choice string) (*interfaces.RouletteResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: bet must be positive", domain.ErrInvalidAmount)
	}
	rule, err := entities.ParseRouletteChoice(choice)
	if err != nil {
		return nil, err
	}

	account, err := s.activeAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.CanAfford(amount) {
		return nil, fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientBalance, account.Balance, amount)
	}

	spin := s.random.Intn(entities.RouletteMaxNumber + 1)
	result := &interfaces.RouletteResult{
		Spin:  spin,
		Color: entities.RouletteColor(spin),
		Rule:  rule.Label(),
		Won:   rule.Wins(spin),
	}

	txType := entities.TransactionTypeRouletteLoss
	result.Delta = -amount
	if result.Won {
		txType = entities.TransactionTypeRouletteWin
		result.Delta = amount * rule.Payout()
	}

	if err := s.adjust(ctx, account, result.Delta, txType, map[string]any{
		"bet":  amount,
		"rule": result.Rule,
		"spin": spin,
	}); err != nil {
		return nil, err
	}

	result.Balance = account.Balance
	return result, nil
}
