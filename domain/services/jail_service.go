package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"econsim/config"
	"econsim/domain"
	"econsim/domain/entities"
	"econsim/domain/interfaces"
	"econsim/domain/utils"
	"econsim/events"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Steal tuning
const (
	MinStealBalance = 500

	stealBaseChance  = 0.25
	stealFloorChance = 0.06
	stealScale       = 400_000.0
	stealExponent    = 0.55
	stealJailChance  = 0.95
)

var (
	stealTakeRate    = decimal.RequireFromString("0.05")
	stealPenaltyRate = decimal.RequireFromString("0.75")
)

// StealSuccessProbability is the chance of robbing an account with targetBalance.
// Richer targets are harder to rob.
func StealSuccessProbability(targetBalance int64) float64 {
	b := float64(max(0, targetBalance))
	p := stealBaseChance * math.Pow(stealScale/(stealScale+b), stealExponent)
	return max(stealFloorChance, min(stealBaseChance, p))
}

// percentWithMinimum returns floor(balance*rate), at least 1 when balance is
// positive, never more than balance
func percentWithMinimum(balance int64, rate decimal.Decimal) int64 {
	if balance <= 0 {
		return 0
	}
	return min(max(1, utils.ApplyRate(balance, rate)), balance)
}

// ParoleDeductions applies steps sequential deductions of rate to balance.
// Each step takes at least 1 while the balance is positive.
func ParoleDeductions(balance int64, steps int64, rate decimal.Decimal) int64 {
	total := int64(0)
	for i := int64(0); i < steps && balance > 0; i++ {
		take := percentWithMinimum(balance, rate)
		balance -= take
		total += take
	}
	return total
}

type jailService struct {
	ledger
	systemStateRepo interfaces.SystemStateRepository
	random          interfaces.RandomSource
	paroleDuration  time.Duration
	payInterval     time.Duration
	paroleRate      decimal.Decimal
	releaseRate     decimal.Decimal
}

// NewJailService creates a new jail service
func NewJailService(
	accountRepo interfaces.AccountRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	systemStateRepo interfaces.SystemStateRepository,
	random interfaces.RandomSource,
	eventPublisher interfaces.EventPublisher,
) interfaces.JailService {
	cfg := config.Get()
	return &jailService{
		ledger: ledger{
			accountRepo:        accountRepo,
			balanceHistoryRepo: balanceHistoryRepo,
			eventPublisher:     eventPublisher,
		},
		systemStateRepo: systemStateRepo,
		random:          random,
		paroleDuration:  cfg.ParoleDuration.Duration,
		payInterval:     cfg.ParolePayInterval.Duration,
		paroleRate:      utils.RateFromFloat(cfg.ParoleRate),
		releaseRate:     utils.RateFromFloat(cfg.JailReleaseRate),
	}
}

// CheckNotJailed returns ErrJailed for jailed accounts
func (s *jailService) CheckNotJailed(ctx context.Context, accountID int64) error {
	_, err := s.activeAccount(ctx, accountID)
	return err
}

// Release burns a share of the balance and moves the account from jail to parole
func (s *jailService) Release(ctx context.Context, accountID int64, now time.Time) (*interfaces.ReleaseResult, error) {
	account, err := s.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Jailed {
		return nil, fmt.Errorf("%w: account %d", domain.ErrNotJailed, accountID)
	}

	cost := min(max(0, utils.ApplyRate(account.Balance, s.releaseRate)), account.Balance)
	if cost > 0 {
		if err := s.adjust(ctx, account, -cost, entities.TransactionTypeJailRelease, nil); err != nil {
			return nil, err
		}
	}

	account.StartParole(now)
	if err := s.accountRepo.UpdateStatus(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account status: %w", err)
	}

	return &interfaces.ReleaseResult{
		Cost:       cost,
		NewBalance: account.Balance,
		ParoleEnds: now.Add(s.paroleDuration),
	}, nil
}

// ParoleTick charges every paroled account for each whole pay interval elapsed
// and expires paroles that ran their full length
func (s *jailService) ParoleTick(ctx context.Context, now time.Time) (*interfaces.ParoleTickResult, error) {
	accounts, err := s.accountRepo.GetParoled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get paroled accounts: %w", err)
	}

	result := &interfaces.ParoleTickResult{AccountPaid: make(map[int64]int64)}
	for _, account := range accounts {
		if account.ParoleExpired(now, s.paroleDuration) {
			account.EndParole()
			if err := s.accountRepo.UpdateStatus(ctx, account); err != nil {
				return nil, fmt.Errorf("failed to end parole for %d: %w", account.ID, err)
			}
			result.Expired++
			s.publishParole(account.ID, 0, 0, true)
			continue
		}

		last := *account.ParoleStartedAt
		if account.ParoleLastPayAt != nil {
			last = *account.ParoleLastPayAt
		}
		steps := int64(now.Sub(last) / s.payInterval)
		if steps <= 0 {
			continue
		}

		paid := ParoleDeductions(account.Balance, steps, s.paroleRate)
		if paid > 0 {
			if err := s.adjust(ctx, account, -paid, entities.TransactionTypeParolePayment, map[string]any{
				"steps": steps,
			}); err != nil {
				return nil, fmt.Errorf("failed to charge parole for %d: %w", account.ID, err)
			}
			result.TotalPaid += paid
			result.AccountPaid[account.ID] = paid
		}

		next := last.Add(time.Duration(steps) * s.payInterval)
		account.ParoleLastPayAt = &next
		if err := s.accountRepo.UpdateStatus(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to advance parole for %d: %w", account.ID, err)
		}
		result.Processed++
		s.publishParole(account.ID, steps, paid, false)
	}

	if result.TotalPaid > 0 {
		result.PoolAfter, err = s.systemStateRepo.AddToLotteryPool(ctx, result.TotalPaid)
	} else {
		result.PoolAfter, err = s.systemStateRepo.GetLotteryPool(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update lottery pool: %w", err)
	}

	return result, nil
}

func (s *jailService) publishParole(accountID, steps, total int64, expired bool) {
	if err := s.eventPublisher.Publish(events.ParoleCollectedEvent{
		AccountID: accountID,
		Steps:     steps,
		Total:     total,
		Expired:   expired,
	}); err != nil {
		log.WithError(err).Error("Failed to publish parole event")
	}
}

// Steal attempts to take a share of the target's balance. A failed attempt
// usually jails the thief and otherwise costs them most of their balance.
func (s *jailService) Steal(ctx context.Context, thiefID, targetID int64, now time.Time) (*interfaces.StealResult, error) {
	if thiefID == targetID {
		return nil, fmt.Errorf("%w: cannot steal from yourself", domain.ErrSelfTarget)
	}
	thief, err := s.activeAccount(ctx, thiefID)
	if err != nil {
		return nil, err
	}
	target, err := s.account(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if thief.Balance < MinStealBalance {
		return nil, fmt.Errorf("%w: stealing needs at least %d, have %d", domain.ErrInsufficientBalance, MinStealBalance, thief.Balance)
	}

	result := &interfaces.StealResult{Probability: StealSuccessProbability(target.Balance)}

	switch {
	case s.random.Float64() < result.Probability:
		result.Outcome = interfaces.StealSucceeded
		result.Amount = percentWithMinimum(target.Balance, stealTakeRate)
		if result.Amount > 0 {
			if err := s.adjust(ctx, target, -result.Amount, entities.TransactionTypeStolen, map[string]any{
				"thief_id": thiefID,
			}); err != nil {
				return nil, err
			}
			if err := s.adjust(ctx, thief, result.Amount, entities.TransactionTypeStealIn, map[string]any{
				"target_id": targetID,
			}); err != nil {
				return nil, err
			}
		}

	case s.random.Float64() < stealJailChance:
		result.Outcome = interfaces.StealJailed
		thief.Jail(now)
		if err := s.accountRepo.UpdateStatus(ctx, thief); err != nil {
			return nil, fmt.Errorf("failed to jail account: %w", err)
		}

	default:
		result.Outcome = interfaces.StealPenalized
		result.Amount = percentWithMinimum(thief.Balance, stealPenaltyRate)
		if err := s.adjust(ctx, thief, -result.Amount, entities.TransactionTypeStealPenalty, map[string]any{
			"target_id": targetID,
		}); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"thief":   thiefID,
		"target":  targetID,
		"outcome": result.Outcome,
		"amount":  result.Amount,
	}).Info("Steal attempt")

	result.ThiefBalance = thief.Balance
	result.TargetBalance = target.Balance
	return result, nil
}
