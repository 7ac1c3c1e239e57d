package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"econsim/config"
	"econsim/domain/entities"
	"econsim/domain/interfaces"
	"econsim/domain/utils"
	"econsim/events"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const lastTaxDateKey = "last_tax_date"

type taxBracket struct {
	below int64
	rate  decimal.Decimal
}

// Brackets are checked in order; balances at or above the last bound pay topTaxRate
var (
	taxBrackets = []taxBracket{
		{100_000, decimal.RequireFromString("0.03")},
		{1_000_000, decimal.RequireFromString("0.05")},
		{10_000_000, decimal.RequireFromString("0.08")},
		{50_000_000, decimal.RequireFromString("0.10")},
		{150_000_000, decimal.RequireFromString("0.15")},
		{500_000_000, decimal.RequireFromString("0.18")},
		{5_000_000_000, decimal.RequireFromString("0.20")},
		{20_000_000_000, decimal.RequireFromString("0.23")},
	}
	topTaxRate = decimal.RequireFromString("0.25")
)

// TaxRateForBalance returns the wealth tax rate for a balance
func TaxRateForBalance(balance int64) decimal.Decimal {
	for _, b := range taxBrackets {
		if balance < b.below {
			return b.rate
		}
	}
	return topTaxRate
}

// TaxFor returns floor(balance * rate) clamped to [0, balance]
func TaxFor(balance int64) int64 {
	if balance <= 0 {
		return 0
	}
	return max(0, min(utils.ApplyRate(balance, TaxRateForBalance(balance)), balance))
}

// TaxDateKey formats the calendar date of now in loc as YYYY-MM-DD
func TaxDateKey(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(time.DateOnly)
}

type taxService struct {
	ledger
	systemStateRepo interfaces.SystemStateRepository
	taxRunRepo      interfaces.TaxRunRepository
	location        *time.Location
	weekdays        []time.Weekday
}

// NewTaxService creates a new tax service
func NewTaxService(
	accountRepo interfaces.AccountRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	systemStateRepo interfaces.SystemStateRepository,
	taxRunRepo interfaces.TaxRunRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.TaxService {
	cfg := config.Get()
	return &taxService{
		ledger: ledger{
			accountRepo:        accountRepo,
			balanceHistoryRepo: balanceHistoryRepo,
			eventPublisher:     eventPublisher,
		},
		systemStateRepo: systemStateRepo,
		taxRunRepo:      taxRunRepo,
		location:        cfg.Location(),
		weekdays:        cfg.Weekdays(),
	}
}

// TaxRateForBalance returns the bracket rate for a balance
func (s *taxService) TaxRateForBalance(balance int64) decimal.Decimal {
	return TaxRateForBalance(balance)
}

func (s *taxService) eligibleDay(now time.Time) bool {
	return slices.Contains(s.weekdays, now.In(s.location).Weekday())
}

func (s *taxService) lastTaxDate(ctx context.Context) (string, error) {
	value, _, err := s.systemStateRepo.Get(ctx, lastTaxDateKey)
	if err != nil {
		return "", fmt.Errorf("failed to get last tax date: %w", err)
	}
	return value, nil
}

// RunIfDue taxes every account when today is an allowed weekday that has not been taxed yet
func (s *taxService) RunIfDue(ctx context.Context, now time.Time) (*interfaces.TaxRunResult, bool, error) {
	if !s.eligibleDay(now) {
		return nil, false, nil
	}

	dateKey := TaxDateKey(now, s.location)
	last, err := s.lastTaxDate(ctx)
	if err != nil {
		return nil, false, err
	}
	if last == dateKey {
		return nil, false, nil
	}

	accounts, err := s.accountRepo.GetAll(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get accounts: %w", err)
	}

	result := &interfaces.TaxRunResult{DateKey: dateKey}
	for _, account := range accounts {
		rate := TaxRateForBalance(account.Balance)
		tax := TaxFor(account.Balance)
		if tax <= 0 {
			continue
		}
		if err := s.adjust(ctx, account, -tax, entities.TransactionTypeTax, map[string]any{
			"date_key": dateKey,
			"rate":     rate.String(),
		}); err != nil {
			return nil, false, fmt.Errorf("failed to tax account %d: %w", account.ID, err)
		}
		result.AccountsTaxed++
		result.TotalTax += tax
	}

	if err := s.systemStateRepo.Set(ctx, lastTaxDateKey, dateKey); err != nil {
		return nil, false, fmt.Errorf("failed to set last tax date: %w", err)
	}
	if err := s.taxRunRepo.Create(ctx, &entities.TaxRun{
		DateKey:       dateKey,
		AccountsTaxed: result.AccountsTaxed,
		TotalTax:      result.TotalTax,
		RanAt:         now,
	}); err != nil {
		return nil, false, fmt.Errorf("failed to record tax run: %w", err)
	}

	if result.TotalTax > 0 {
		result.PoolAfter, err = s.systemStateRepo.AddToLotteryPool(ctx, result.TotalTax)
	} else {
		result.PoolAfter, err = s.systemStateRepo.GetLotteryPool(ctx)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to update lottery pool: %w", err)
	}

	if err := s.eventPublisher.Publish(events.TaxCollectedEvent{
		DateKey:       dateKey,
		AccountsTaxed: result.AccountsTaxed,
		TotalTax:      result.TotalTax,
	}); err != nil {
		log.WithError(err).Error("Failed to publish tax collected event")
	}

	return result, true, nil
}

// Status reports whether a run is due today
func (s *taxService) Status(ctx context.Context, now time.Time) (*interfaces.TaxStatus, error) {
	last, err := s.lastTaxDate(ctx)
	if err != nil {
		return nil, err
	}
	dateKey := TaxDateKey(now, s.location)
	alreadyRan := last == dateKey

	return &interfaces.TaxStatus{
		Timezone:    s.location.String(),
		DateKey:     dateKey,
		Eligible:    s.eligibleDay(now) && !alreadyRan,
		AlreadyRan:  alreadyRan,
		LastTaxDate: last,
	}, nil
}
