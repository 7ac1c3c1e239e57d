package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"econsim/config"
	"econsim/domain"
	"econsim/domain/entities"
	"econsim/domain/interfaces"
	"econsim/domain/utils"
	"econsim/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const defaultDrawHistory = 10

// NumberRange is an inclusive range of lottery numbers
type NumberRange struct {
	Min, Max int
}

// Contains reports whether n lies in the range
func (r NumberRange) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

func (r NumberRange) pick(rng interfaces.RandomSource) int {
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// QuickPick draws five main numbers and a powerball
func QuickPick(rng interfaces.RandomSource, main, powerball NumberRange) ([entities.MainNumberCount]int, int) {
	var nums [entities.MainNumberCount]int
	for i := range nums {
		nums[i] = main.pick(rng)
	}
	return nums, powerball.pick(rng)
}

// ValidateTicketNumbers checks every number against its range
func ValidateTicketNumbers(nums [entities.MainNumberCount]int, pb int, main, powerball NumberRange) error {
	for _, n := range nums {
		if !main.Contains(n) {
			return fmt.Errorf("%w: main numbers must be %d-%d, got %d", domain.ErrInvalidNumberRange, main.Min, main.Max, n)
		}
	}
	if !powerball.Contains(pb) {
		return fmt.Errorf("%w: powerball must be %d-%d, got %d", domain.ErrInvalidNumberRange, powerball.Min, powerball.Max, pb)
	}
	return nil
}

type tierEntry struct {
	accountID int64
	prize     int64
}

// SettleDraw computes the payouts of a draw against pool. Fixed tiers are
// paid from the top down; the first tier that does not fit is scaled to the
// remaining pool and ends settlement. Jackpot winners split what is left,
// each share taxed with part of the tax seeding the next pool.
func SettleDraw(
	tickets []*entities.LotteryTicket,
	winning [entities.MainNumberCount]int,
	powerball int,
	pool int64,
	jackpotTaxRate, jackpotRebateRate decimal.Decimal,
) *entities.LotteryDraw {
	draw := &entities.LotteryDraw{
		Numbers:     winning,
		Powerball:   powerball,
		PoolBefore:  pool,
		TicketCount: len(tickets),
	}

	buckets := make(map[entities.LotteryTier][]tierEntry)
	jackpotSet := make(map[int64]bool)
	for _, t := range tickets {
		matched, pbMatch := t.Matches(winning, powerball)
		tier := entities.TierFor(matched, pbMatch)
		switch tier {
		case entities.LotteryTierNone:
		case entities.LotteryTierJackpot:
			jackpotSet[t.AccountID] = true
		default:
			buckets[tier] = append(buckets[tier], tierEntry{t.AccountID, entities.LotteryTierFixedPrizes[tier]})
		}
	}

	type payoutKey struct {
		account int64
		tier    entities.LotteryTier
	}
	fixed := make(map[payoutKey]int64)

	remaining := pool
	for _, tier := range entities.LotteryFixedTierOrder {
		if remaining <= 0 {
			break
		}
		bucket := buckets[tier]
		if len(bucket) == 0 {
			continue
		}

		obligation := int64(0)
		for _, e := range bucket {
			obligation += e.prize
		}
		if obligation <= remaining {
			for _, e := range bucket {
				fixed[payoutKey{e.accountID, tier}] += e.prize
			}
			remaining -= obligation
			continue
		}

		shares := make([]utils.Share, len(bucket))
		for i, e := range bucket {
			shares[i] = utils.Share{Key: e.accountID, Weight: e.prize}
		}
		for i, amount := range utils.ScaleToFit(remaining, shares) {
			if amount > 0 {
				fixed[payoutKey{bucket[i].accountID, tier}] += amount
			}
		}
		remaining = 0
		break
	}

	for k, amount := range fixed {
		draw.Payouts = append(draw.Payouts, &entities.LotteryPayout{
			AccountID: k.account,
			Tier:      k.tier,
			Gross:     amount,
			Net:       amount,
		})
		draw.TierPaid += amount
	}

	if len(jackpotSet) > 0 && remaining > 0 {
		winners := make([]int64, 0, len(jackpotSet))
		for id := range jackpotSet {
			winners = append(winners, id)
		}
		sort.Slice(winners, func(i, j int) bool { return winners[i] < winners[j] })

		draw.JackpotGross = remaining
		share := remaining / int64(len(winners))
		extra := remaining - share*int64(len(winners))
		for i, id := range winners {
			gross := share
			if int64(i) < extra {
				gross++
			}
			if gross <= 0 {
				continue
			}
			tax := min(max(0, utils.ApplyRate(gross, jackpotTaxRate)), gross)
			rebate := min(max(0, utils.ApplyRate(tax, jackpotRebateRate)), tax)

			draw.Payouts = append(draw.Payouts, &entities.LotteryPayout{
				AccountID: id,
				Tier:      entities.LotteryTierJackpot,
				Gross:     gross,
				Tax:       tax,
				Net:       gross - tax,
			})
			draw.JackpotTax += tax
			draw.JackpotRebate += rebate
		}
		remaining = draw.JackpotRebate
	}

	sort.Slice(draw.Payouts, func(i, j int) bool {
		a, b := draw.Payouts[i], draw.Payouts[j]
		if a.Tier != b.Tier {
			return a.Tier > b.Tier
		}
		return a.AccountID < b.AccountID
	})

	accounts := make(map[int64]bool)
	for _, p := range draw.Payouts {
		accounts[p.AccountID] = true
	}
	draw.WinnerCount = len(accounts)
	draw.PoolAfter = remaining
	return draw
}

type lotteryService struct {
	ledger
	lotteryRepo     interfaces.LotteryRepository
	systemStateRepo interfaces.SystemStateRepository
	random          interfaces.RandomSource
	ticketCost      int64
	mainRange       NumberRange
	pbRange         NumberRange
	jackpotTax      decimal.Decimal
	jackpotRebate   decimal.Decimal
}

// NewLotteryService creates a new lottery service
func NewLotteryService(
	accountRepo interfaces.AccountRepository,
	lotteryRepo interfaces.LotteryRepository,
	systemStateRepo interfaces.SystemStateRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	random interfaces.RandomSource,
	eventPublisher interfaces.EventPublisher,
) interfaces.LotteryService {
	cfg := config.Get()
	return &lotteryService{
		ledger: ledger{
			accountRepo:        accountRepo,
			balanceHistoryRepo: balanceHistoryRepo,
			eventPublisher:     eventPublisher,
		},
		lotteryRepo:     lotteryRepo,
		systemStateRepo: systemStateRepo,
		random:          random,
		ticketCost:      cfg.LotteryTicketCost,
		mainRange:       NumberRange{cfg.LotteryMainMin, cfg.LotteryMainMax},
		pbRange:         NumberRange{cfg.LotteryPBMin, cfg.LotteryPBMax},
		jackpotTax:      utils.RateFromFloat(cfg.JackpotTaxRate),
		jackpotRebate:   utils.RateFromFloat(cfg.JackpotRebateRate),
	}
}

// BuyTicket sells a quick-pick ticket and adds its cost to the pool
func (s *lotteryService) BuyTicket(ctx context.Context, accountID int64, now time.Time) (*entities.LotteryTicket, error) {
	account, err := s.activeAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.CanAfford(s.ticketCost) {
		return nil, fmt.Errorf("%w: ticket costs %d, have %d", domain.ErrInsufficientBalance, s.ticketCost, account.Balance)
	}

	nums, pb := QuickPick(s.random, s.mainRange, s.pbRange)
	if err := ValidateTicketNumbers(nums, pb, s.mainRange, s.pbRange); err != nil {
		return nil, err
	}

	if err := s.adjust(ctx, account, -s.ticketCost, entities.TransactionTypeLottoTicket, nil); err != nil {
		return nil, err
	}

	ticket := &entities.LotteryTicket{
		AccountID: accountID,
		Numbers:   nums,
		Powerball: pb,
		BoughtAt:  now,
	}
	if err := s.lotteryRepo.CreateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	if _, err := s.systemStateRepo.AddToLotteryPool(ctx, s.ticketCost); err != nil {
		return nil, fmt.Errorf("failed to add ticket to pool: %w", err)
	}
	return ticket, nil
}

// Draw picks the winning numbers, pays every tier and clears the tickets
func (s *lotteryService) Draw(ctx context.Context, now time.Time) (*entities.LotteryDraw, error) {
	tickets, err := s.lotteryRepo.GetAllTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}
	if len(tickets) == 0 {
		return nil, domain.ErrNoTickets
	}

	pool, err := s.systemStateRepo.GetLotteryPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get lottery pool: %w", err)
	}

	winning, pb := QuickPick(s.random, s.mainRange, s.pbRange)
	draw := SettleDraw(tickets, winning, pb, pool, s.jackpotTax, s.jackpotRebate)
	draw.ID = uuid.New()
	draw.DrawnAt = now

	paid := int64(0)
	for _, p := range draw.Payouts {
		if p.Net <= 0 {
			continue
		}
		account, err := s.account(ctx, p.AccountID)
		if err != nil {
			return nil, err
		}
		if err := s.adjust(ctx, account, p.Net, entities.TransactionTypeLottoWin, map[string]any{
			"draw_id": draw.ID.String(),
			"tier":    p.Tier.String(),
			"gross":   p.Gross,
			"tax":     p.Tax,
		}); err != nil {
			return nil, fmt.Errorf("failed to pay account %d: %w", p.AccountID, err)
		}
		paid += p.Net
	}

	if err := s.systemStateRepo.SetLotteryPool(ctx, draw.PoolAfter); err != nil {
		return nil, fmt.Errorf("failed to set lottery pool: %w", err)
	}
	if _, err := s.lotteryRepo.DeleteAllTickets(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear tickets: %w", err)
	}
	if err := s.lotteryRepo.RecordDraw(ctx, draw); err != nil {
		return nil, fmt.Errorf("failed to record draw: %w", err)
	}

	log.WithFields(log.Fields{
		"draw_id":     draw.ID,
		"tickets":     draw.TicketCount,
		"winners":     draw.WinnerCount,
		"pool_before": draw.PoolBefore,
		"pool_after":  draw.PoolAfter,
	}).Info("Lottery drawn")

	if err := s.eventPublisher.Publish(events.LotteryDrawnEvent{
		DrawID:       draw.ID.String(),
		PoolBefore:   draw.PoolBefore,
		PoolAfter:    draw.PoolAfter,
		TotalPaid:    paid,
		JackpotTaxed: draw.JackpotTax,
		WinnerCount:  draw.WinnerCount,
	}); err != nil {
		log.WithError(err).Error("Failed to publish lottery drawn event")
	}

	return draw, nil
}

// GetPool returns the current lottery pool
func (s *lotteryService) GetPool(ctx context.Context) (int64, error) {
	pool, err := s.systemStateRepo.GetLotteryPool(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get lottery pool: %w", err)
	}
	return pool, nil
}

// GetTickets returns an account's tickets for the next draw
func (s *lotteryService) GetTickets(ctx context.Context, accountID int64) ([]*entities.LotteryTicket, error) {
	tickets, err := s.lotteryRepo.GetTicketsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}
	return tickets, nil
}

// TicketCount returns how many tickets are in the next draw
func (s *lotteryService) TicketCount(ctx context.Context) (int, error) {
	n, err := s.lotteryRepo.CountTickets(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return n, nil
}

// RecentDraws returns the latest draws, newest first
func (s *lotteryService) RecentDraws(ctx context.Context, limit int) ([]*entities.LotteryDraw, error) {
	if limit <= 0 {
		limit = defaultDrawHistory
	}
	draws, err := s.lotteryRepo.GetRecentDraws(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get draws: %w", err)
	}
	return draws, nil
}
