package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"econsim/domain"
	"econsim/domain/entities"
	"econsim/domain/interfaces"
	"econsim/domain/utils"
	"econsim/events"

	log "github.com/sirupsen/logrus"
)

// Settlement notes stored on the bet
const (
	DefaultCancelNote = "Canceled and refunded."
	noWagersNote      = "No wagers were placed."
	noWinnersNote     = "No winners. All wagers refunded. Bonus pool not paid out."

	minBetOptions = 2
)

// SettleBet computes the payouts for resolving a bet on winningOption.
// Winners get their stake back plus a largest-remainder share of the losing
// stakes and the bonus pool. With no stake on the winning option every
// account is refunded and the bonus pool is kept.
func SettleBet(wagers []*entities.BetWager, winningOption int, bonusPool int64) *interfaces.BetSettlement {
	s := &interfaces.BetSettlement{}
	if len(wagers) == 0 {
		return s
	}

	var winners []*entities.BetWager
	for _, w := range wagers {
		s.TotalPool += w.Amount
		if w.OptionNum == winningOption {
			s.WinPool += w.Amount
			winners = append(winners, w)
		}
	}
	s.LosingPool = s.TotalPool - s.WinPool

	if s.WinPool == 0 {
		s.Refunded = true
		s.Payouts = RefundAll(wagers)
		return s
	}

	s.ExtraPool = s.LosingPool + bonusPool
	sort.Slice(winners, func(i, j int) bool { return winners[i].AccountID < winners[j].AccountID })

	shares := make([]utils.Share, len(winners))
	for i, w := range winners {
		shares[i] = utils.Share{Key: w.AccountID, Weight: w.Amount}
	}
	split := utils.Apportion(s.ExtraPool, shares)

	s.Payouts = make([]interfaces.BetPayout, len(winners))
	for i, w := range winners {
		s.Payouts[i] = interfaces.BetPayout{
			AccountID: w.AccountID,
			Stake:     w.Amount,
			Share:     split[i],
			Total:     w.Amount + split[i],
		}
	}
	return s
}

// RefundAll returns every account's summed stake, ordered by account id
func RefundAll(wagers []*entities.BetWager) []interfaces.BetPayout {
	stakes := entities.StakesByAccount(wagers)
	payouts := make([]interfaces.BetPayout, 0, len(stakes))
	for id, stake := range stakes {
		payouts = append(payouts, interfaces.BetPayout{AccountID: id, Stake: stake, Total: stake})
	}
	sort.Slice(payouts, func(i, j int) bool { return payouts[i].AccountID < payouts[j].AccountID })
	return payouts
}

type bettingService struct {
	ledger
	betRepo interfaces.BetRepository
}

// NewBettingService creates a new betting service
func NewBettingService(
	accountRepo interfaces.AccountRepository,
	betRepo interfaces.BetRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.BettingService {
	return &bettingService{
		ledger: ledger{
			accountRepo:        accountRepo,
			balanceHistoryRepo: balanceHistoryRepo,
			eventPublisher:     eventPublisher,
		},
		betRepo: betRepo,
	}
}

func (s *bettingService) bet(ctx context.Context, betID int64) (*entities.Bet, error) {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, fmt.Errorf("%w: #%d", domain.ErrUnknownBet, betID)
	}
	return bet, nil
}

// CreateBet opens a bet with options numbered from 1
func (s *bettingService) CreateBet(ctx context.Context, creatorID int64, title string, options []string, now time.Time) (*entities.Bet, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: bet title is required", domain.ErrInvalidParameter)
	}

	opts := make([]*entities.BetOption, 0, len(options))
	for _, label := range options {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		opts = append(opts, &entities.BetOption{OptionNum: len(opts) + 1, Label: label})
	}
	if len(opts) < minBetOptions {
		return nil, fmt.Errorf("%w: a bet needs at least %d options", domain.ErrInvalidParameter, minBetOptions)
	}

	bet := &entities.Bet{
		CreatorID: creatorID,
		Title:     title,
		Status:    entities.BetStatusOpen,
		CreatedAt: now,
	}
	if err := s.betRepo.CreateWithOptions(ctx, bet, opts); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}
	bet.Options = opts

	log.WithFields(log.Fields{
		"bet_id":  bet.ID,
		"creator": creatorID,
		"options": len(opts),
	}).Info("Bet created")
	return bet, nil
}

// PlaceWager debits amount and adds it to the account's stake on optionNum.
// An account may only back one option per bet.
func (s *bettingService) PlaceWager(ctx context.Context, betID, accountID int64, optionNum int, amount int64, now time.Time) (*entities.BetWager, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: wager must be positive", domain.ErrInvalidAmount)
	}

	bet, err := s.bet(ctx, betID)
	if err != nil {
		return nil, err
	}
	if !bet.IsOpen() {
		return nil, fmt.Errorf("%w: bet #%d is %s", domain.ErrBetNotOpen, betID, bet.Status)
	}
	if !bet.HasOption(optionNum) {
		return nil, fmt.Errorf("%w: bet #%d has no option %d", domain.ErrInvalidOption, betID, optionNum)
	}

	account, err := s.activeAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.CanAfford(amount) {
		return nil, fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientBalance, account.Balance, amount)
	}

	wager, err := s.betRepo.GetWager(ctx, betID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wager: %w", err)
	}
	if wager != nil && wager.OptionNum != optionNum {
		return nil, fmt.Errorf("%w: already backing option %d", domain.ErrAlreadyWageredDifferentOption, wager.OptionNum)
	}
	if wager == nil {
		wager = &entities.BetWager{BetID: betID, AccountID: accountID, OptionNum: optionNum}
	}

	if err := s.adjust(ctx, account, -amount, entities.TransactionTypeBetWager, map[string]any{
		"bet_id": betID,
		"option": optionNum,
	}); err != nil {
		return nil, err
	}

	wager.Amount += amount
	wager.PlacedAt = now
	if err := s.betRepo.SaveWager(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to save wager: %w", err)
	}
	return wager, nil
}

// CloseBet stops an open bet from taking wagers
func (s *bettingService) CloseBet(ctx context.Context, betID int64, now time.Time) (*entities.Bet, error) {
	bet, err := s.bet(ctx, betID)
	if err != nil {
		return nil, err
	}
	if !bet.IsOpen() {
		return nil, fmt.Errorf("%w: bet #%d is %s", domain.ErrBetNotOpen, betID, bet.Status)
	}

	bet.Close(now)
	if err := s.betRepo.Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to close bet: %w", err)
	}
	return bet, nil
}

// AddBonusPool adds house money to an open bet's winner pot
func (s *bettingService) AddBonusPool(ctx context.Context, betID int64, amount int64) (*entities.Bet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: bonus must be positive", domain.ErrInvalidAmount)
	}
	bet, err := s.bet(ctx, betID)
	if err != nil {
		return nil, err
	}
	if !bet.IsOpen() {
		return nil, fmt.Errorf("%w: bonus can only be added while open, bet #%d is %s", domain.ErrBetNotOpen, betID, bet.Status)
	}

	bet.BonusPool += amount
	if err := s.betRepo.Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to update bonus pool: %w", err)
	}
	return bet, nil
}

// Cancel refunds every stake and marks the bet canceled
func (s *bettingService) Cancel(ctx context.Context, betID int64, note string, now time.Time) (*interfaces.BetSettlement, error) {
	bet, err := s.bet(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet.IsFinal() {
		return nil, fmt.Errorf("%w: bet #%d is %s", domain.ErrBetFinalized, betID, bet.Status)
	}
	if strings.TrimSpace(note) == "" {
		note = DefaultCancelNote
	}

	wagers, err := s.betRepo.GetWagers(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wagers: %w", err)
	}

	settlement := &interfaces.BetSettlement{
		Refunded: true,
		Payouts:  RefundAll(wagers),
	}
	for _, w := range wagers {
		settlement.TotalPool += w.Amount
	}
	if err := s.credit(ctx, betID, settlement.Payouts, entities.TransactionTypeBetRefund); err != nil {
		return nil, err
	}

	bet.Cancel(note, now)
	if err := s.betRepo.Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to cancel bet: %w", err)
	}
	settlement.Bet = bet

	s.publishSettled(bet, settlement)
	return settlement, nil
}

// Resolve pays out the bet on winningOption
func (s *bettingService) Resolve(ctx context.Context, betID int64, winningOption int, now time.Time) (*interfaces.BetSettlement, error) {
	bet, err := s.bet(ctx, betID)
	if err != nil {
		return nil, err
	}
	if !bet.CanResolve() {
		return nil, fmt.Errorf("%w: bet #%d is %s", domain.ErrBetFinalized, betID, bet.Status)
	}
	if !bet.HasOption(winningOption) {
		return nil, fmt.Errorf("%w: bet #%d has no option %d", domain.ErrInvalidOption, betID, winningOption)
	}

	wagers, err := s.betRepo.GetWagers(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wagers: %w", err)
	}

	settlement := SettleBet(wagers, winningOption, bet.BonusPool)

	var note string
	txType := entities.TransactionTypeBetPayout
	switch {
	case len(wagers) == 0:
		note = noWagersNote
	case settlement.Refunded:
		note = noWinnersNote
		txType = entities.TransactionTypeBetRefund
	default:
		note = fmt.Sprintf("Resolved: %s. Bonus pool used: %d.", bet.Title, bet.BonusPool)
	}

	if err := s.credit(ctx, betID, settlement.Payouts, txType); err != nil {
		return nil, err
	}

	bet.Resolve(winningOption, note, now)
	if err := s.betRepo.Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to resolve bet: %w", err)
	}
	settlement.Bet = bet

	s.publishSettled(bet, settlement)
	return settlement, nil
}

func (s *bettingService) credit(ctx context.Context, betID int64, payouts []interfaces.BetPayout, txType entities.TransactionType) error {
	for _, p := range payouts {
		if p.Total <= 0 {
			continue
		}
		account, err := s.account(ctx, p.AccountID)
		if err != nil {
			return err
		}
		if err := s.adjust(ctx, account, p.Total, txType, map[string]any{
			"bet_id": betID,
			"stake":  p.Stake,
			"share":  p.Share,
		}); err != nil {
			return fmt.Errorf("failed to pay account %d: %w", p.AccountID, err)
		}
	}
	return nil
}

func (s *bettingService) publishSettled(bet *entities.Bet, settlement *interfaces.BetSettlement) {
	total := int64(0)
	for _, p := range settlement.Payouts {
		total += p.Total
	}
	if err := s.eventPublisher.Publish(events.BetSettledEvent{
		BetID:         bet.ID,
		Status:        bet.Status,
		WinningOption: bet.WinningOption,
		TotalPaid:     total,
	}); err != nil {
		log.WithError(err).Error("Failed to publish bet settled event")
	}
}

// GetBetSummary returns per-option pools with odds against the effective pool
func (s *bettingService) GetBetSummary(ctx context.Context, betID int64) (*interfaces.BetSummary, error) {
	bet, err := s.bet(ctx, betID)
	if err != nil {
		return nil, err
	}
	wagers, err := s.betRepo.GetWagers(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wagers: %w", err)
	}

	totals := entities.OptionTotals(wagers)
	summary := &interfaces.BetSummary{
		Bet:        bet,
		WagerCount: len(wagers),
	}
	for _, amount := range totals {
		summary.UserPool += amount
	}
	summary.EffectivePool = summary.UserPool + bet.BonusPool

	for _, opt := range bet.Options {
		pool := totals[opt.OptionNum]
		summary.Options = append(summary.Options, interfaces.BetOptionSummary{
			OptionNum: opt.OptionNum,
			Label:     opt.Label,
			Pool:      pool,
			Odds:      utils.AmericanOdds(summary.EffectivePool, pool),
		})
	}
	return summary, nil
}

// ListOpenBets returns bets still taking wagers
func (s *bettingService) ListOpenBets(ctx context.Context) ([]*entities.Bet, error) {
	bets, err := s.betRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	open := make([]*entities.Bet, 0, len(bets))
	for _, b := range bets {
		if b.IsOpen() {
			open = append(open, b)
		}
	}
	return open, nil
}
