package services

import (
	"context"
	"testing"
	"time"

	"econsim/domain"
	"econsim/domain/entities"
	"econsim/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	winningNumbers = [entities.MainNumberCount]int{1, 2, 3, 4, 5}
	testJackpotTax = decimal.RequireFromString("0.40")
	testRebate     = decimal.RequireFromString("0.30")
)

func ticket(accountID int64, pb int, nums ...int) *entities.LotteryTicket {
	t := &entities.LotteryTicket{AccountID: accountID, Powerball: pb}
	copy(t.Numbers[:], nums)
	return t
}

func payoutsByTier(draw *entities.LotteryDraw, tier entities.LotteryTier) map[int64]*entities.LotteryPayout {
	out := make(map[int64]*entities.LotteryPayout)
	for _, p := range draw.Payouts {
		if p.Tier == tier {
			out[p.AccountID] = p
		}
	}
	return out
}

func TestSettleDraw_PaysFixedTiersInFull(t *testing.T) {
	t.Parallel()

	tickets := []*entities.LotteryTicket{
		ticket(1, 2, 1, 2, 3, 4, 9),
		ticket(2, 2, 1, 2, 3, 9, 9),
		ticket(3, 2, 1, 2, 9, 9, 9),
		ticket(4, 2, 9, 9, 9, 9, 9),
	}

	draw := SettleDraw(tickets, winningNumbers, 1, 1_000_000, testJackpotTax, testRebate)

	assert.Equal(t, int64(25000+5000+500), draw.TierPaid)
	assert.Equal(t, int64(1_000_000-30500), draw.PoolAfter)
	assert.Equal(t, 3, draw.WinnerCount)
	assert.Equal(t, 4, draw.TicketCount)
	require.Len(t, draw.Payouts, 3)
	assert.Equal(t, entities.LotteryTierFour, draw.Payouts[0].Tier)
	assert.Equal(t, entities.LotteryTierTwo, draw.Payouts[2].Tier)
	assert.Zero(t, draw.JackpotGross)
}

func TestSettleDraw_ScalesTheFirstTierThatDoesNotFit(t *testing.T) {
	t.Parallel()

	tickets := []*entities.LotteryTicket{
		ticket(2, 3, 1, 2, 3, 4, 5),
		ticket(1, 3, 1, 2, 3, 4, 5),
		ticket(3, 3, 1, 2, 3, 4, 9),
	}

	draw := SettleDraw(tickets, winningNumbers, 1, 150_000, testJackpotTax, testRebate)

	fives := payoutsByTier(draw, entities.LotteryTierFive)
	require.Len(t, fives, 2)
	assert.Equal(t, int64(75000), fives[1].Net)
	assert.Equal(t, int64(75000), fives[2].Net)
	assert.Empty(t, payoutsByTier(draw, entities.LotteryTierFour))
	assert.Equal(t, int64(150_000), draw.TierPaid)
	assert.Zero(t, draw.PoolAfter)
}

func TestSettleDraw_ScaledRemainderGoesToLowestAccount(t *testing.T) {
	t.Parallel()

	tickets := []*entities.LotteryTicket{
		ticket(9, 3, 1, 2, 3, 4, 5),
		ticket(4, 3, 1, 2, 3, 4, 5),
	}

	draw := SettleDraw(tickets, winningNumbers, 1, 100_001, testJackpotTax, testRebate)

	fives := payoutsByTier(draw, entities.LotteryTierFive)
	assert.Equal(t, int64(50001), fives[4].Gross)
	assert.Equal(t, int64(50000), fives[9].Gross)
	assert.Zero(t, draw.PoolAfter)
}

func TestSettleDraw_Jackpot(t *testing.T) {
	t.Parallel()

	tickets := []*entities.LotteryTicket{
		ticket(7, 1, 1, 2, 3, 4, 5),
		ticket(3, 1, 1, 2, 3, 4, 5),
		ticket(5, 2, 1, 2, 9, 9, 9),
	}

	draw := SettleDraw(tickets, winningNumbers, 1, 100_000, testJackpotTax, testRebate)

	assert.Equal(t, int64(500), draw.TierPaid)
	assert.Equal(t, int64(99500), draw.JackpotGross)

	jackpots := payoutsByTier(draw, entities.LotteryTierJackpot)
	require.Len(t, jackpots, 2)
	for _, id := range []int64{3, 7} {
		p := jackpots[id]
		assert.Equal(t, int64(49750), p.Gross)
		assert.Equal(t, int64(19900), p.Tax)
		assert.Equal(t, int64(29850), p.Net)
	}
	assert.Equal(t, int64(39800), draw.JackpotTax)
	assert.Equal(t, int64(11940), draw.JackpotRebate)
	assert.Equal(t, int64(11940), draw.PoolAfter)
	assert.Equal(t, 3, draw.WinnerCount)
	assert.Equal(t, entities.LotteryTierJackpot, draw.Payouts[0].Tier)
	assert.Equal(t, int64(3), draw.Payouts[0].AccountID)
}

func TestSettleDraw_JackpotOddRemainder(t *testing.T) {
	t.Parallel()

	tickets := []*entities.LotteryTicket{
		ticket(8, 1, 1, 2, 3, 4, 5),
		ticket(2, 1, 1, 2, 3, 4, 5),
	}

	draw := SettleDraw(tickets, winningNumbers, 1, 1001, testJackpotTax, testRebate)

	jackpots := payoutsByTier(draw, entities.LotteryTierJackpot)
	assert.Equal(t, int64(501), jackpots[2].Gross)
	assert.Equal(t, int64(500), jackpots[8].Gross)
	assert.Equal(t, int64(1001), draw.JackpotGross)
}

func TestSettleDraw_DuplicateJackpotTicketsCountOnce(t *testing.T) {
	t.Parallel()

	tickets := []*entities.LotteryTicket{
		ticket(1, 1, 1, 2, 3, 4, 5),
		ticket(1, 1, 1, 2, 3, 4, 5),
		ticket(2, 1, 1, 2, 3, 4, 5),
	}

	draw := SettleDraw(tickets, winningNumbers, 1, 10_000, testJackpotTax, testRebate)

	jackpots := payoutsByTier(draw, entities.LotteryTierJackpot)
	require.Len(t, jackpots, 2)
	assert.Equal(t, int64(5000), jackpots[1].Gross)
	assert.Equal(t, int64(5000), jackpots[2].Gross)
}

func TestSettleDraw_NeverPaysMoreThanThePool(t *testing.T) {
	t.Parallel()

	var tickets []*entities.LotteryTicket
	for i := int64(1); i <= 40; i++ {
		n := int(i % 6)
		tickets = append(tickets, ticket(i, int(i%4)+1, 1, 2, n, 4, 5))
	}

	for _, pool := range []int64{0, 1, 499, 25_000, 333_333, 5_000_000} {
		draw := SettleDraw(tickets, winningNumbers, 1, pool, testJackpotTax, testRebate)

		gross := int64(0)
		for _, p := range draw.Payouts {
			gross += p.Gross
		}
		assert.LessOrEqual(t, gross, pool, "pool=%d", pool)
		assert.Equal(t, gross, draw.TierPaid+draw.JackpotGross, "pool=%d", pool)
	}
}

func TestQuickPickAndValidate(t *testing.T) {
	t.Parallel()

	main := NumberRange{Min: 1, Max: 6}
	pb := NumberRange{Min: 1, Max: 4}
	rng := testhelpers.NewScriptedRandom().WithInts(0, 5, 2, 3, 1, 3)

	nums, ball := QuickPick(rng, main, pb)

	assert.Equal(t, [entities.MainNumberCount]int{1, 6, 3, 4, 2}, nums)
	assert.Equal(t, 4, ball)
	assert.NoError(t, ValidateTicketNumbers(nums, ball, main, pb))

	nums[2] = 7
	assert.ErrorIs(t, ValidateTicketNumbers(nums, ball, main, pb), domain.ErrInvalidNumberRange)
	nums[2] = 3
	assert.ErrorIs(t, ValidateTicketNumbers(nums, 0, main, pb), domain.ErrInvalidNumberRange)
}

type lotteryMocks struct {
	*ledgerMocks
	lottery *testhelpers.MockLotteryRepository
	state   *testhelpers.MockSystemStateRepository
}

func newLotteryMocks() *lotteryMocks {
	return &lotteryMocks{
		ledgerMocks: newLedgerMocks(),
		lottery:     new(testhelpers.MockLotteryRepository),
		state:       new(testhelpers.MockSystemStateRepository),
	}
}

func (m *lotteryMocks) service(rng *testhelpers.ScriptedRandom) *lotteryService {
	return NewLotteryService(m.accounts, m.lottery, m.state, m.history, rng, m.publisher).(*lotteryService)
}

func TestLotteryService_BuyTicket(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	m := newLotteryMocks()
	m.withAccount(&entities.Account{ID: 1, Balance: 6000})
	m.expectBalance(1, 1000)
	m.lottery.On("CreateTicket", ctx, mock.AnythingOfType("*entities.LotteryTicket")).Return(nil)
	m.state.On("AddToLotteryPool", ctx, int64(5000)).Return(int64(12000), nil)

	tk, err := m.service(testhelpers.NewScriptedRandom().WithInts(0, 1, 2, 3, 4, 2)).BuyTicket(ctx, 1, now)

	require.NoError(t, err)
	assert.Equal(t, [entities.MainNumberCount]int{1, 2, 3, 4, 5}, tk.Numbers)
	assert.Equal(t, 3, tk.Powerball)
	assert.Equal(t, now, tk.BoughtAt)
	assert.Len(t, m.historyOf(entities.TransactionTypeLottoTicket), 1)
	m.state.AssertExpectations(t)
}

func TestLotteryService_BuyTicketRejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := newLotteryMocks()
	m.withAccount(&entities.Account{ID: 1, Balance: 4999})
	m.withAccount(&entities.Account{ID: 2, Balance: 10_000, Jailed: true})
	m.accounts.On("GetByID", ctx, int64(3)).Return(nil, nil)
	svc := m.service(testhelpers.NewScriptedRandom())

	_, err := svc.BuyTicket(ctx, 1, time.Now())
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	_, err = svc.BuyTicket(ctx, 2, time.Now())
	assert.ErrorIs(t, err, domain.ErrJailed)
	_, err = svc.BuyTicket(ctx, 3, time.Now())
	assert.ErrorIs(t, err, domain.ErrNotActivated)

	m.lottery.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
}

func TestLotteryService_DrawWithoutTickets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := newLotteryMocks()
	m.lottery.On("GetAllTickets", ctx).Return([]*entities.LotteryTicket{}, nil)

	_, err := m.service(testhelpers.NewScriptedRandom()).Draw(ctx, time.Now())

	assert.ErrorIs(t, err, domain.ErrNoTickets)
	m.state.AssertNotCalled(t, "SetLotteryPool", mock.Anything, mock.Anything)
}

func TestLotteryService_Draw(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC)

	m := newLotteryMocks()
	tickets := []*entities.LotteryTicket{
		ticket(1, 1, 1, 2, 3, 4, 5),
		ticket(2, 2, 1, 2, 9, 9, 9),
		ticket(3, 2, 6, 6, 6, 6, 6),
	}
	m.lottery.On("GetAllTickets", ctx).Return(tickets, nil)
	m.state.On("GetLotteryPool", ctx).Return(int64(20_500), nil)
	m.withAccount(&entities.Account{ID: 1, Balance: 0})
	m.withAccount(&entities.Account{ID: 2, Balance: 100})
	m.expectBalance(1, 12000)
	m.expectBalance(2, 600)
	m.state.On("SetLotteryPool", ctx, int64(2400)).Return(nil)
	m.lottery.On("DeleteAllTickets", ctx).Return(int64(3), nil)
	m.lottery.On("RecordDraw", ctx, mock.AnythingOfType("*entities.LotteryDraw")).Return(nil)

	rng := testhelpers.NewScriptedRandom().WithInts(0, 1, 2, 3, 4, 0)
	draw, err := m.service(rng).Draw(ctx, now)

	require.NoError(t, err)
	assert.Equal(t, winningNumbers, draw.Numbers)
	assert.Equal(t, 1, draw.Powerball)
	assert.Equal(t, int64(20_000), draw.JackpotGross)
	assert.Equal(t, int64(2400), draw.PoolAfter)
	assert.Equal(t, now, draw.DrawnAt)
	assert.NotEmpty(t, draw.ID.String())
	assert.Len(t, m.historyOf(entities.TransactionTypeLottoWin), 2)
	m.accounts.AssertExpectations(t)
	m.lottery.AssertExpectations(t)
	m.state.AssertExpectations(t)
}
