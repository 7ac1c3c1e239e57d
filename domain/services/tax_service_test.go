package services

import (
	"context"
	"testing"
	"time"

	"econsim/domain/entities"
	"econsim/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Noon in Chicago on a Tuesday and on a Monday
var (
	taxTuesday = time.Date(2026, 10, 13, 17, 0, 0, 0, time.UTC)
	taxMonday  = time.Date(2026, 10, 12, 17, 0, 0, 0, time.UTC)
)

func TestTaxRateForBalance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		balance int64
		want    string
	}{
		{0, "0.03"},
		{99_999, "0.03"},
		{100_000, "0.05"},
		{999_999, "0.05"},
		{1_000_000, "0.08"},
		{10_000_000, "0.1"},
		{50_000_000, "0.15"},
		{150_000_000, "0.18"},
		{500_000_000, "0.2"},
		{5_000_000_000, "0.23"},
		{19_999_999_999, "0.23"},
		{20_000_000_000, "0.25"},
		{9_000_000_000_000, "0.25"},
	}

	for _, tt := range tests {
		got := TaxRateForBalance(tt.balance)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "balance %d: got %s", tt.balance, got)
	}
}

func TestTaxFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int64(0), TaxFor(0))
	assert.Equal(t, int64(0), TaxFor(33), "3% of 33 floors to 0")
	assert.Equal(t, int64(30), TaxFor(1000))
	assert.Equal(t, int64(5000), TaxFor(100_000))
	assert.Equal(t, int64(5_000_000_000), TaxFor(20_000_000_000))
}

func TestTaxDateKey_UsesLocation(t *testing.T) {
	t.Parallel()
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	lateUTC := time.Date(2026, 10, 14, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-13", TaxDateKey(lateUTC, chicago))
	assert.Equal(t, "2026-10-14", TaxDateKey(lateUTC, time.UTC))
}

type taxMocks struct {
	*ledgerMocks
	state *testhelpers.MockSystemStateRepository
	runs  *testhelpers.MockTaxRunRepository
}

func newTaxMocks() *taxMocks {
	return &taxMocks{
		ledgerMocks: newLedgerMocks(),
		state:       new(testhelpers.MockSystemStateRepository),
		runs:        new(testhelpers.MockTaxRunRepository),
	}
}

func (m *taxMocks) service() *taxService {
	return NewTaxService(m.accounts, m.history, m.state, m.runs, m.publisher).(*taxService)
}

func TestTaxService_RunIfDue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTaxMocks()

	accounts := []*entities.Account{
		{ID: 1, Balance: 1000},
		{ID: 2, Balance: 10},
		{ID: 3, Balance: 200_000},
	}
	m.accounts.On("GetAll", ctx).Return(accounts, nil)
	m.state.On("Get", ctx, lastTaxDateKey).Return("2026-10-11", true, nil)
	m.expectBalance(1, 970)
	m.expectBalance(3, 190_000)
	m.state.On("Set", ctx, lastTaxDateKey, "2026-10-13").Return(nil)
	m.runs.On("Create", ctx, mock.MatchedBy(func(r *entities.TaxRun) bool {
		return r.DateKey == "2026-10-13" && r.AccountsTaxed == 2 && r.TotalTax == 10_030
	})).Return(nil)
	m.state.On("AddToLotteryPool", ctx, int64(10_030)).Return(int64(15_030), nil)

	res, ran, err := m.service().RunIfDue(ctx, taxTuesday)

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, "2026-10-13", res.DateKey)
	assert.Equal(t, 2, res.AccountsTaxed)
	assert.Equal(t, int64(10_030), res.TotalTax)
	assert.Equal(t, int64(15_030), res.PoolAfter)
	assert.Equal(t, int64(10), accounts[1].Balance)
	assert.Len(t, m.historyOf(entities.TransactionTypeTax), 2)
	m.accounts.AssertExpectations(t)
	m.state.AssertExpectations(t)
	m.runs.AssertExpectations(t)
}

func TestTaxService_RunIfDue_SameDayIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTaxMocks()
	m.state.On("Get", ctx, lastTaxDateKey).Return("2026-10-13", true, nil)

	res, ran, err := m.service().RunIfDue(ctx, taxTuesday)

	require.NoError(t, err)
	assert.False(t, ran)
	assert.Nil(t, res)
	m.accounts.AssertNotCalled(t, "GetAll", mock.Anything)
	m.runs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTaxService_RunIfDue_SkipsDisallowedWeekday(t *testing.T) {
	t.Parallel()
	m := newTaxMocks()

	_, ran, err := m.service().RunIfDue(context.Background(), taxMonday)

	require.NoError(t, err)
	assert.False(t, ran)
	m.state.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestTaxService_RunIfDue_NothingCollected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTaxMocks()
	m.accounts.On("GetAll", ctx).Return([]*entities.Account{{ID: 1, Balance: 5}}, nil)
	m.state.On("Get", ctx, lastTaxDateKey).Return("", false, nil)
	m.state.On("Set", ctx, lastTaxDateKey, "2026-10-13").Return(nil)
	m.runs.On("Create", ctx, mock.Anything).Return(nil)
	m.state.On("GetLotteryPool", ctx).Return(int64(42), nil)

	res, ran, err := m.service().RunIfDue(ctx, taxTuesday)

	require.NoError(t, err)
	assert.True(t, ran, "the run is still marked so the day is not retried")
	assert.Zero(t, res.TotalTax)
	assert.Equal(t, int64(42), res.PoolAfter)
	m.state.AssertNotCalled(t, "AddToLotteryPool", mock.Anything, mock.Anything)
}

func TestTaxService_Status(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTaxMocks()
	m.state.On("Get", ctx, lastTaxDateKey).Return("2026-10-11", true, nil)

	status, err := m.service().Status(ctx, taxTuesday)

	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", status.Timezone)
	assert.Equal(t, "2026-10-13", status.DateKey)
	assert.True(t, status.Eligible)
	assert.False(t, status.AlreadyRan)
	assert.Equal(t, "2026-10-11", status.LastTaxDate)
}
