package repository

import (
	"context"
	"testing"
	"time"

	"econsim/domain/entities"
	"econsim/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLotteryRepository_Tickets(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLotteryRepository(testDB.DB)
	ctx := context.Background()
	testutil.CreateTestAccount(t, testDB.DB, 1, "alice")
	testutil.CreateTestAccount(t, testDB.DB, 2, "bob")

	first := testutil.CreateTestTicket(1, 3, 1, 2, 3, 4, 5)
	require.NoError(t, repo.CreateTicket(ctx, first))
	assert.NotZero(t, first.ID)
	require.NoError(t, repo.CreateTicket(ctx, testutil.CreateTestTicket(2, 1, 6, 6, 6, 6, 6)))
	require.NoError(t, repo.CreateTicket(ctx, testutil.CreateTestTicket(1, 4, 2, 2, 2, 2, 2)))

	n, err := repo.CountTickets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	mine, err := repo.GetTicketsByAccount(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, [entities.MainNumberCount]int{1, 2, 3, 4, 5}, mine[0].Numbers)
	assert.Equal(t, 3, mine[0].Powerball)

	all, err := repo.GetAllTickets(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	deleted, err := repo.DeleteAllTickets(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	n, err = repo.CountTickets(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLotteryRepository_Draws(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLotteryRepository(testDB.DB)
	ctx := context.Background()
	at := time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC)

	older := &entities.LotteryDraw{ID: uuid.New(), Numbers: [5]int{1, 1, 1, 1, 1}, Powerball: 1, PoolBefore: 10, PoolAfter: 10, DrawnAt: at}
	newer := &entities.LotteryDraw{
		ID:            uuid.New(),
		Numbers:       [5]int{1, 2, 3, 4, 5},
		Powerball:     2,
		PoolBefore:    100_000,
		TierPaid:      500,
		JackpotGross:  99_500,
		JackpotTax:    39_800,
		JackpotRebate: 11_940,
		PoolAfter:     11_940,
		TicketCount:   3,
		WinnerCount:   3,
		DrawnAt:       at.Add(time.Hour),
	}
	require.NoError(t, repo.RecordDraw(ctx, older))
	require.NoError(t, repo.RecordDraw(ctx, newer))

	draws, err := repo.GetRecentDraws(ctx, 10)
	require.NoError(t, err)
	require.Len(t, draws, 2)
	assert.Equal(t, newer.ID, draws[0].ID)
	assert.Equal(t, newer.Numbers, draws[0].Numbers)
	assert.Equal(t, int64(11_940), draws[0].PoolAfter)
	assert.Equal(t, 3, draws[0].WinnerCount)

	assert.Error(t, repo.RecordDraw(ctx, older))
}

func TestSystemStateRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewSystemStateRepository(testDB.DB)
	ctx := context.Background()

	pool, err := repo.GetLotteryPool(ctx)
	require.NoError(t, err)
	assert.Zero(t, pool)

	pool, err = repo.AddToLotteryPool(ctx, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), pool)
	pool, err = repo.AddToLotteryPool(ctx, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(5250), pool)

	require.NoError(t, repo.SetLotteryPool(ctx, 42))
	pool, err = repo.GetLotteryPool(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), pool)

	_, ok, err := repo.Get(ctx, "last_tax_date")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, "last_tax_date", "2026-10-13"))
	value, ok, err := repo.Get(ctx, "last_tax_date")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2026-10-13", value)
}
