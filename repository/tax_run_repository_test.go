package repository

import (
	"context"
	"testing"
	"time"

	"econsim/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxRunRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewTaxRunRepository(testDB.DB)
	ctx := context.Background()
	at := time.Date(2026, 10, 13, 17, 0, 0, 0, time.UTC)

	t.Run("no run found", func(t *testing.T) {
		run, err := repo.GetByDateKey(ctx, "2026-10-13")
		require.NoError(t, err)
		assert.Nil(t, run)

		latest, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("run found", func(t *testing.T) {
		run := testutil.CreateTestTaxRun("2026-10-13", at)
		require.NoError(t, repo.Create(ctx, run))
		assert.NotZero(t, run.ID)

		stored, err := repo.GetByDateKey(ctx, "2026-10-13")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, run.TotalTax, stored.TotalTax)
		assert.Equal(t, run.AccountsTaxed, stored.AccountsTaxed)
	})

	t.Run("duplicate date key", func(t *testing.T) {
		err := repo.Create(ctx, testutil.CreateTestTaxRun("2026-10-13", at))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unique")
	})

	t.Run("latest", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, testutil.CreateTestTaxRun("2026-10-14", at.Add(24*time.Hour))))

		latest, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2026-10-14", latest.DateKey)
	})
}
