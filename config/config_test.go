package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("ECONOMY_CONFIG", "")
	t.Setenv("MARKET_TICK_INTERVAL", "5s")
	t.Setenv("STARTING_BALANCE", "2500")
	t.Setenv("TAX_WEEKDAYS", "Mon, Sat")
	t.Setenv("OPERATOR_IDS", "1, 2,bad,3")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.MarketTickInterval.Duration)
	assert.Equal(t, int64(2500), cfg.StartingBalance)
	assert.Equal(t, []time.Weekday{time.Monday, time.Saturday}, cfg.Weekdays())
	assert.Equal(t, []int64{1, 2, 3}, cfg.OperatorIDs)
	assert.Equal(t, 0.007, cfg.MarketFee)
	assert.Equal(t, int64(750), cfg.DailyCredits)
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "economy.toml")
	content := `
environment = "test"
market_fee = 0.01
tax_timezone = "UTC"
parole_duration = "2h"
lottery_main_max = 9
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("ECONOMY_CONFIG", path)
	t.Setenv("ENVIRONMENT", "")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, 0.01, cfg.MarketFee)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 2*time.Hour, cfg.ParoleDuration.Duration)
	assert.Equal(t, 9, cfg.LotteryMainMax)
	assert.Equal(t, "test", cfg.Environment)
}

func TestLoad_RequiresDatabaseURLOutsideTests(t *testing.T) {
	t.Setenv("ECONOMY_CONFIG", "")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "")

	_, err := load()
	assert.Error(t, err)
}

func TestLoad_RejectsFeeOutOfRange(t *testing.T) {
	t.Setenv("ECONOMY_CONFIG", "")
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("MARKET_FEE", "1.5")

	_, err := load()
	assert.Error(t, err)
}

func TestConfig_DefaultWeekdaysAndOperators(t *testing.T) {
	cfg := NewTestConfig()

	assert.Equal(t, []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Sunday}, cfg.Weekdays())
	assert.True(t, cfg.IsOperator(999999))
	assert.False(t, cfg.IsOperator(1))
}

func TestGetDatabaseURL(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@localhost:5432", DatabaseName: "economy"}
	assert.Equal(t, "postgres://u:p@localhost:5432/economy?sslmode=disable", cfg.GetDatabaseURL())
}
