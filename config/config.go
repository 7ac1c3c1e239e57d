package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"econsim/database"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Duration wraps time.Duration so it can be written as "20s" in TOML files
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `toml:"database_url"`
	DatabaseName string `toml:"database_name"`

	// Redis price cache; empty address disables it
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	// Status API
	HTTPAddr string `toml:"http_addr"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // "text" or "json"

	// Accounts
	StartingBalance int64    `toml:"starting_balance"`
	DailyCredits    int64    `toml:"daily_credits"`
	DailyInterval   Duration `toml:"daily_interval"`

	// Markets
	MarketTickInterval Duration `toml:"market_tick_interval"`
	MarketFee          float64  `toml:"market_fee"`

	// Taxation
	TaxCheckInterval Duration `toml:"tax_check_interval"`
	TaxTimezone      string   `toml:"tax_timezone"`
	TaxWeekdays      []string `toml:"tax_weekdays"`

	// Jail and parole
	ParoleCheckInterval Duration `toml:"parole_check_interval"`
	ParoleDuration      Duration `toml:"parole_duration"`
	ParolePayInterval   Duration `toml:"parole_pay_interval"`
	ParoleRate          float64  `toml:"parole_rate"`
	JailReleaseRate     float64  `toml:"jail_release_rate"`

	// Lottery
	LotteryTicketCost int64   `toml:"lottery_ticket_cost"`
	LotteryMainMin    int     `toml:"lottery_main_min"`
	LotteryMainMax    int     `toml:"lottery_main_max"`
	LotteryPBMin      int     `toml:"lottery_pb_min"`
	LotteryPBMax      int     `toml:"lottery_pb_max"`
	JackpotTaxRate    float64 `toml:"jackpot_tax_rate"`
	JackpotRebateRate float64 `toml:"jackpot_rebate_rate"`

	// Operators allowed to run privileged commands
	OperatorIDs []int64 `toml:"operator_ids"`

	// Environment
	Environment string `toml:"environment"` // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if testing.Testing() || os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// Location resolves the configured tax timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TaxTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Weekdays converts the configured tax weekday names into time.Weekday values.
// Unknown names are ignored.
func (c *Config) Weekdays() []time.Weekday {
	names := map[string]time.Weekday{
		"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
		"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
	}
	days := make([]time.Weekday, 0, len(c.TaxWeekdays))
	for _, name := range c.TaxWeekdays {
		key := strings.ToLower(strings.TrimSpace(name))
		if len(key) > 3 {
			key = key[:3]
		}
		if day, ok := names[key]; ok {
			days = append(days, day)
		}
	}
	return days
}

// IsOperator reports whether the account may run privileged commands
func (c *Config) IsOperator(accountID int64) bool {
	for _, id := range c.OperatorIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

// Defaults returns the built-in configuration values
func Defaults() Config {
	return Config{
		HTTPAddr:            ":8080",
		LogLevel:            "info",
		LogFormat:           "text",
		StartingBalance:     1000,
		DailyCredits:        750,
		DailyInterval:       Duration{24 * time.Hour},
		MarketTickInterval:  Duration{20 * time.Second},
		MarketFee:           0.007,
		TaxCheckInterval:    Duration{5 * time.Minute},
		TaxTimezone:         "America/Chicago",
		TaxWeekdays:         []string{"Tue", "Wed", "Thu", "Fri", "Sun"},
		ParoleCheckInterval: Duration{60 * time.Second},
		ParoleDuration:      Duration{time.Hour},
		ParolePayInterval:   Duration{10 * time.Minute},
		ParoleRate:          0.06,
		JailReleaseRate:     0.12,
		LotteryTicketCost:   5000,
		LotteryMainMin:      1,
		LotteryMainMax:      6,
		LotteryPBMin:        1,
		LotteryPBMax:        4,
		JackpotTaxRate:      0.40,
		JackpotRebateRate:   0.30,
	}
}

// load builds configuration from defaults, an optional TOML file, .env and the environment
func load() (*Config, error) {
	config := Defaults()

	if path := os.Getenv("ECONOMY_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing)
	_ = godotenv.Load()

	applyEnvOverrides(&config)

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}
	if config.MarketFee < 0 || config.MarketFee >= 1 {
		return nil, fmt.Errorf("MARKET_FEE must be in [0, 1), got %v", config.MarketFee)
	}

	return &config, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.DatabaseURL, "DATABASE_URL")
	setStr(&cfg.DatabaseName, "DATABASE_NAME")
	setStr(&cfg.RedisAddr, "REDIS_ADDR")
	setStr(&cfg.RedisPassword, "REDIS_PASSWORD")
	setInt(&cfg.RedisDB, "REDIS_DB")
	setStr(&cfg.HTTPAddr, "HTTP_ADDR")
	setStr(&cfg.LogLevel, "LOG_LEVEL")
	setStr(&cfg.LogFormat, "LOG_FORMAT")
	setStr(&cfg.Environment, "ENVIRONMENT")

	setInt64(&cfg.StartingBalance, "STARTING_BALANCE")
	setInt64(&cfg.DailyCredits, "DAILY_CREDITS")
	setDuration(&cfg.DailyInterval, "DAILY_INTERVAL")

	setDuration(&cfg.MarketTickInterval, "MARKET_TICK_INTERVAL")
	setFloat64(&cfg.MarketFee, "MARKET_FEE")

	setDuration(&cfg.TaxCheckInterval, "TAX_CHECK_INTERVAL")
	setStr(&cfg.TaxTimezone, "TAX_TIMEZONE")
	setStringSlice(&cfg.TaxWeekdays, "TAX_WEEKDAYS")

	setDuration(&cfg.ParoleCheckInterval, "PAROLE_CHECK_INTERVAL")
	setDuration(&cfg.ParoleDuration, "PAROLE_DURATION")
	setDuration(&cfg.ParolePayInterval, "PAROLE_PAY_INTERVAL")
	setFloat64(&cfg.ParoleRate, "PAROLE_RATE")
	setFloat64(&cfg.JailReleaseRate, "JAIL_RELEASE_RATE")

	setInt64(&cfg.LotteryTicketCost, "LOTTERY_TICKET_COST")
	setInt(&cfg.LotteryMainMin, "LOTTERY_MAIN_MIN")
	setInt(&cfg.LotteryMainMax, "LOTTERY_MAIN_MAX")
	setInt(&cfg.LotteryPBMin, "LOTTERY_PB_MIN")
	setInt(&cfg.LotteryPBMax, "LOTTERY_PB_MAX")
	setFloat64(&cfg.JackpotTaxRate, "JACKPOT_TAX_RATE")
	setFloat64(&cfg.JackpotRebateRate, "JACKPOT_REBATE_RATE")

	// Parse operator IDs
	if operatorIDs := os.Getenv("OPERATOR_IDS"); operatorIDs != "" {
		cfg.OperatorIDs = nil
		for _, idStr := range strings.Split(operatorIDs, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr != "" {
				if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
					cfg.OperatorIDs = append(cfg.OperatorIDs, id)
				}
			}
		}
	}
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		*dst = cleaned
	}
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	cfg := Defaults()
	cfg.Environment = "test"
	cfg.OperatorIDs = []int64{999999}
	return &cfg
}
