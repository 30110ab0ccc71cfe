package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration. It is built once at startup and treated as immutable.
type Config struct {
	DatabaseURL    string
	Port           string `validate:"required,numeric"`
	IsProduction   bool
	EnableDBCheck  bool
	StoreBackend   string `validate:"oneof=postgres memory"`
	MigrationsPath string

	// Depreciation policy
	DefaultDepreciationYears int             `validate:"gte=1,lte=40"`
	SalvagePercent           decimal.Decimal `validate:"-"`
	FiscalYearStartMonth     time.Month      `validate:"gte=1,lte=12"`
	AccountChartFile         string
	AccountCodes             AccountCodes

	// Batch reconciliation
	BatchWorkers int `validate:"gte=1,lte=256"`

	// HTTP
	RateLimit          string
	CORSAllowedOrigins []string

	// Integration events; empty brokers disables publishing.
	KafkaBrokers []string
	KafkaTopic   string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("STORE_BACKEND", "postgres")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("DEPRECIATION_YEARS", 5)
	v.SetDefault("SALVAGE_PERCENT", "0.20")
	v.SetDefault("FISCAL_YEAR_START_MONTH", 1)
	v.SetDefault("ACCOUNT_CHART_FILE", "")
	v.SetDefault("BATCH_WORKERS", 8)
	v.SetDefault("RATE_LIMIT", "600-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "herd-ledger.assets")
	v.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = v.GetString("PGSQL_URL")
	cfg.Port = v.GetString("PORT")
	cfg.IsProduction = v.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = v.GetBool("ENABLE_DB_CHECK")
	cfg.StoreBackend = strings.ToLower(v.GetString("STORE_BACKEND"))
	cfg.MigrationsPath = v.GetString("MIGRATIONS_PATH")
	cfg.DefaultDepreciationYears = v.GetInt("DEPRECIATION_YEARS")
	cfg.FiscalYearStartMonth = time.Month(v.GetInt("FISCAL_YEAR_START_MONTH"))
	cfg.AccountChartFile = v.GetString("ACCOUNT_CHART_FILE")
	cfg.BatchWorkers = v.GetInt("BATCH_WORKERS")
	cfg.RateLimit = v.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.KafkaTopic = v.GetString("KAFKA_TOPIC")

	salvagePercent, err := decimal.NewFromString(v.GetString("SALVAGE_PERCENT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SALVAGE_PERCENT %q: %w", v.GetString("SALVAGE_PERCENT"), err)
	}
	cfg.SalvagePercent = salvagePercent

	if cfg.DatabaseURL == "" && cfg.StoreBackend == "postgres" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	codes, err := LoadAccountCodes(cfg.AccountChartFile)
	if err != nil {
		return nil, err
	}
	cfg.AccountCodes = codes

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set, with the in-memory store.
func Default() *Config {
	return &Config{
		Port:                     "8080",
		StoreBackend:             "memory",
		MigrationsPath:           "file://migrations",
		DefaultDepreciationYears: 5,
		SalvagePercent:           decimal.RequireFromString("0.20"),
		FiscalYearStartMonth:     time.January,
		AccountCodes:             DefaultAccountCodes(),
		BatchWorkers:             8,
		RateLimit:                "600-M",
		KafkaTopic:               "herd-ledger.assets",
	}
}

// Validate checks value ranges and the chart of accounts.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.SalvagePercent.IsNegative() || c.SalvagePercent.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("invalid configuration: SALVAGE_PERCENT must be in [0, 1), got %s", c.SalvagePercent)
	}
	return c.AccountCodes.Validate()
}

// FiscalYearOf returns the fiscal year a date belongs to, named after the calendar year it ends in.
func (c *Config) FiscalYearOf(t time.Time) int {
	start := c.FiscalYearStartMonth
	if start <= time.January {
		return t.Year()
	}
	if t.Month() >= start {
		return t.Year() + 1
	}
	return t.Year()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
