package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"hospitalpay/internal/domain/payroll"
	"hospitalpay/internal/domain/subscription"
)

type Config struct {
	Addr                      string
	DatabaseURL               string
	RedisURL                  string
	JWTSecret                 string
	DataEncryptionKey         string
	Environment               string
	SeedAdminEmail            string
	SeedAdminPassword         string
	RunMigrations             bool
	RunSeed                   bool
	MaxBodyBytes              int64
	RateLimitPerMinute        int
	MetricsEnabled            bool
	CORSOrigins               []string
	PayrollTaxRelief          string
	PayrollNSSFRate           string
	PayrollNSSFCeiling        string
	PayrollTaxBandsFile       string
	SubscriptionWarnRatio     string
	SubscriptionExpiryWindow  time.Duration
	SubscriptionSweepInterval time.Duration
	EntitlementCacheTTL       time.Duration
}

// Load reads a .env file when one exists, then the process environment.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Addr:                      getEnv("APP_ADDR", ":8080"),
		DatabaseURL:               getEnv("DATABASE_URL", ""),
		RedisURL:                  getEnv("REDIS_URL", ""),
		JWTSecret:                 getEnv("JWT_SECRET", ""),
		DataEncryptionKey:         getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:               getEnv("APP_ENV", "development"),
		SeedAdminEmail:            getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:         getEnv("SEED_ADMIN_PASSWORD", ""),
		RunMigrations:             getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                   getEnvBool("RUN_SEED", true),
		MaxBodyBytes:              int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:        getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MetricsEnabled:            getEnvBool("METRICS_ENABLED", true),
		CORSOrigins:               getEnvList("CORS_ORIGINS"),
		PayrollTaxRelief:          getEnv("PAYROLL_TAX_RELIEF", ""),
		PayrollNSSFRate:           getEnv("PAYROLL_NSSF_RATE", ""),
		PayrollNSSFCeiling:        getEnv("PAYROLL_NSSF_CEILING", ""),
		PayrollTaxBandsFile:       getEnv("PAYROLL_TAX_BANDS_FILE", ""),
		SubscriptionWarnRatio:     getEnv("SUBSCRIPTION_WARN_RATIO", ""),
		SubscriptionExpiryWindow:  getEnvDuration("SUBSCRIPTION_EXPIRY_WINDOW", 7*24*time.Hour),
		SubscriptionSweepInterval: getEnvDuration("SUBSCRIPTION_SWEEP_INTERVAL", time.Hour),
		EntitlementCacheTTL:       getEnvDuration("ENTITLEMENT_CACHE_TTL", 5*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for payslip encryption")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.SubscriptionSweepInterval < 0 {
		return fmt.Errorf("SUBSCRIPTION_SWEEP_INTERVAL must not be negative")
	}
	if _, err := c.PayrollRules(); err != nil {
		return err
	}
	if _, err := c.LimitPolicy(); err != nil {
		return err
	}
	return nil
}

// PayrollRules starts from the reference statutory rules and applies any overrides.
func (c Config) PayrollRules() (payroll.Rules, error) {
	rules := payroll.DefaultRules()
	var err error
	if rules.Relief, err = decimalOverride("PAYROLL_TAX_RELIEF", c.PayrollTaxRelief, rules.Relief); err != nil {
		return payroll.Rules{}, err
	}
	if rules.PensionRate, err = decimalOverride("PAYROLL_NSSF_RATE", c.PayrollNSSFRate, rules.PensionRate); err != nil {
		return payroll.Rules{}, err
	}
	if rules.PensionCeiling, err = decimalOverride("PAYROLL_NSSF_CEILING", c.PayrollNSSFCeiling, rules.PensionCeiling); err != nil {
		return payroll.Rules{}, err
	}
	if c.PayrollTaxBandsFile != "" {
		raw, err := os.ReadFile(c.PayrollTaxBandsFile)
		if err != nil {
			return payroll.Rules{}, fmt.Errorf("PAYROLL_TAX_BANDS_FILE: %w", err)
		}
		var file struct {
			Bands       []payroll.TaxBand    `json:"bands"`
			HealthTiers []payroll.HealthTier `json:"healthTiers"`
		}
		if err := json.Unmarshal(raw, &file); err != nil {
			return payroll.Rules{}, fmt.Errorf("PAYROLL_TAX_BANDS_FILE: %w", err)
		}
		if len(file.Bands) > 0 {
			rules.Bands = file.Bands
		}
		rules.HealthTiers = file.HealthTiers
	}
	if err := rules.Validate(); err != nil {
		return payroll.Rules{}, err
	}
	return rules, nil
}

func (c Config) LimitPolicy() (subscription.LimitPolicy, error) {
	policy := subscription.DefaultLimitPolicy()
	var err error
	if policy.WarnRatio, err = decimalOverride("SUBSCRIPTION_WARN_RATIO", c.SubscriptionWarnRatio, policy.WarnRatio); err != nil {
		return subscription.LimitPolicy{}, err
	}
	policy.ExpiryWindow = c.SubscriptionExpiryWindow
	if err := policy.Validate(); err != nil {
		return subscription.LimitPolicy{}, err
	}
	return policy, nil
}

func decimalOverride(key, value string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s must be a decimal number: %w", key, err)
	}
	return parsed, nil
}
