package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/pos-register/internal/money"
)

// Inventory backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv   string
	Currency string

	LogFormat string
	LogLevel  string

	RevenueLogPath string

	InventoryBackend     string
	RedisURL             string
	InventoryRedisPrefix string
	InventoryCacheTTL    time.Duration
	InventoryFailItemID  string

	BreakerMinRequests int
	BreakerFailureRate float64
	BreakerOpenFor     time.Duration

	MetricsNamespace string
	MetricsTextfile  string

	TracingEnabled  bool
	OTLPEndpoint    string
	TracingSampling float64

	SimRounds     int
	SimPayment    money.Amount
	SimCustomerID int64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:               valueOrDefault(k.String("APP_ENV"), "development"),
		Currency:             valueOrDefault(k.String("CURRENCY"), "SEK"),
		LogFormat:            valueOrDefault(k.String("OBS_LOG_FORMAT"), "console"),
		LogLevel:             valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		RevenueLogPath:       valueOrDefault(k.String("REVENUE_LOG_PATH"), "total_revenue.log"),
		InventoryBackend:     strings.ToLower(valueOrDefault(k.String("INVENTORY_BACKEND"), BackendMemory)),
		RedisURL:             strings.TrimSpace(k.String("REDIS_URL")),
		InventoryRedisPrefix: valueOrDefault(k.String("INVENTORY_REDIS_PREFIX"), "pos"),
		InventoryCacheTTL:    parseDuration(k.String("INVENTORY_CACHE_TTL"), "0s"),
		InventoryFailItemID:  valueOrDefault(k.String("INVENTORY_FAIL_ITEM_ID"), "fail114514"),
		BreakerMinRequests:   parseInt(k.String("CIRCUIT_INVENTORY_MIN_REQ"), 3),
		BreakerFailureRate:   parseFloat(k.String("CIRCUIT_INVENTORY_FAILURE_RATE"), 0.5),
		BreakerOpenFor:       parseDuration(k.String("CIRCUIT_INVENTORY_OPEN_FOR"), "30s"),
		MetricsNamespace:     valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "pos"),
		MetricsTextfile:      strings.TrimSpace(k.String("OBS_METRICS_TEXTFILE")),
		TracingEnabled:       parseBool(k.String("OBS_ENABLE_TRACING")),
		OTLPEndpoint:         strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSampling:      parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
		SimRounds:            parseInt(k.String("SIM_ROUNDS"), 3),
		SimCustomerID:        int64(parseInt(k.String("SIM_CUSTOMER_ID"), 0)),
	}

	payment, err := money.Parse(valueOrDefault(k.String("SIM_PAYMENT"), "100"))
	if err != nil {
		return nil, fmt.Errorf("SIM_PAYMENT: %w", err)
	}
	cfg.SimPayment = payment

	switch cfg.InventoryBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required when INVENTORY_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("unsupported INVENTORY_BACKEND %q", cfg.InventoryBackend)
	}
	if cfg.SimRounds < 0 {
		return nil, errors.New("SIM_ROUNDS must not be negative")
	}
	if cfg.SimPayment.IsNegative() {
		return nil, errors.New("SIM_PAYMENT must not be negative")
	}

	return cfg, nil
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
