package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string
	LogLevel       string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often a pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	Auth AuthConfig

	// AllowedOrigins is the CORS allowlist for the budget editor frontend.
	AllowedOrigins []string

	// RedisAddr enables the shared plan cache. Empty means an in-process cache.
	RedisAddr    string
	PlanCacheTTL time.Duration

	Tracing TracingConfig

	// MaxInstallments bounds num_parcelas on every payment plan (the editor offers 1..12).
	MaxInstallments int

	// BudgetExpirySchedule is a cron spec for the job expiring sent budgets past their validity.
	BudgetExpirySchedule string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret   string
	JWTAudience string
}

type TracingConfig struct {
	Endpoint    string
	ServiceName string
}

func (c Config) IsProd() bool {
	return c.AppEnv == "prod"
}

func Load() Config {
	// Local dev: load variables from .env if present.
	_ = godotenv.Load()

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		LogLevel:       env("LOG_LEVEL", "info"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "bizfinance"),
			User:     env("DB_USER", "bizfinance"),
			Password: env("DB_PASSWORD", "bizfinance"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:   os.Getenv("AUTH_JWT_SECRET"),
			JWTAudience: os.Getenv("AUTH_JWT_AUDIENCE"),
		},
		AllowedOrigins: envList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		PlanCacheTTL:   envDuration("PLAN_CACHE_TTL", 10*time.Minute),
		Tracing: TracingConfig{
			Endpoint:    os.Getenv("OTEL_ENDPOINT"),
			ServiceName: env("OTEL_SERVICE_NAME", "bizfinance-api"),
		},
		MaxInstallments:      envInt("MAX_INSTALLMENTS", 12),
		BudgetExpirySchedule: env("BUDGET_EXPIRY_SCHEDULE", "@hourly"),
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
