package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Assistant    AssistantConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// AssistantConfig defines model gateway and conversation parameters.
type AssistantConfig struct {
	GoogleAPIKey          string
	Model                 string
	Temperature           float64
	MaxOutputTokens       int
	HistoryLimit          int
	MaxMessageChars       int
	RequestTimeoutSeconds int
	SessionMaxAgeHours    int
	SweepIntervalMinutes  int
	SummaryCacheTTLSec    int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	temperature, err := strconv.ParseFloat(getEnv("ASSISTANT_TEMPERATURE", "0.7"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ASSISTANT_TEMPERATURE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Assistant: AssistantConfig{
			GoogleAPIKey:          os.Getenv("GOOGLE_API_KEY"),
			Model:                 getEnv("ASSISTANT_MODEL", "gemini-2.0-flash"),
			Temperature:           temperature,
			MaxOutputTokens:       getEnvAsInt("ASSISTANT_MAX_OUTPUT_TOKENS", 1000),
			HistoryLimit:          getEnvAsInt("ASSISTANT_HISTORY_LIMIT", 20),
			MaxMessageChars:       getEnvAsInt("ASSISTANT_MAX_MESSAGE_CHARS", 8000),
			RequestTimeoutSeconds: getEnvAsInt("ASSISTANT_REQUEST_TIMEOUT_SECONDS", 60),
			SessionMaxAgeHours:    getEnvAsInt("ASSISTANT_SESSION_MAX_AGE_HOURS", 24),
			SweepIntervalMinutes:  getEnvAsInt("ASSISTANT_SWEEP_INTERVAL_MINUTES", 60),
			SummaryCacheTTLSec:    getEnvAsInt("ASSISTANT_SUMMARY_CACHE_TTL_SECONDS", 300),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// RequestTimeout returns the per-call deadline for model invocations.
func (a AssistantConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionMaxAge returns the idle age after which sessions are swept.
func (a AssistantConfig) SessionMaxAge() time.Duration {
	if a.SessionMaxAgeHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.SessionMaxAgeHours) * time.Hour
}

// SweepInterval returns how often the sweeper runs; zero disables it.
func (a AssistantConfig) SweepInterval() time.Duration {
	if a.SweepIntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(a.SweepIntervalMinutes) * time.Minute
}

// SummaryCacheTTL returns how long a ticket summary stays cached.
func (a AssistantConfig) SummaryCacheTTL() time.Duration {
	if a.SummaryCacheTTLSec <= 0 {
		return 0
	}
	return time.Duration(a.SummaryCacheTTLSec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
