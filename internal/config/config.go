package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultAPIBaseURL = "https://ypg-website.onrender.com"

type Config struct {
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration

	APIBaseURL string

	DatabaseDriver string
	DatabaseURL    string
	DBMaxConns     int32
	DBMinConns     int32

	UploadsRoot  string
	AuditLogFile string

	CORSOrigins       []string
	RateLimitRPM      int
	PurgeRateLimitRPM int

	TrashRequestTimeout  time.Duration
	TrashBulkConcurrency int
	TrashIntentTTL       time.Duration
	TrashActor           string

	LogLevel string
	LogFile  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		ServerReadTimeout:    getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout:   getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:    getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:       getDuration("REQUEST_TIMEOUT", 30*time.Second),
		APIBaseURL:           strings.TrimRight(getEnv("API_BASE_URL", getEnv("NEXT_PUBLIC_API_BASE_URL", defaultAPIBaseURL)), "/"),
		DatabaseDriver:       strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:           int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:           int32(getInt("DB_MIN_CONNS", 2)),
		UploadsRoot:          getEnv("UPLOADS_ROOT", "./uploads"),
		AuditLogFile:         getEnv("AUDIT_LOG_FILE", "./state/audit.log"),
		CORSOrigins:          splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:         getInt("RATE_LIMIT_RPM", 600),
		PurgeRateLimitRPM:    getInt("PURGE_RATE_LIMIT_RPM", 120),
		TrashRequestTimeout:  getDuration("TRASH_REQUEST_TIMEOUT", 15*time.Second),
		TrashBulkConcurrency: getInt("TRASH_BULK_CONCURRENCY", 8),
		TrashIntentTTL:       getDuration("TRASH_INTENT_TTL", 5*time.Minute),
		TrashActor:           getEnv("TRASH_ACTOR", "trash-dashboard"),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:              strings.TrimSpace(os.Getenv("LOG_FILE")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS/DB_MAX_CONNS out of range")
	}

	if strings.TrimSpace(c.UploadsRoot) == "" {
		return fmt.Errorf("UPLOADS_ROOT cannot be empty")
	}

	if strings.TrimSpace(c.AuditLogFile) == "" {
		return fmt.Errorf("AUDIT_LOG_FILE cannot be empty")
	}

	if c.TrashRequestTimeout <= 0 {
		return fmt.Errorf("TRASH_REQUEST_TIMEOUT must be positive")
	}

	if c.TrashBulkConcurrency <= 0 {
		return fmt.Errorf("TRASH_BULK_CONCURRENCY must be positive")
	}

	if c.TrashIntentTTL <= 0 {
		return fmt.Errorf("TRASH_INTENT_TTL must be positive")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
