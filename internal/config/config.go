package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"anoa.com/socialgraph/internal/entity"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string

	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	ResendAPIKey       string
	MailFrom           string
	EmailWorkers       int
	EmailQueueSize     int
	EmailRatePerSecond float64
	EmailMaxAttempts   uint

	RateLimitFollow time.Duration
	NotifyAlwaysOn  []entity.NotificationType
	WSSendBuffer    int
	SeedDemoData    bool
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		DatabaseURL: databaseURL(),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		MailFrom:     getEnv("MAIL_FROM", "Notifications <notifications@localhost>"),
	}

	if cfg.JWTSecret == "" {
		if cfg.AppEnv != "development" {
			return nil, fmt.Errorf("JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = "development-secret"
	}

	var err error
	if cfg.EmailWorkers, err = getInt("EMAIL_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.EmailQueueSize, err = getInt("EMAIL_QUEUE_SIZE", 1024); err != nil {
		return nil, err
	}
	if cfg.WSSendBuffer, err = getInt("WS_SEND_BUFFER", 64); err != nil {
		return nil, err
	}
	attempts, err := getInt("EMAIL_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	if attempts < 1 {
		return nil, fmt.Errorf("invalid EMAIL_MAX_ATTEMPTS: must be at least 1")
	}
	cfg.EmailMaxAttempts = uint(attempts)

	cfg.EmailRatePerSecond, err = strconv.ParseFloat(getEnv("EMAIL_RATE_PER_SECOND", "2"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid EMAIL_RATE_PER_SECOND: %w", err)
	}

	cfg.RateLimitFollow, err = time.ParseDuration(getEnv("RATE_LIMIT_FOLLOW", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_FOLLOW: %w", err)
	}

	cfg.SeedDemoData, err = strconv.ParseBool(getEnv("SEED_DEMO_DATA", strconv.FormatBool(cfg.AppEnv == "development")))
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_DEMO_DATA: %w", err)
	}

	cfg.NotifyAlwaysOn, err = parseTypes(getEnv("NOTIFY_ALWAYS_ON", "follow_request,follow_accepted"))
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// databaseURL prefers DATABASE_URL and otherwise builds a DSN from the
// DB_* variables.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "postgres"),
		os.Getenv("DB_PASS"),
		getEnv("DB_NAME", "socialgraph"),
		getEnv("DB_PORT", "5432"),
	)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseTypes(s string) ([]entity.NotificationType, error) {
	types := []entity.NotificationType{}
	for _, name := range splitList(s) {
		t := entity.NotificationType(name)
		if !t.Valid() {
			return nil, fmt.Errorf("invalid NOTIFY_ALWAYS_ON: unknown notification type %q", name)
		}
		types = append(types, t)
	}
	return types, nil
}
