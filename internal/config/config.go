package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the application configuration.
type Config struct {
	ServerPort         int
	SecretKey          string
	DatabaseURL        string // SQLite path or mongodb:// URI
	MongoDatabase      string
	TokenTTL           time.Duration
	CORSAllowedOrigins []string
	PurgeSchedule      string // Empty disables the orphan purger
	LogLevel           zerolog.Level
	Production         bool
}

// Load loads configuration from an optional .env file and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using environment variables")
	}

	port, err := strconv.Atoi(getEnv("PORT", "8000"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", os.Getenv("PORT"))
	}

	secret := getEnv("SECRET_KEY", "")
	if secret == "" {
		return nil, errors.New("SECRET_KEY is required")
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "480h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid TOKEN_TTL %q", os.Getenv("TOKEN_TTL"))
	}

	schedule := strings.TrimSpace(getEnv("PURGE_SCHEDULE", "@hourly"))
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid PURGE_SCHEDULE %q: %w", schedule, err)
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return &Config{
		ServerPort:         port,
		SecretKey:          secret,
		DatabaseURL:        getEnv("DATABASE_URL", "./studentily.db"),
		MongoDatabase:      getEnv("MONGODB_DATABASE", "studentily"),
		TokenTTL:           ttl,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "https://studentily.com")),
		PurgeSchedule:      schedule,
		LogLevel:           level,
		Production:         getEnv("APP_ENV", "development") == "production",
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
