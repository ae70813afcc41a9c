package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv             string
	Port               string
	Headless           bool
	ConfigArtifactPath string
	SessionSecret      string
	RedisURL           string
	TokenSealKey       string
	SessionTTLHours    int
	MaxClientsPerPage  int
	LogLevel           string
	LogFormat          string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		Headless:           getEnv("HEADLESS", "") == "true",
		ConfigArtifactPath: getEnv("CONFIG_ARTIFACT_PATH", ""),
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		TokenSealKey:       getEnv("TOKEN_SEAL_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	if cfg.ConfigArtifactPath == "" {
		return nil, fmt.Errorf("CONFIG_ARTIFACT_PATH is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	var err error
	cfg.SessionTTLHours, err = getEnvInt("SESSION_TTL_HOURS", 120)
	if err != nil {
		return nil, err
	}
	if cfg.SessionTTLHours <= 0 {
		return nil, fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}

	cfg.MaxClientsPerPage, err = getEnvInt("MAX_CLIENTS_PER_PAGE", 50)
	if err != nil {
		return nil, err
	}
	if cfg.MaxClientsPerPage <= 0 {
		return nil, fmt.Errorf("MAX_CLIENTS_PER_PAGE must be positive")
	}

	if cfg.TokenSealKey != "" {
		keyBytes, err := hex.DecodeString(cfg.TokenSealKey)
		if err != nil {
			return nil, fmt.Errorf("TOKEN_SEAL_KEY must be valid hex: %w", err)
		}
		if len(keyBytes) != 32 {
			return nil, fmt.Errorf("TOKEN_SEAL_KEY must be exactly 64 hex characters (32 bytes), got %d bytes", len(keyBytes))
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
