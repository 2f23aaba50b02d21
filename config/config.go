package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StorageBackendJSON     = "json"
	StorageBackendPostgres = "postgres"

	defaultSessionSecret = "ipo-dashboard-dev-secret-change-me"
)

type Config struct {
	ServerPort  string `env:"PORT" envDefault:"3000"`
	Environment string `env:"NODE_ENV" envDefault:"development"`
	AppEnv      string `env:"APP_ENV"`
	ClientURL   string `env:"CLIENT_URL" envDefault:"http://localhost:5173"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
	RedisURL      string        `env:"REDIS_URL"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL" envDefault:"http://localhost:3000/api/auth/google/callback"`

	FinnhubAPIKey  string `env:"FINNHUB_API_KEY"`
	FinnhubBaseURL string `env:"FINNHUB_BASE_URL" envDefault:"https://finnhub.io/api/v1"`
	NewsAPIKey     string `env:"NEWS_API_KEY"`
	NewsAPIBaseURL string `env:"NEWS_API_BASE_URL" envDefault:"https://newsapi.org/v2"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"json"`
	UseJSONStorage string `env:"USE_JSON_STORAGE"`
	DataDir        string `env:"DATA_DIR" envDefault:"./data"`
	DatabaseURL    string `env:"DATABASE_URL"`

	RefreshEnabled bool   `env:"REFRESH_ENABLED" envDefault:"true"`
	RefreshHour    int    `env:"REFRESH_HOUR" envDefault:"6"`
	RefreshMinute  int    `env:"REFRESH_MINUTE" envDefault:"0"`
	RefreshFrom    string `env:"REFRESH_FROM" envDefault:"2024-01-01"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// LoadConfig reads .env (when present) and the process environment
func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		logrus.Debug("No .env file loaded, using system environment variables")
	}

	return Parse()
}

// Parse builds a Config from the current environment and validates it
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// Outside production an unset secret falls back to the development placeholder
	if cfg.SessionSecret == "" && !cfg.IsProduction() {
		cfg.SessionSecret = defaultSessionSecret
	}

	backend, err := cfg.resolveStorageBackend()
	if err != nil {
		return nil, err
	}
	cfg.StorageBackend = backend

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveStorageBackend applies the legacy USE_JSON_STORAGE switch over STORAGE_BACKEND
func (c *Config) resolveStorageBackend() (string, error) {
	if c.UseJSONStorage != "" {
		useJSON, err := strconv.ParseBool(c.UseJSONStorage)
		if err != nil {
			return "", fmt.Errorf("invalid USE_JSON_STORAGE value %q", c.UseJSONStorage)
		}
		if useJSON {
			return StorageBackendJSON, nil
		}
		return StorageBackendPostgres, nil
	}
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)), nil
}

// Validate rejects configurations the server cannot start with and warns about degraded ones
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageBackendJSON:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the json storage backend")
		}
	case StorageBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (expected %q or %q)", c.StorageBackend, StorageBackendJSON, StorageBackendPostgres)
	}

	if c.RefreshHour < 0 || c.RefreshHour > 23 || c.RefreshMinute < 0 || c.RefreshMinute > 59 {
		return fmt.Errorf("invalid refresh time %02d:%02d", c.RefreshHour, c.RefreshMinute)
	}
	if _, err := time.Parse("2006-01-02", c.RefreshFrom); err != nil {
		return fmt.Errorf("invalid REFRESH_FROM %q: %w", c.RefreshFrom, err)
	}

	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive")
	}

	if c.IsProduction() && (c.SessionSecret == "" || c.SessionSecret == defaultSessionSecret) {
		return fmt.Errorf("SESSION_SECRET must be set in production")
	}

	logger := logrus.WithField("component", "Config")
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
		logger.Warn("Google OAuth credentials are not configured; sign-in will fail")
	}
	if c.FinnhubAPIKey == "" {
		logger.Warn("FINNHUB_API_KEY is not set")
	}
	if c.NewsAPIKey == "" {
		logger.Warn("NEWS_API_KEY is not set")
	}
	return nil
}

// IsProduction reports whether the server runs with production cookie settings
func (c *Config) IsProduction() bool {
	environment := c.AppEnv
	if environment == "" {
		environment = c.Environment
	}
	return strings.EqualFold(environment, "production")
}

// ListenAddress returns the address passed to fiber's Listen
func (c *Config) ListenAddress() string {
	return ":" + c.ServerPort
}
