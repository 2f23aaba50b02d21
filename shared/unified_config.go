package shared

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultFinnhubBaseURL = "https://finnhub.io/api/v1"
	DefaultNewsAPIBaseURL = "https://newsapi.org/v2"
)

// UnifiedConfiguration holds the tuning parameters for upstream providers and the database pool
type UnifiedConfiguration struct {
	Finnhub  ServiceConfig  `json:"finnhub"`
	NewsAPI  ServiceConfig  `json:"news_api"`
	Database DatabaseConfig `json:"database"`
}

// ServiceConfig holds configuration for one upstream HTTP provider
type ServiceConfig struct {
	ServiceName        string        `json:"service_name"`
	BaseURL            string        `json:"base_url"`
	APIKey             string        `json:"-"`
	HTTPRequestTimeout time.Duration `json:"http_timeout"`
	RequestsPerSecond  float64       `json:"requests_per_second"`
	RequestBurst       int           `json:"request_burst"`
	MaxRetryAttempts   int           `json:"max_retries"`
	RetryBackoff       time.Duration `json:"retry_backoff"`
	UserAgent          string        `json:"user_agent"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	PingTimeout     time.Duration `json:"ping_timeout"`
}

// NewDefaultUnifiedConfiguration returns production-ready default configuration
func NewDefaultUnifiedConfiguration() *UnifiedConfiguration {
	return &UnifiedConfiguration{
		Finnhub: NewFinnhubServiceConfig(""),
		NewsAPI: NewNewsAPIServiceConfig(""),
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			PingTimeout:     5 * time.Second,
		},
	}
}

// NewFinnhubServiceConfig returns Finnhub-specific service configuration.
// Request paths never retry so a call costs at most one upstream round trip.
func NewFinnhubServiceConfig(apiKey string) ServiceConfig {
	return ServiceConfig{
		ServiceName:        "finnhub",
		BaseURL:            DefaultFinnhubBaseURL,
		APIKey:             apiKey,
		HTTPRequestTimeout: 10 * time.Second,
		RequestsPerSecond:  30, // Finnhub caps all plans at 30 calls/second
		RequestBurst:       10,
		MaxRetryAttempts:   0,
		RetryBackoff:       time.Second,
		UserAgent:          "ipo-dashboard/1.0",
	}
}

// NewNewsAPIServiceConfig returns NewsAPI-specific service configuration
func NewNewsAPIServiceConfig(apiKey string) ServiceConfig {
	return ServiceConfig{
		ServiceName:        "newsapi",
		BaseURL:            DefaultNewsAPIBaseURL,
		APIKey:             apiKey,
		HTTPRequestTimeout: 10 * time.Second,
		RequestsPerSecond:  5,
		RequestBurst:       5,
		MaxRetryAttempts:   0,
		RetryBackoff:       time.Second,
		UserAgent:          "ipo-dashboard/1.0",
	}
}

// WithRetries returns a copy configured for background callers that can afford retries
func (c ServiceConfig) WithRetries(attempts int) ServiceConfig {
	c.MaxRetryAttempts = attempts
	return c
}

// RetryPolicy derives the retry policy for ExecuteHTTPRequestWithRetry
func (c ServiceConfig) RetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetryAttempts: c.MaxRetryAttempts, BaseBackoff: c.RetryBackoff}
}

// ValidateAndApplyDefaults validates configuration and applies defaults for invalid values
func (c *ServiceConfig) ValidateAndApplyDefaults(defaultBaseURL string) {
	logger := logrus.WithFields(logrus.Fields{
		"component":    "ServiceConfig",
		"service_name": c.ServiceName,
	})

	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
		logger.Debug("Applied default BaseURL")
	}

	if c.HTTPRequestTimeout <= 0 {
		c.HTTPRequestTimeout = 10 * time.Second
		logger.Debug("Applied default HTTPRequestTimeout")
	}

	if c.RequestBurst <= 0 {
		c.RequestBurst = 1
		logger.Debug("Applied default RequestBurst")
	}

	if c.MaxRetryAttempts < 0 {
		c.MaxRetryAttempts = 0
		logger.Debug("Applied default MaxRetryAttempts")
	}

	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
		logger.Debug("Applied default RetryBackoff")
	}

	if c.UserAgent == "" {
		c.UserAgent = "ipo-dashboard/1.0"
	}

	if c.APIKey == "" {
		logger.Warn("No API key configured; upstream calls will be rejected by the provider")
	}
}

// ValidateAndApplyDefaults validates the database pool settings
func (c *DatabaseConfig) ValidateAndApplyDefaults() {
	logger := logrus.WithField("component", "DatabaseConfig")

	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
		logger.Debug("Applied default Database.MaxOpenConns")
	}

	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
		logger.Debug("Applied default Database.MaxIdleConns")
	}

	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 5 * time.Minute
		logger.Debug("Applied default Database.ConnMaxLifetime")
	}

	if c.PingTimeout <= 0 {
		c.PingTimeout = 5 * time.Second
		logger.Debug("Applied default Database.PingTimeout")
	}
}
