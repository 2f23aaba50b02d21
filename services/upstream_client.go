package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-dashboard/shared"
	"github.com/sirupsen/logrus"
)

const maxUpstreamBodyBytes = 8 << 20

// upstreamClient performs authenticated, rate-limited GET requests against one provider
type upstreamClient struct {
	config       shared.ServiceConfig
	apiKeyHeader string
	httpClient   *http.Client
	rateLimiter  *shared.HTTPRequestRateLimiter
	metrics      *shared.ServiceMetrics
	logger       *logrus.Entry
}

func newUpstreamClient(config shared.ServiceConfig, defaultBaseURL, apiKeyHeader string, factory *shared.HTTPClientFactory, metrics *shared.ServiceMetrics, component string) *upstreamClient {
	config.ValidateAndApplyDefaults(defaultBaseURL)
	if factory == nil {
		factory = shared.NewHTTPClientFactory(config.HTTPRequestTimeout)
	}

	return &upstreamClient{
		config:       config,
		apiKeyHeader: apiKeyHeader,
		httpClient:   factory.CreateOptimizedHTTPClient(config.HTTPRequestTimeout),
		rateLimiter:  shared.NewHTTPRequestRateLimiter(config.ServiceName, config.RequestsPerSecond, config.RequestBurst),
		metrics:      metrics,
		logger: logrus.WithFields(logrus.Fields{
			"component": component,
			"provider":  config.ServiceName,
		}),
	}
}

// get returns the body of a 2xx response
func (c *upstreamClient) get(ctx context.Context, operation, path string, query url.Values) ([]byte, error) {
	startTime := time.Now()
	body, err := c.doGet(ctx, path, query)
	c.metrics.RecordUpstreamRequest(c.config.ServiceName, operation, err == nil, time.Since(startTime))

	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"operation": operation,
			"error":     err.Error(),
		}).Warn("Upstream request failed")
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"operation":  operation,
		"bytes":      len(body),
		"elapsed_ms": time.Since(startTime).Milliseconds(),
	}).Debug("Upstream request succeeded")
	return body, nil
}

func (c *upstreamClient) doGet(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := strings.TrimSuffix(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	shared.SetJSONHeaders(request, c.config.UserAgent)
	if c.config.APIKey != "" {
		request.Header.Set(c.apiKeyHeader, c.config.APIKey)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	response, err := shared.ExecuteHTTPRequestWithRetry(ctx, c.httpClient, request, c.config.RetryPolicy())
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxUpstreamBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
