package shared

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPClientFactory creates optimized HTTP clients with standardized configuration
type HTTPClientFactory struct {
	defaultTimeout time.Duration
	mutex          sync.RWMutex
	clients        map[string]*http.Client
}

// NewHTTPClientFactory creates a new HTTP client factory
func NewHTTPClientFactory(defaultTimeout time.Duration) *HTTPClientFactory {
	return &HTTPClientFactory{
		defaultTimeout: defaultTimeout,
		clients:        make(map[string]*http.Client),
	}
}

// CreateOptimizedHTTPClient creates an HTTP client with connection pooling and optimized settings
func (f *HTTPClientFactory) CreateOptimizedHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = f.defaultTimeout
	}

	// Create client key for caching
	clientKey := fmt.Sprintf("timeout_%d", timeout.Milliseconds())

	f.mutex.RLock()
	if client, exists := f.clients[clientKey]; exists {
		f.mutex.RUnlock()
		return client
	}
	f.mutex.RUnlock()

	// Create new optimized client
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			// Connection pool configuration for efficient resource utilization
			MaxIdleConns:        100,              // Maximum idle connections across all hosts
			MaxIdleConnsPerHost: 10,               // Maximum idle connections per host
			IdleConnTimeout:     90 * time.Second, // Duration to keep idle connections alive

			// Enable connection reuse for better performance
			DisableKeepAlives: false,

			// Timeout configurations for robust error handling
			TLSHandshakeTimeout:   10 * time.Second, // Maximum time for TLS handshake
			ResponseHeaderTimeout: 10 * time.Second, // Maximum time to wait for response headers
			ExpectContinueTimeout: 1 * time.Second,  // Maximum time to wait for 100-continue response

			// Enable compression to reduce bandwidth usage
			DisableCompression: false,
		},
	}

	// Cache the client
	f.mutex.Lock()
	f.clients[clientKey] = client
	f.mutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"component":  "HTTPClientFactory",
		"timeout":    timeout,
		"client_key": clientKey,
	}).Debug("Created new optimized HTTP client")

	return client
}

// SetJSONHeaders configures request headers for a JSON API call
func SetJSONHeaders(request *http.Request, userAgent string) {
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", userAgent)
}

// HTTPStatusError is returned when an upstream answers with a non-2xx status
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether a later attempt could succeed
func (e *HTTPStatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// RetryPolicy controls ExecuteHTTPRequestWithRetry. MaxRetryAttempts of zero means a single attempt.
type RetryPolicy struct {
	MaxRetryAttempts int
	BaseBackoff      time.Duration
}

// ExecuteHTTPRequestWithRetry executes HTTP requests with exponential backoff retry logic.
// Only network errors, 429 and 5xx are retried. The returned response always has a 2xx status.
func ExecuteHTTPRequestWithRetry(ctx context.Context, client *http.Client, request *http.Request, policy RetryPolicy) (*http.Response, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "HTTPClientFactory",
		"method":    "ExecuteHTTPRequestWithRetry",
		"url":       redactURL(request.URL),
	})

	if policy.BaseBackoff <= 0 {
		policy.BaseBackoff = time.Second
	}

	var lastExecutionError error

	for attemptNumber := 0; attemptNumber <= policy.MaxRetryAttempts; attemptNumber++ {
		if attemptNumber > 0 {
			// Exponential backoff with a small jitter
			baseBackoffDuration := policy.BaseBackoff * time.Duration(1<<uint(attemptNumber-1))
			jitterDuration := time.Duration(float64(baseBackoffDuration) * 0.1 * (0.5 + 0.5*float64(attemptNumber%3)/2))
			totalBackoffDuration := baseBackoffDuration + jitterDuration

			logger.WithFields(logrus.Fields{
				"attempt":          attemptNumber + 1,
				"backoff_duration": totalBackoffDuration,
			}).Debug("Retrying HTTP request after backoff")

			timer := time.NewTimer(totalBackoffDuration)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("HTTP request cancelled during backoff: %w", ctx.Err())
			case <-timer.C:
			}
		}

		httpResponse, err := client.Do(request.Clone(ctx))
		if err != nil {
			lastExecutionError = fmt.Errorf("attempt %d failed with network error: %w", attemptNumber+1, err)
			logger.WithError(lastExecutionError).Debug("HTTP request failed with network error")
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if httpResponse.StatusCode >= 200 && httpResponse.StatusCode < 300 {
			logger.WithFields(logrus.Fields{
				"attempt":     attemptNumber + 1,
				"status_code": httpResponse.StatusCode,
			}).Debug("HTTP request successful")
			return httpResponse, nil
		}

		body, _ := io.ReadAll(io.LimitReader(httpResponse.Body, 512))
		httpResponse.Body.Close()
		statusErr := &HTTPStatusError{StatusCode: httpResponse.StatusCode, Body: strings.TrimSpace(string(body))}
		lastExecutionError = fmt.Errorf("attempt %d failed: %w", attemptNumber+1, statusErr)

		logger.WithFields(logrus.Fields{
			"attempt":     attemptNumber + 1,
			"status_code": httpResponse.StatusCode,
		}).Debug("HTTP request failed with non-2xx status")

		if !statusErr.Retryable() {
			return nil, statusErr
		}
	}

	totalAttempts := policy.MaxRetryAttempts + 1
	logger.WithFields(logrus.Fields{
		"total_attempts": totalAttempts,
		"final_error":    lastExecutionError,
	}).Debug("HTTP request failed after all retry attempts")

	return nil, fmt.Errorf("HTTP request failed after %d attempts: %w", totalAttempts, lastExecutionError)
}

// redactURL drops credentials that some providers accept as query parameters
func redactURL(u *url.URL) string {
	redacted := *u
	query := redacted.Query()
	for _, key := range []string{"token", "apiKey", "apikey"} {
		if query.Has(key) {
			query.Set(key, "REDACTED")
		}
	}
	redacted.RawQuery = query.Encode()
	return redacted.String()
}

// CleanupHTTPClient properly closes and cleans up HTTP client resources
func (f *HTTPClientFactory) CleanupHTTPClient(client *http.Client) {
	if client != nil && client.Transport != nil {
		if transport, ok := client.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}
}

// CleanupAllClients cleans up all cached HTTP clients
func (f *HTTPClientFactory) CleanupAllClients() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for key, client := range f.clients {
		f.CleanupHTTPClient(client)
		delete(f.clients, key)
	}

	logrus.WithField("component", "HTTPClientFactory").Debug("Cleaned up all cached HTTP clients")
}
