package shared

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteHTTPRequestWithRetryRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	factory := NewHTTPClientFactory(time.Second)
	request, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	response, err := ExecuteHTTPRequestWithRetry(context.Background(), factory.CreateOptimizedHTTPClient(0), request,
		RetryPolicy{MaxRetryAttempts: 2, BaseBackoff: time.Millisecond})
	require.NoError(t, err)
	defer response.Body.Close()

	body, _ := io.ReadAll(response.Body)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestExecuteHTTPRequestWithRetryStopsOnClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer server.Close()

	request, err := http.NewRequest(http.MethodGet, server.URL+"?token=secret", nil)
	require.NoError(t, err)

	_, err = ExecuteHTTPRequestWithRetry(context.Background(), http.DefaultClient, request,
		RetryPolicy{MaxRetryAttempts: 3, BaseBackoff: time.Millisecond})
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "invalid token")
	assert.Equal(t, int32(1), calls.Load())
}

func TestExecuteHTTPRequestWithRetrySingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	request, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = ExecuteHTTPRequestWithRetry(context.Background(), http.DefaultClient, request, RetryPolicy{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExecuteHTTPRequestWithRetryHonoursCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	request, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	started := time.Now()
	_, err = ExecuteHTTPRequestWithRetry(ctx, http.DefaultClient, request,
		RetryPolicy{MaxRetryAttempts: 5, BaseBackoff: time.Second})
	require.Error(t, err)
	assert.Less(t, time.Since(started), time.Second)
}

func TestRedactURLHidesTokens(t *testing.T) {
	request, err := http.NewRequest(http.MethodGet, "https://finnhub.io/api/v1/calendar/ipo?from=2024-01-01&token=abc", nil)
	require.NoError(t, err)

	redacted := redactURL(request.URL)
	assert.NotContains(t, redacted, "abc")
	assert.Contains(t, redacted, "from=2024-01-01")
}

func TestCreateOptimizedHTTPClientIsCachedPerTimeout(t *testing.T) {
	factory := NewHTTPClientFactory(5 * time.Second)

	first := factory.CreateOptimizedHTTPClient(0)
	second := factory.CreateOptimizedHTTPClient(5 * time.Second)
	other := factory.CreateOptimizedHTTPClient(time.Second)

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	factory.CleanupAllClients()
}
