package shared

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterCountsAdmittedRequests(t *testing.T) {
	limiter := NewHTTPRequestRateLimiter("test", 0, 0)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
	assert.Equal(t, int64(5), limiter.GetRequestCount())
}

func TestRateLimiterWaitHonoursCancellation(t *testing.T) {
	limiter := NewHTTPRequestRateLimiter("test", 0.001, 1)
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, limiter.Wait(ctx))
	assert.Equal(t, int64(1), limiter.GetRequestCount())
}
