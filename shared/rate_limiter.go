package shared

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// HTTPRequestRateLimiter is a token bucket shared by all requests to one upstream provider
type HTTPRequestRateLimiter struct {
	limiter      *rate.Limiter
	serviceName  string
	requestCount atomic.Int64
}

// NewHTTPRequestRateLimiter allows requestsPerSecond sustained with the given burst.
// A non-positive rate disables limiting.
func NewHTTPRequestRateLimiter(serviceName string, requestsPerSecond float64, burst int) *HTTPRequestRateLimiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &HTTPRequestRateLimiter{
		limiter:     rate.NewLimiter(limit, burst),
		serviceName: serviceName,
	}
}

// Wait blocks until a request may proceed or ctx is done.
func (limiter *HTTPRequestRateLimiter) Wait(ctx context.Context) error {
	startTime := time.Now()
	if err := limiter.limiter.Wait(ctx); err != nil {
		return err
	}
	count := limiter.requestCount.Add(1)

	if waited := time.Since(startTime); waited > time.Millisecond {
		logrus.WithFields(logrus.Fields{
			"component":     "HTTPRequestRateLimiter",
			"service_name":  limiter.serviceName,
			"waited":        waited,
			"request_count": count,
		}).Debug("Enforced rate limit delay")
	}
	return nil
}

// GetRequestCount returns the total number of requests admitted
func (limiter *HTTPRequestRateLimiter) GetRequestCount() int64 {
	return limiter.requestCount.Load()
}
