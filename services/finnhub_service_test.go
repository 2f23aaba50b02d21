package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fenilmodi00/ipo-dashboard/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFinnhubService(t *testing.T, handler http.HandlerFunc) (*FinnhubService, *prometheus.Registry) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := shared.NewFinnhubServiceConfig("test-token")
	config.BaseURL = server.URL
	config.RequestsPerSecond = 0
	registry := prometheus.NewRegistry()
	return NewFinnhubService(config, nil, shared.NewServiceMetrics(registry)), registry
}

func TestGetIPOCalendarNormalizesListings(t *testing.T) {
	service, _ := newTestFinnhubService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendar/ipo", r.URL.Path)
		assert.Equal(t, "2025-01-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2025-03-31", r.URL.Query().Get("to"))
		assert.Equal(t, "test-token", r.Header.Get("X-Finnhub-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ipoCalendar":[
			{"date":"2025-02-03","exchange":"NASDAQ","name":"Acme  Corp","numberOfShares":5000000,"price":"15.00-17.00","status":"expected","symbol":"ABCD","totalSharesValue":85000000},
			{"date":"2025-02-10","exchange":"NYSE","name":"Beta Inc","numberOfShares":null,"price":"12","status":"priced","symbol":"BETA","currency":"EUR"},
			{"date":"2025-02-11","exchange":"NYSE","name":"Gamma","price":null,"status":"filed","symbol":""}
		]}`))
	})

	listings, err := service.GetIPOCalendar(context.Background(), "2025-01-01", "2025-03-31")
	require.NoError(t, err)
	require.Len(t, listings, 3)

	acme := listings[0]
	assert.Equal(t, "ABCD", acme.Symbol)
	assert.Equal(t, "Acme Corp", acme.Name)
	assert.Equal(t, "2025-02-03", acme.IPODate)
	assert.Equal(t, "USD", acme.Currency)
	require.NotNil(t, acme.PriceRangeLow)
	require.NotNil(t, acme.PriceRangeHigh)
	assert.Equal(t, 15.0, *acme.PriceRangeLow)
	assert.Equal(t, 17.0, *acme.PriceRangeHigh)
	require.NotNil(t, acme.Shares)
	assert.Equal(t, int64(5000000), *acme.Shares)
	require.NotNil(t, acme.TotalSharesValue)

	beta := listings[1]
	assert.Equal(t, "EUR", beta.Currency)
	assert.Nil(t, beta.Shares)
	require.NotNil(t, beta.PriceRangeLow)
	assert.Equal(t, *beta.PriceRangeLow, *beta.PriceRangeHigh)

	gamma := listings[2]
	assert.Nil(t, gamma.PriceRangeLow)
	assert.Nil(t, gamma.PriceRangeHigh)
}

func TestGetIPOCalendarEmptyCalendar(t *testing.T) {
	service, _ := newTestFinnhubService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ipoCalendar":null}`))
	})

	listings, err := service.GetIPOCalendar(context.Background(), "2025-01-01", "2025-01-02")
	require.NoError(t, err)
	assert.NotNil(t, listings)
	assert.Empty(t, listings)
}

func TestGetIPOCalendarReportsUpstreamFailure(t *testing.T) {
	service, registry := newTestFinnhubService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Invalid API key"}`, http.StatusUnauthorized)
	})

	listings, err := service.GetIPOCalendar(context.Background(), "2025-01-01", "2025-01-02")
	require.Error(t, err)
	assert.Nil(t, listings)

	serviceErr, ok := shared.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, shared.ErrorCategoryUpstream, serviceErr.Category)
	assert.Equal(t, "Failed to fetch IPO data from Finnhub", serviceErr.Message)
	assert.Equal(t, http.StatusInternalServerError, serviceErr.HTTPStatus())
	assert.Contains(t, serviceErr.CauseMessage(), "401")

	expected := `
		# HELP ipodash_upstream_requests_total Requests sent to upstream data providers.
		# TYPE ipodash_upstream_requests_total counter
		ipodash_upstream_requests_total{operation="ipo_calendar",outcome="failure",provider="finnhub"} 1
	`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "ipodash_upstream_requests_total"))
}

func TestGetIPOCalendarRejectsMalformedBody(t *testing.T) {
	service, _ := newTestFinnhubService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := service.GetIPOCalendar(context.Background(), "2025-01-01", "2025-01-02")
	require.Error(t, err)
	assert.Equal(t, shared.ErrorCategoryUpstream, shared.CategoryOf(err))
}

func TestRequestPathMakesSingleAttempt(t *testing.T) {
	var calls int32
	service, _ := newTestFinnhubService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := service.GetIPOCalendar(context.Background(), "2025-01-01", "2025-01-02")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetCompanyProfile(t *testing.T) {
	service, _ := newTestFinnhubService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/profile2", r.URL.Path)
		switch r.URL.Query().Get("symbol") {
		case "ABCD":
			_, _ = w.Write([]byte(`{"name":"Acme Corp","ticker":"ABCD","exchange":"NASDAQ","marketCapitalization":"1234.5","shareOutstanding":12.5,"weburl":"https://acme.example"}`))
		case "NONE":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	ctx := context.Background()

	profile := service.GetCompanyProfile(ctx, "ABCD")
	require.NotNil(t, profile)
	assert.Equal(t, "ABCD", profile.Symbol)
	assert.Equal(t, "Acme Corp", profile.Name)
	require.NotNil(t, profile.MarketCapitalization)
	assert.Equal(t, 1234.5, float64(*profile.MarketCapitalization))

	assert.Nil(t, service.GetCompanyProfile(ctx, "NONE"))
	assert.Nil(t, service.GetCompanyProfile(ctx, "FAIL"))
}

func TestGetCompanyNewsPassesItemsThrough(t *testing.T) {
	service, _ := newTestFinnhubService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/company-news", r.URL.Path)
		assert.Equal(t, "2025-01-01", r.URL.Query().Get("from"))
		if r.URL.Query().Get("symbol") == "FAIL" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[{"headline":"Acme prices IPO","id":7,"related":"ABCD"}]`))
	})
	ctx := context.Background()

	items := service.GetCompanyNews(ctx, "ABCD", "2025-01-01", "2025-01-31")
	require.Len(t, items, 1)
	assert.JSONEq(t, `{"headline":"Acme prices IPO","id":7,"related":"ABCD"}`, string(items[0]))

	failed := service.GetCompanyNews(ctx, "FAIL", "2025-01-01", "2025-01-31")
	assert.NotNil(t, failed)
	assert.Empty(t, failed)
}
