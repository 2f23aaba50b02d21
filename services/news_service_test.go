package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fenilmodi00/ipo-dashboard/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNewsService(t *testing.T, handler http.HandlerFunc) *NewsService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := shared.NewNewsAPIServiceConfig("news-key")
	config.BaseURL = server.URL
	config.RequestsPerSecond = 0
	return NewNewsService(config, nil, nil)
}

const newsFixture = `{"status":"ok","totalResults":4,"articles":[
	{"source":{"id":null,"name":"Reuters"},"author":"Jane Doe","title":"Acme files for IPO","description":"<p>Acme <b>Corp</b> filed</p>","url":"https://news.example/acme","urlToImage":"","publishedAt":"2025-01-02T10:00:00Z","content":"Body text"},
	{"source":{"id":null,"name":"[Removed]"},"author":null,"title":"[Removed]","description":"[Removed]","url":"https://removed.com","urlToImage":null,"publishedAt":"2025-01-02T09:00:00Z","content":"[Removed]"},
	{"source":{"id":"wsj","name":"WSJ"},"author":null,"title":"","description":null,"url":"https://news.example/blank","urlToImage":null,"publishedAt":"2025-01-02T08:00:00Z","content":null},
	{"source":{"id":"wsj","name":"WSJ"},"author":null,"title":"Markets rally","description":null,"url":"https://news.example/rally","urlToImage":null,"publishedAt":"2025-01-02T07:00:00+02:00","content":null}
]}`

func TestGetMarketNewsNormalizesArticles(t *testing.T) {
	service := newTestNewsService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/everything", r.URL.Path)
		assert.Equal(t, DefaultMarketNewsQuery, r.URL.Query().Get("q"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		assert.Equal(t, "publishedAt", r.URL.Query().Get("sortBy"))
		assert.Equal(t, "10", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "news-key", r.Header.Get("X-Api-Key"))
		_, _ = w.Write([]byte(newsFixture))
	})

	articles := service.GetMarketNews(context.Background(), "  ", 0)
	require.Len(t, articles, 2)

	first := articles[0]
	assert.Equal(t, "Acme files for IPO", first.Title)
	require.NotNil(t, first.Description)
	assert.Equal(t, "Acme Corp filed", *first.Description)
	assert.Nil(t, first.URLToImage)
	require.NotNil(t, first.Author)
	assert.Equal(t, "Reuters", first.Source.Name)

	assert.Equal(t, "Markets rally", articles[1].Title)
	assert.Equal(t, "2025-01-02T05:00:00Z", articles[1].PublishedAt)
}

func TestGetMarketNewsClampsLimit(t *testing.T) {
	service := newTestNewsService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "SpaceX IPO", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":0,"articles":[]}`))
	})

	articles := service.GetMarketNews(context.Background(), "SpaceX IPO", 500)
	assert.NotNil(t, articles)
	assert.Empty(t, articles)
}

func TestGetBusinessHeadlines(t *testing.T) {
	service := newTestNewsService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/top-headlines", r.URL.Path)
		assert.Equal(t, "business", r.URL.Query().Get("category"))
		assert.Equal(t, "us", r.URL.Query().Get("country"))
		assert.Equal(t, "3", r.URL.Query().Get("pageSize"))
		_, _ = w.Write([]byte(newsFixture))
	})

	articles := service.GetBusinessHeadlines(context.Background(), 3)
	assert.Len(t, articles, 2)
}

func TestGetCompanySpecificNews(t *testing.T) {
	service := newTestNewsService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Acme Corp", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("pageSize"))
		_, _ = w.Write([]byte(newsFixture))
	})
	ctx := context.Background()

	assert.Len(t, service.GetCompanySpecificNews(ctx, "Acme Corp", 0), 2)
	assert.Empty(t, service.GetCompanySpecificNews(ctx, "", 5))
}

func TestNewsFailuresDegradeToEmptyList(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"http error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`))
		},
		"error status": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited","message":"Too many requests"}`))
		},
		"malformed": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			service := newTestNewsService(t, handler)
			ctx := context.Background()

			market := service.GetMarketNews(ctx, "", 10)
			assert.NotNil(t, market)
			assert.Empty(t, market)

			headlines := service.GetBusinessHeadlines(ctx, 10)
			assert.NotNil(t, headlines)
			assert.Empty(t, headlines)
		})
	}
}
