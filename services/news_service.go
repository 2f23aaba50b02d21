package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/fenilmodi00/ipo-dashboard/shared"
	"github.com/sirupsen/logrus"
)

const (
	newsServiceName = "NewsService"

	DefaultMarketNewsQuery  = `IPO OR "initial public offering" OR stock market`
	DefaultNewsLimit        = 10
	DefaultCompanyNewsLimit = 5

	removedArticleMarker = "[Removed]"
)

// NewsService fetches market news from NewsAPI. Every failure degrades to an empty list.
type NewsService struct {
	client         *upstreamClient
	UtilityService *UtilityService
}

type newsAPIArticle struct {
	Source struct {
		ID   *string `json:"id"`
		Name string  `json:"name"`
	} `json:"source"`
	Author      *string `json:"author"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	URLToImage  *string `json:"urlToImage"`
	PublishedAt string  `json:"publishedAt"`
	Content     *string `json:"content"`
}

type newsAPIResponse struct {
	Status       string           `json:"status"`
	Code         string           `json:"code"`
	Message      string           `json:"message"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

func NewNewsService(config shared.ServiceConfig, factory *shared.HTTPClientFactory, metrics *shared.ServiceMetrics) *NewsService {
	return &NewsService{
		client:         newUpstreamClient(config, shared.DefaultNewsAPIBaseURL, "X-Api-Key", factory, metrics, newsServiceName),
		UtilityService: NewUtilityService(),
	}
}

// GetMarketNews searches recent English articles; an empty query uses the IPO/market default
func (s *NewsService) GetMarketNews(ctx context.Context, query string, limit int) []models.NewsArticle {
	query = strings.TrimSpace(query)
	if query == "" {
		query = DefaultMarketNewsQuery
	}
	return s.fetch(ctx, "market_news", "/everything", url.Values{
		"q":        {query},
		"language": {"en"},
		"sortBy":   {"publishedAt"},
		"pageSize": {strconv.Itoa(s.UtilityService.ClampLimit(limit, DefaultNewsLimit))},
	})
}

// GetBusinessHeadlines returns top US business headlines
func (s *NewsService) GetBusinessHeadlines(ctx context.Context, limit int) []models.NewsArticle {
	return s.fetch(ctx, "business_headlines", "/top-headlines", url.Values{
		"category": {"business"},
		"country":  {"us"},
		"pageSize": {strconv.Itoa(s.UtilityService.ClampLimit(limit, DefaultNewsLimit))},
	})
}

// GetCompanySpecificNews searches articles mentioning the company name
func (s *NewsService) GetCompanySpecificNews(ctx context.Context, companyName string, limit int) []models.NewsArticle {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return make([]models.NewsArticle, 0)
	}
	return s.fetch(ctx, "company_news", "/everything", url.Values{
		"q":        {companyName},
		"language": {"en"},
		"sortBy":   {"publishedAt"},
		"pageSize": {strconv.Itoa(s.UtilityService.ClampLimit(limit, DefaultCompanyNewsLimit))},
	})
}

func (s *NewsService) fetch(ctx context.Context, operation, path string, query url.Values) []models.NewsArticle {
	articles := make([]models.NewsArticle, 0)

	body, err := s.client.get(ctx, operation, path, query)
	if err != nil {
		return articles
	}

	var payload newsAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		s.logFailure(operation, fmt.Errorf("malformed response: %w", err))
		return articles
	}
	if payload.Status != "ok" {
		s.logFailure(operation, fmt.Errorf("provider status %q (%s): %s", payload.Status, payload.Code, payload.Message))
		return articles
	}

	for _, raw := range payload.Articles {
		if article, ok := s.normalizeArticle(raw); ok {
			articles = append(articles, article)
		}
	}
	return articles
}

// normalizeArticle drops removed or unusable entries and reduces HTML to text
func (s *NewsService) normalizeArticle(raw newsAPIArticle) (models.NewsArticle, bool) {
	title := s.UtilityService.NormalizeTextContent(raw.Title)
	articleURL := strings.TrimSpace(raw.URL)
	if title == "" || title == removedArticleMarker || articleURL == "" {
		return models.NewsArticle{}, false
	}

	article := models.NewsArticle{
		Source: models.NewsSource{
			ID:   raw.Source.ID,
			Name: s.UtilityService.NormalizeTextContent(raw.Source.Name),
		},
		Author:      s.normalizeOptional(raw.Author, false),
		Title:       title,
		Description: s.normalizeOptional(raw.Description, true),
		URL:         articleURL,
		URLToImage:  s.normalizeOptional(raw.URLToImage, false),
		PublishedAt: s.UtilityService.NormalizeTimestamp(raw.PublishedAt),
		Content:     s.normalizeOptional(raw.Content, true),
	}
	return article, true
}

func (s *NewsService) normalizeOptional(value *string, stripHTML bool) *string {
	if value == nil {
		return nil
	}
	text := *value
	if stripHTML {
		text = s.UtilityService.StripHTML(text)
	}
	return s.UtilityService.NormalizeString(text)
}

func (s *NewsService) logFailure(operation string, err error) {
	logrus.WithFields(logrus.Fields{
		"component": newsServiceName,
		"operation": operation,
		"error":     err.Error(),
	}).Warn("News provider returned an unusable response")
}
