// Package client is a typed Go client for the IPO dashboard API, including the
// favorites cache a UI keeps between requests.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/fenilmodi00/ipo-dashboard/shared"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-success envelope returned by the API
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Count   *int            `json:"count"`
}

// Client talks to the API. The session cookie lives in the client's cookie jar.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client; a cookie jar is added when it has none
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: "ipo-dashboard-client/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}
	return c, nil
}

// CurrentUser returns the signed-in user; an unauthenticated session yields an APIError with status 401
func (c *Client) CurrentUser(ctx context.Context) (*models.SessionUser, error) {
	var user models.SessionUser
	if _, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
	return err
}

func (c *Client) ListFavorites(ctx context.Context) ([]models.Favorite, error) {
	favorites := make([]models.Favorite, 0)
	if _, err := c.do(ctx, http.MethodGet, "/api/favorites", nil, nil, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

func (c *Client) AddFavorite(ctx context.Context, input models.FavoriteInput) (*models.Favorite, error) {
	var favorite models.Favorite
	if _, err := c.do(ctx, http.MethodPost, "/api/favorites", nil, input, &favorite); err != nil {
		return nil, err
	}
	return &favorite, nil
}

func (c *Client) RemoveFavorite(ctx context.Context, symbol string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/favorites/"+url.PathEscape(symbol), nil, nil, nil)
	return err
}

func (c *Client) IPOCalendar(ctx context.Context, from, to string) ([]models.IPOListing, error) {
	listings := make([]models.IPOListing, 0)
	query := url.Values{"from": {from}, "to": {to}}
	if _, err := c.do(ctx, http.MethodGet, "/api/ipos", query, nil, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// CompanyProfile returns nil, nil when the API has no profile for symbol
func (c *Client) CompanyProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	var profile models.CompanyProfile
	if _, err := c.do(ctx, http.MethodGet, "/api/ipos/company/"+url.PathEscape(symbol), nil, nil, &profile); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (c *Client) MarketNews(ctx context.Context, query string, limit int) ([]models.NewsArticle, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	articles := make([]models.NewsArticle, 0)
	if _, err := c.do(ctx, http.MethodGet, "/api/news/market", params, nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (c *Client) Headlines(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	articles := make([]models.NewsArticle, 0)
	if _, err := c.do(ctx, http.MethodGet, "/api/news/headlines", params, nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// do sends a request and decodes the envelope's data into out
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) (*envelope, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	shared.SetJSONHeaders(request, c.userAgent)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &APIError{StatusCode: response.StatusCode, Message: "malformed response", Detail: err.Error()}
	}
	if !env.Success || response.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{StatusCode: response.StatusCode, Message: env.Message, Detail: env.Error}
	}

	if out != nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode %s %s data: %w", method, path, err)
		}
	}
	return &env, nil
}
