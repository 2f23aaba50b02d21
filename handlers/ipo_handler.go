package handlers

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/fenilmodi00/ipo-dashboard/services"
	"github.com/gofiber/fiber/v2"
)

const companyNewsWindow = 30 * 24 * time.Hour

// IPOCalendarProvider is the IPO data gateway. Only GetIPOCalendar reports failures.
type IPOCalendarProvider interface {
	GetIPOCalendar(ctx context.Context, from, to string) ([]models.IPOListing, error)
	GetCompanyProfile(ctx context.Context, symbol string) *models.CompanyProfile
	GetCompanyNews(ctx context.Context, symbol, from, to string) []json.RawMessage
}

// NewsProvider is the news gateway; every call degrades to an empty list
type NewsProvider interface {
	GetMarketNews(ctx context.Context, query string, limit int) []models.NewsArticle
	GetBusinessHeadlines(ctx context.Context, limit int) []models.NewsArticle
	GetCompanySpecificNews(ctx context.Context, companyName string, limit int) []models.NewsArticle
}

type IPOHandler struct {
	Calendar IPOCalendarProvider
	News     NewsProvider
	Now      func() time.Time
}

func NewIPOHandler(calendar IPOCalendarProvider, news NewsProvider) *IPOHandler {
	return &IPOHandler{Calendar: calendar, News: news, Now: time.Now}
}

// GetIPOs returns the calendar between from and to
func (h *IPOHandler) GetIPOs(c *fiber.Ctx) error {
	from, fromOK := parseCalendarQuery(c.Query("from"))
	to, toOK := parseCalendarQuery(c.Query("to"))
	if !fromOK || !toOK {
		return respondMessage(c, fiber.StatusBadRequest, MsgDateRange)
	}
	if from.After(to) {
		return respondList(c, []models.IPOListing{})
	}

	listings, err := h.Calendar.GetIPOCalendar(c.Context(), from.Format(models.CalendarDateLayout), to.Format(models.CalendarDateLayout))
	if err != nil {
		return respondError(c, err, MsgIPOFetchFailed)
	}
	return respondList(c, listings)
}

// GetCompanyDetails returns the profile for :symbol
func (h *IPOHandler) GetCompanyDetails(c *fiber.Ctx) error {
	symbol := pathParam(c, "symbol")
	if symbol == "" {
		return respondMessage(c, fiber.StatusBadRequest, MsgSymbolMissing)
	}

	profile := h.Calendar.GetCompanyProfile(c.Context(), symbol)
	if profile == nil {
		return respondMessage(c, fiber.StatusNotFound, MsgCompanyNotFound)
	}
	return respondData(c, fiber.StatusOK, profile)
}

// GetCompanyNews prefers provider news by symbol and falls back to a name search
func (h *IPOHandler) GetCompanyNews(c *fiber.Ctx) error {
	symbol := strings.TrimSpace(c.Query("symbol"))
	companyName := strings.TrimSpace(c.Query("companyName"))

	if symbol != "" {
		now := h.Now().UTC()
		items := h.Calendar.GetCompanyNews(c.Context(), symbol,
			now.Add(-companyNewsWindow).Format(models.CalendarDateLayout),
			now.Format(models.CalendarDateLayout))
		return respondList(c, items)
	}
	if companyName == "" {
		return respondMessage(c, fiber.StatusBadRequest, MsgCompanyNameMissing)
	}

	return respondList(c, h.News.GetCompanySpecificNews(c.Context(), companyName, services.DefaultCompanyNewsLimit))
}

func parseCalendarQuery(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(models.CalendarDateLayout, value)
	return parsed, err == nil
}

func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return strings.TrimSpace(raw)
}
