package handlers

import (
	"strconv"
	"strings"

	"github.com/fenilmodi00/ipo-dashboard/services"
	"github.com/gofiber/fiber/v2"
)

type NewsHandler struct {
	News NewsProvider
}

func NewNewsHandler(news NewsProvider) *NewsHandler {
	return &NewsHandler{News: news}
}

// GetMarketNews searches IPO and market news; query is optional
func (h *NewsHandler) GetMarketNews(c *fiber.Ctx) error {
	limit, ok := parseLimit(c.Query("limit"))
	if !ok {
		return respondMessage(c, fiber.StatusBadRequest, MsgInvalidLimit)
	}
	return respondList(c, h.News.GetMarketNews(c.Context(), c.Query("query"), limit))
}

func (h *NewsHandler) GetHeadlines(c *fiber.Ctx) error {
	limit, ok := parseLimit(c.Query("limit"))
	if !ok {
		return respondMessage(c, fiber.StatusBadRequest, MsgInvalidLimit)
	}
	return respondList(c, h.News.GetBusinessHeadlines(c.Context(), limit))
}

// parseLimit defaults an absent limit; anything but a positive integer is rejected
func parseLimit(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return services.DefaultNewsLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, false
	}
	return limit, true
}
