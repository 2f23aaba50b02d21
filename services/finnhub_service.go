package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/fenilmodi00/ipo-dashboard/shared"
	"github.com/sirupsen/logrus"
)

const finnhubServiceName = "FinnhubService"

// FinnhubService fetches IPO calendars, company profiles and company news from Finnhub.
// Only the calendar reports failures to the caller; profile and news lookups degrade to
// nil and an empty list.
type FinnhubService struct {
	client         *upstreamClient
	UtilityService *UtilityService
}

type finnhubIPOEvent struct {
	Date             string            `json:"date"`
	Exchange         string            `json:"exchange"`
	Name             string            `json:"name"`
	NumberOfShares   *models.FlexFloat `json:"numberOfShares"`
	Price            json.RawMessage   `json:"price"`
	PriceRangeLow    *models.FlexFloat `json:"priceRangeLow"`
	PriceRangeHigh   *models.FlexFloat `json:"priceRangeHigh"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	Symbol           string            `json:"symbol"`
	TotalSharesValue *models.FlexFloat `json:"totalSharesValue"`
}

type finnhubIPOCalendar struct {
	IPOCalendar []finnhubIPOEvent `json:"ipoCalendar"`
}

func NewFinnhubService(config shared.ServiceConfig, factory *shared.HTTPClientFactory, metrics *shared.ServiceMetrics) *FinnhubService {
	return &FinnhubService{
		client:         newUpstreamClient(config, shared.DefaultFinnhubBaseURL, "X-Finnhub-Token", factory, metrics, finnhubServiceName),
		UtilityService: NewUtilityService(),
	}
}

// GetIPOCalendar returns listings between from and to (YYYY-MM-DD, inclusive).
// Any upstream failure is returned as an upstream ServiceError.
func (s *FinnhubService) GetIPOCalendar(ctx context.Context, from, to string) ([]models.IPOListing, error) {
	body, err := s.client.get(ctx, "ipo_calendar", "/calendar/ipo", url.Values{"from": {from}, "to": {to}})
	if err != nil {
		return nil, shared.NewUpstreamUnavailableError("Failed to fetch IPO data from Finnhub", finnhubServiceName, "GetIPOCalendar", err)
	}

	var payload finnhubIPOCalendar
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, shared.NewUpstreamUnavailableError("Failed to fetch IPO data from Finnhub", finnhubServiceName, "GetIPOCalendar",
			fmt.Errorf("malformed calendar response: %w", err))
	}

	listings := make([]models.IPOListing, 0, len(payload.IPOCalendar))
	for _, event := range payload.IPOCalendar {
		listings = append(listings, s.normalizeIPOEvent(event))
	}

	logrus.WithFields(logrus.Fields{
		"component": finnhubServiceName,
		"from":      from,
		"to":        to,
		"count":     len(listings),
	}).Debug("Fetched IPO calendar")

	return listings, nil
}

func (s *FinnhubService) normalizeIPOEvent(event finnhubIPOEvent) models.IPOListing {
	listing := models.IPOListing{
		Symbol:   strings.TrimSpace(event.Symbol),
		Name:     s.UtilityService.NormalizeTextContent(event.Name),
		IPODate:  strings.TrimSpace(event.Date),
		Currency: strings.TrimSpace(event.Currency),
		Exchange: strings.TrimSpace(event.Exchange),
		Status:   strings.TrimSpace(event.Status),
	}
	if listing.Currency == "" {
		listing.Currency = "USD"
	}

	listing.PriceRangeLow = flexToFloat(event.PriceRangeLow)
	listing.PriceRangeHigh = flexToFloat(event.PriceRangeHigh)
	if listing.PriceRangeLow == nil && listing.PriceRangeHigh == nil {
		listing.PriceRangeLow, listing.PriceRangeHigh = s.UtilityService.ParsePriceBand(rawPriceText(event.Price))
	}

	if event.NumberOfShares != nil {
		shares := int64(*event.NumberOfShares)
		listing.Shares = &shares
	}
	listing.TotalSharesValue = flexToFloat(event.TotalSharesValue)

	return listing
}

// GetCompanyProfile returns nil when the provider has no profile or fails
func (s *FinnhubService) GetCompanyProfile(ctx context.Context, symbol string) *models.CompanyProfile {
	body, err := s.client.get(ctx, "company_profile", "/stock/profile2", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil
	}

	var profile models.CompanyProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		logrus.WithFields(logrus.Fields{
			"component": finnhubServiceName,
			"symbol":    symbol,
			"error":     err.Error(),
		}).Warn("Malformed company profile response")
		return nil
	}
	if profile.Name == "" && profile.Ticker == "" {
		return nil
	}

	profile.Symbol = profile.Ticker
	if profile.Symbol == "" {
		profile.Symbol = symbol
	}
	return &profile
}

// GetCompanyNews passes the provider's news items through untouched; failures yield an empty list
func (s *FinnhubService) GetCompanyNews(ctx context.Context, symbol, from, to string) []json.RawMessage {
	empty := make([]json.RawMessage, 0)

	body, err := s.client.get(ctx, "company_news", "/company-news", url.Values{
		"symbol": {symbol},
		"from":   {from},
		"to":     {to},
	})
	if err != nil {
		return empty
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		logrus.WithFields(logrus.Fields{
			"component": finnhubServiceName,
			"symbol":    symbol,
			"error":     err.Error(),
		}).Warn("Company news response is not a list")
		return empty
	}
	if items == nil {
		return empty
	}
	return items
}

func flexToFloat(value *models.FlexFloat) *float64 {
	if value == nil {
		return nil
	}
	f := float64(*value)
	return &f
}

// rawPriceText accepts the price as either a JSON string or a number
func rawPriceText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}
