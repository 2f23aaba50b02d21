package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

const (
	calendarDateLayout = "2006-01-02"
	maxPageSize        = 100
)

var (
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	currencyRegex     = regexp.MustCompile(`[$,]`)
	validNumericRegex = regexp.MustCompile(`^[\d.]+$`)
	numberRegex       = regexp.MustCompile(`\d+\.?\d*`)
)

// UtilityService provides text processing and normalization shared by the gateways
type UtilityService struct{}

// NewUtilityService creates a new utility service instance
func NewUtilityService() *UtilityService {
	return &UtilityService{}
}

// NormalizeTextContent trims and collapses whitespace
func (s *UtilityService) NormalizeTextContent(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// StripHTML reduces an HTML fragment to its normalized text content.
// Plain text passes through unchanged apart from whitespace normalization.
func (s *UtilityService) StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return s.NormalizeTextContent(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "UtilityService",
			"error":     err,
		}).Debug("Failed to parse HTML fragment, keeping raw text")
		return s.NormalizeTextContent(fragment)
	}
	return s.NormalizeTextContent(doc.Text())
}

// ParseNumericValueAsFloat parses numbers such as "1,234.50" or "$15"
func (s *UtilityService) ParseNumericValueAsFloat(numericText string) *float64 {
	if numericText == "" {
		return nil
	}

	cleanedText := strings.TrimSpace(currencyRegex.ReplaceAllString(s.NormalizeTextContent(numericText), ""))
	if !validNumericRegex.MatchString(cleanedText) {
		return nil
	}

	numberMatch := numberRegex.FindString(cleanedText)
	if numberMatch == "" {
		return nil
	}

	if parsedValue, parseError := strconv.ParseFloat(numberMatch, 64); parseError == nil {
		return &parsedValue
	}
	return nil
}

// ParsePriceBand parses price text like "15.00-17.00", "$15 - $17" or "12.00" into low and high.
// A single price yields low == high; unparseable text yields nil, nil.
func (s *UtilityService) ParsePriceBand(priceBandText string) (*float64, *float64) {
	cleanText := s.NormalizeTextContent(priceBandText)
	if cleanText == "" {
		return nil, nil
	}

	for _, separator := range []string{" - ", "-", " to ", "~"} {
		if !strings.Contains(cleanText, separator) {
			continue
		}
		parts := strings.SplitN(cleanText, separator, 2)
		low := s.ParseNumericValueAsFloat(strings.TrimSpace(parts[0]))
		high := s.ParseNumericValueAsFloat(strings.TrimSpace(parts[1]))
		if low != nil && high != nil {
			return low, high
		}
	}

	if price := s.ParseNumericValueAsFloat(cleanText); price != nil {
		high := *price
		return price, &high
	}
	return nil, nil
}

// NormalizeString normalizes empty strings to nil
func (s *UtilityService) NormalizeString(str string) *string {
	str = strings.TrimSpace(str)
	if str == "" {
		return nil
	}
	return &str
}

// NormalizeTimestamp rewrites parseable timestamps as RFC 3339 in UTC and keeps anything else as-is
func (s *UtilityService) NormalizeTimestamp(value string) string {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", calendarDateLayout} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC().Format(time.RFC3339)
		}
	}
	return value
}

// ClampLimit bounds a page size to [1, 100], substituting fallback for non-positive values
func (s *UtilityService) ClampLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	if limit < 1 {
		return 1
	}
	return limit
}
