package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// IPOListing is one entry of the upstream IPO calendar after normalization.
type IPOListing struct {
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	IPODate          string   `json:"ipoDate"`
	PriceRangeLow    *float64 `json:"priceRangeLow,omitempty"`
	PriceRangeHigh   *float64 `json:"priceRangeHigh,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	Exchange         string   `json:"exchange,omitempty"`
	Status           string   `json:"status,omitempty"`
	Shares           *int64   `json:"shares,omitempty"`
	TotalSharesValue *float64 `json:"totalSharesValue,omitempty"`
}

// CompanyProfile is the normalized company profile returned by the IPO data provider.
type CompanyProfile struct {
	Symbol               string     `json:"symbol"`
	Name                 string     `json:"name"`
	Country              string     `json:"country,omitempty"`
	Currency             string     `json:"currency,omitempty"`
	Exchange             string     `json:"exchange,omitempty"`
	IPO                  string     `json:"ipo,omitempty"`
	MarketCapitalization *FlexFloat `json:"marketCapitalization,omitempty"`
	Phone                string     `json:"phone,omitempty"`
	ShareOutstanding     *FlexFloat `json:"shareOutstanding,omitempty"`
	Ticker               string     `json:"ticker,omitempty"`
	WebURL               string     `json:"weburl,omitempty"`
	Logo                 string     `json:"logo,omitempty"`
	FinnhubIndustry      string     `json:"finnhubIndustry,omitempty"`
}

// FlexFloat decodes numbers that a provider sometimes sends as strings.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}
