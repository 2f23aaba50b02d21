package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Favorite is a company a user saved to their list.
type Favorite struct {
	ID            string       `json:"id"`
	UserID        string       `json:"userId"`
	CompanySymbol string       `json:"companySymbol"`
	CompanyName   string       `json:"companyName"`
	IPODate       CalendarDate `json:"ipoDate"`
	AddedAt       time.Time    `json:"addedAt"`
}

// FavoriteInput is the request body for adding a favorite.
type FavoriteInput struct {
	CompanySymbol string `json:"companySymbol"`
	CompanyName   string `json:"companyName"`
	IPODate       string `json:"ipoDate"`
}

const CalendarDateLayout = "2006-01-02"

// CalendarDate is a date without a time of day, always held at UTC midnight.
type CalendarDate struct {
	time.Time
}

func NewCalendarDate(year int, month time.Month, day int) CalendarDate {
	return CalendarDate{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseCalendarDate accepts YYYY-MM-DD or an RFC 3339 timestamp, keeping the UTC date part.
func ParseCalendarDate(value string) (CalendarDate, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(CalendarDateLayout, value); err == nil {
		return CalendarDate{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid calendar date %q", value)
	}
	t = t.UTC()
	return NewCalendarDate(t.Year(), t.Month(), t.Day()), nil
}

func (d CalendarDate) String() string {
	return d.Time.Format(CalendarDateLayout)
}

func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *CalendarDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCalendarDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date in a DATE column.
func (d CalendarDate) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *CalendarDate) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewCalendarDate(v.Year(), v.Month(), v.Day())
		return nil
	case string:
		parsed, err := ParseCalendarDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CalendarDate", src)
	}
}
