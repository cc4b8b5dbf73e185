// Package property provides the property domain model and the catalog store.
package property

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout of catalog date strings and date filter bounds.
const DateLayout = "2006-01-02"

// Property is a listing from the catalog. Values are never mutated after fetch.
type Property struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Bedrooms        int      `json:"bedrooms"`
	Price           int64    `json:"price"`
	Tenure          string   `json:"tenure,omitempty"`
	Description     string   `json:"description,omitempty"`
	LongDescription string   `json:"longDescription,omitempty"`
	Location        string   `json:"location,omitempty"`
	Postcode        string   `json:"postcode,omitempty"`
	Picture         string   `json:"picture,omitempty"`
	Images          []string `json:"images,omitempty"`
	URL             string   `json:"url,omitempty"`
	Added           Added    `json:"added"`
	Date            string   `json:"Date,omitempty"`
}

// UnmarshalJSON decodes a property, accepting whole-valued floats such as
// 750000.0 for the integer fields.
func (p *Property) UnmarshalJSON(b []byte) error {
	type plain Property
	aux := struct {
		*plain
		Price    json.Number `json:"price"`
		Bedrooms json.Number `json:"bedrooms"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	price, err := wholeNumber(aux.Price)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	bedrooms, err := wholeNumber(aux.Bedrooms)
	if err != nil {
		return fmt.Errorf("bedrooms: %w", err)
	}
	p.Price = price
	p.Bedrooms = int(bedrooms)
	return nil
}

// Added is the structured date a property was listed.
type Added struct {
	Year  int   `json:"year"`
	Month Month `json:"month"`
	Day   int   `json:"day"`
}

// UnmarshalJSON decodes the added record with the same number handling as
// Property.
func (a *Added) UnmarshalJSON(b []byte) error {
	type plain Added
	aux := struct {
		*plain
		Year json.Number `json:"year"`
		Day  json.Number `json:"day"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	year, err := wholeNumber(aux.Year)
	if err != nil {
		return fmt.Errorf("year: %w", err)
	}
	day, err := wholeNumber(aux.Day)
	if err != nil {
		return fmt.Errorf("day: %w", err)
	}
	a.Year = int(year)
	a.Day = int(day)
	return nil
}

// wholeNumber converts n to an integer. An empty number (absent or null)
// is zero; a fractional value is an error.
func wholeNumber(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", n, err)
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%s must be a whole number", n)
	}
	return int64(f), nil
}

// Date returns the added date at midnight UTC.
// Returns false if any part is missing or out of range.
func (a Added) Date() (time.Time, bool) {
	if a.Year <= 0 || a.Month < 1 || a.Month > 12 || a.Day < 1 {
		return time.Time{}, false
	}
	t := time.Date(a.Year, time.Month(a.Month), a.Day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject it.
	if t.Day() != a.Day || t.Month() != time.Month(a.Month) {
		return time.Time{}, false
	}
	return t, true
}

// Month is a calendar month. The catalog writes it either as a name
// ("October", "Oct") or as a number.
type Month int

// UnmarshalJSON accepts a month name, an abbreviated name, or a number.
// Unknown names decode to zero, which leaves the added date underivable.
func (m *Month) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil && n != "" {
		v, err := wholeNumber(n)
		if err != nil {
			return fmt.Errorf("month: %w", err)
		}
		*m = Month(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("month must be a name or a number: %w", err)
	}

	*m = parseMonth(s)
	return nil
}

// MarshalJSON writes valid months by name.
func (m Month) MarshalJSON() ([]byte, error) {
	if m < 1 || m > 12 {
		return json.Marshal(int(m))
	}
	return json.Marshal(time.Month(m).String())
}

// String returns the English month name, or "" for an unknown month.
func (m Month) String() string {
	if m < 1 || m > 12 {
		return ""
	}
	return time.Month(m).String()
}

// parseMonth matches a number or any prefix of a month name at least three
// letters long, so "Sep", "Sept" and "September" all decode.
func parseMonth(s string) Month {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return Month(n)
	}
	if len(s) < 3 {
		return 0
	}
	s = strings.ToLower(s)
	for mo := time.January; mo <= time.December; mo++ {
		if strings.HasPrefix(strings.ToLower(mo.String()), s) {
			return Month(mo)
		}
	}
	return 0
}

// AddedOn returns the comparable date the property was added.
// The Date string wins over the structured Added record.
func (p Property) AddedOn() (time.Time, bool) {
	if s := strings.TrimSpace(p.Date); s != "" {
		if t, err := time.Parse(DateLayout, s); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			y, mo, d := t.Date()
			return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return p.Added.Date()
}

// Gallery returns the images to show for the property: the images list when
// present, otherwise the single picture.
func (p Property) Gallery() []string {
	if len(p.Images) > 0 {
		out := make([]string, len(p.Images))
		copy(out, p.Images)
		return out
	}
	if p.Picture != "" {
		return []string{p.Picture}
	}
	return []string{}
}

// MapURL returns the embeddable map URL for the property's location.
func (p Property) MapURL() string {
	if strings.TrimSpace(p.Location) == "" {
		return ""
	}
	return "https://www.google.com/maps?q=" + url.QueryEscape(p.Location) + "&output=embed"
}
