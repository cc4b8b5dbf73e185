// Package search filters the property catalog.
package search

import (
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/havenrise/internal/property"
)

// Any is the form value meaning "no constraint".
const Any = "Any"

// Criteria holds the active filter bounds.
// Pointer fields distinguish "not set" from zero values.
type Criteria struct {
	Type        string     // exact match, "" for any
	MinPrice    *int64     // inclusive
	MaxPrice    *int64     // inclusive
	MinBedrooms *int       // inclusive
	MaxBedrooms *int       // inclusive
	AddedAfter  *time.Time // inclusive, day granularity
	AddedBefore *time.Time // inclusive, day granularity
	Postcode    string     // postcode prefix or location substring
	SearchTerm  string     // substring of type
}

// Form holds the raw values of the search form as the UI sends them.
type Form struct {
	Type        string `json:"type"`
	MinPrice    string `json:"minPrice"`
	MaxPrice    string `json:"maxPrice"`
	MinBedrooms string `json:"minBedrooms"`
	MaxBedrooms string `json:"maxBedrooms"`
	DateFrom    string `json:"dateFrom"`
	DateTo      string `json:"dateTo"`
	Postcode    string `json:"postcode"`
	SearchTerm  string `json:"searchTerm"`
}

// DefaultForm returns the form in its reset state.
func DefaultForm() Form {
	return Form{
		Type:        Any,
		MinPrice:    Any,
		MaxPrice:    Any,
		MinBedrooms: Any,
		MaxBedrooms: Any,
	}
}

// ParseForm converts raw form values to criteria. Values that cannot be
// parsed impose no constraint.
func ParseForm(f Form) Criteria {
	c := Criteria{
		Postcode:   strings.TrimSpace(f.Postcode),
		SearchTerm: strings.TrimSpace(f.SearchTerm),
	}
	if !isAny(f.Type) {
		c.Type = f.Type
	}

	c.MinPrice = parsePrice(f.MinPrice, true)
	c.MaxPrice = parsePrice(f.MaxPrice, false)
	c.MinBedrooms = parseBedrooms(f.MinBedrooms)
	c.MaxBedrooms = parseBedrooms(f.MaxBedrooms)
	c.AddedAfter = parseDate(f.DateFrom)
	c.AddedBefore = parseDate(f.DateTo)
	return c
}

// IsZero reports whether no predicate is active.
func (c Criteria) IsZero() bool {
	return c.Type == "" &&
		c.MinPrice == nil && c.MaxPrice == nil &&
		c.MinBedrooms == nil && c.MaxBedrooms == nil &&
		c.AddedAfter == nil && c.AddedBefore == nil &&
		strings.TrimSpace(c.Postcode) == "" &&
		strings.TrimSpace(c.SearchTerm) == ""
}

func isAny(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, Any)
}

// parsePrice reads "£400,000" or "£1,000,000+". A trailing "+" on a minimum
// keeps the value; on a maximum it removes the bound.
func parsePrice(s string, isMin bool) *int64 {
	if isAny(s) {
		return nil
	}
	s = strings.NewReplacer("£", "", ",", "", " ", "").Replace(s)
	if strings.HasSuffix(s, "+") {
		if !isMin {
			return nil
		}
		s = strings.TrimSuffix(s, "+")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// parseBedrooms reads "3" or "5+".
func parseBedrooms(s string) *int {
	if isAny(s) {
		return nil
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "+")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(property.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
