package search

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/evcraddock/havenrise/internal/property"
)

// Evaluate returns the properties matching every active criterion, in
// catalog order. The result is never nil.
func Evaluate(catalog []property.Property, c Criteria) []property.Property {
	out := make([]property.Property, 0, len(catalog))
	if c.IsZero() {
		return append(out, catalog...)
	}

	// A Caser holds state and is not safe for concurrent use.
	fold := cases.Fold()
	postcode := fold.String(strings.TrimSpace(c.Postcode))
	term := fold.String(strings.TrimSpace(c.SearchTerm))

	for _, p := range catalog {
		if c.Type != "" && p.Type != c.Type {
			continue
		}
		if !inRange(p.Price, c.MinPrice, c.MaxPrice) {
			continue
		}
		if !inRange(p.Bedrooms, c.MinBedrooms, c.MaxBedrooms) {
			continue
		}
		if postcode != "" &&
			!strings.HasPrefix(fold.String(p.Postcode), postcode) &&
			!strings.Contains(fold.String(p.Location), postcode) {
			continue
		}
		if term != "" && !strings.Contains(fold.String(p.Type), term) {
			continue
		}
		if !inWindow(p, c.AddedAfter, c.AddedBefore) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Search parses the form and evaluates it against the catalog.
func Search(catalog []property.Property, f Form) []property.Property {
	return Evaluate(catalog, ParseForm(f))
}

func inRange[T int | int64](v T, lo, hi *T) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

func inWindow(p property.Property, after, before *time.Time) bool {
	if after == nil && before == nil {
		return true
	}
	added, ok := p.AddedOn()
	if !ok {
		return false
	}
	if after != nil && added.Before(day(*after)) {
		return false
	}
	if before != nil && added.After(day(*before)) {
		return false
	}
	return true
}

// day truncates t to midnight UTC of its calendar date.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
