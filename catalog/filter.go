/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package catalog

import (
	"slices"
	"strings"
)

// Filter narrows items by release year, genre and rating. Zero fields
// match everything.
type Filter struct {
	Year      int
	Genre     string
	RatingMin float64
	RatingMax float64
}

func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Matches reports whether item passes every set field. Genre matches any
// genre containing it, case-insensitively; the rating bounds are inclusive.
func (f Filter) Matches(item Item) bool {
	if f.Year != 0 && item.Year != f.Year {
		return false
	}

	if f.Genre != "" {
		genre := strings.ToLower(f.Genre)
		if !slices.ContainsFunc(item.Genre, func(g string) bool {
			return strings.Contains(strings.ToLower(g), genre)
		}) {
			return false
		}
	}

	if f.RatingMin != 0 && item.Rating < f.RatingMin {
		return false
	}

	if f.RatingMax != 0 && item.Rating > f.RatingMax {
		return false
	}

	return true
}

// Where returns the results that pass f. Every category stays present.
func (r Results) Where(f Filter) Results {
	out := make(Results, len(r))
	for category, items := range r {
		kept := []Item{}
		for _, item := range items {
			if f.Matches(item) {
				kept = append(kept, item)
			}
		}
		out[category] = kept
	}

	return out
}

// Browse returns every item passing f, grouped by category.
func (c *Catalog) Browse(f Filter) Results {
	c.mu.RLock()
	defer c.mu.RUnlock()

	results := make(Results, len(Categories))
	for _, category := range Categories {
		results[category] = c.items[category]
	}

	return results.Where(f)
}
