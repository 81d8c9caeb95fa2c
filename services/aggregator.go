package services

import (
	"strings"

	"github.com/crokau/szcraper/models"
)

// MergeListings merges per-variant listing groups into one deduplicated
// slice, keyed by exact URL, preserving first-seen order. Tracking query
// parameters are NOT normalized: two URLs differing only by a tracking
// parameter count as distinct listings. The merge is idempotent — running it
// again over its own output yields the same set in the same order.
func MergeListings(groups ...[]models.Listing) []models.Listing {
	seen := make(map[string]struct{})
	var merged []models.Listing

	for _, group := range groups {
		for _, l := range group {
			l.URL = strings.TrimSpace(l.URL)
			l.Title = strings.TrimSpace(l.Title)
			if l.URL == "" {
				continue
			}
			if _, dup := seen[l.URL]; dup {
				continue
			}
			seen[l.URL] = struct{}{}
			merged = append(merged, l)
		}
	}

	return merged
}
