package marketplace

import "github.com/crokau/szcraper/models"

// Observer receives progress events, synchronously, in event order: OnPage
// after each results page is extracted, OnListing after each detail merge.
// Implementations must be safe for concurrent use — walkers for different
// variants run in parallel.
type Observer interface {
	OnPage(variant string, page int, listings []models.Listing)
	OnListing(listing models.Listing)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) OnPage(string, int, []models.Listing) {}
func (NopObserver) OnListing(models.Listing)             {}
