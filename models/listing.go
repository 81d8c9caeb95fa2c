package models

import "time"

// SearchRequest describes one scrape run. It is immutable once the run starts.
type SearchRequest struct {
	Query    string `json:"query"`
	Location string `json:"location,omitempty"`
	Category string `json:"category,omitempty"`
	MaxPages int    `json:"max_pages"`
	Details  bool   `json:"details,omitempty"`
}

// Listing is one marketplace item record. A summary-scrape creates it and a
// later detail-scrape mutates it in place, keyed by URL.
type Listing struct {
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Price       string            `json:"price"`
	Location    string            `json:"location"`
	Image       string            `json:"image,omitempty"`
	Description string            `json:"description,omitempty"`
	Seller      string            `json:"seller,omitempty"`
	PostedDate  string            `json:"posted_date,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Images      []string          `json:"images,omitempty"`
	SourceQuery string            `json:"source_query"`
	ScrapedAt   time.Time         `json:"scraped_at"`

	// DetailError records a failed detail-page visit for this listing.
	// The summary record is kept either way.
	DetailError string `json:"detail_error,omitempty"`
}

// ScrapeError is a captured per-page or per-variant failure. Errors travel
// as data in the report, not as raised conditions.
type ScrapeError struct {
	Page  int    `json:"page,omitempty"`
	Query string `json:"query,omitempty"`
	Error string `json:"error"`
}

// PaginationState is recomputed from the site's own pagination affordance on
// every page load and never persisted.
type PaginationState struct {
	CurrentPage int
	TotalPages  int
	HasNext     bool
}

// PageSignals carries the observable evidence from a loaded page that the
// blocking detector classifies.
type PageSignals struct {
	Status             int
	Title              string
	Body               string
	HasChallengeMarker bool
}

// ScrapeReport is the terminal artifact of one run. Listings are
// deduplicated by URL; errors are concatenated across pages and variants.
type ScrapeReport struct {
	Query           string        `json:"query"`
	ExpandedQueries []string      `json:"expanded_queries,omitempty"`
	Listings        []Listing     `json:"listings"`
	Errors          []ScrapeError `json:"errors"`
	PagesScraped    int           `json:"pages_scraped"`
	TotalFound      int           `json:"total_found"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
}
