package services

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/crokau/szcraper/models"
	"github.com/crokau/szcraper/utils"
)

var priceRegexp = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)

// InsightService computes a post-run summary over a scrape report.
type InsightService struct {
	logger *utils.Logger
}

// NewInsightService creates an InsightService with the given logger.
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// InsightReport holds the computed analytics over one scrape run.
type InsightReport struct {
	TotalListings      int
	WithPrice          int
	WithDetailError    int
	AveragePrice       float64
	MinPrice           float64
	MaxPrice           float64
	MostExpensive      *models.Listing
	ListingsByLocation map[string]int
	ListingsByQuery    map[string]int
	ErrorsByQuery      map[string]int
}

// Generate computes insights over the report's deduplicated listings.
func (s *InsightService) Generate(report *models.ScrapeReport) *InsightReport {
	r := &InsightReport{
		ListingsByLocation: make(map[string]int),
		ListingsByQuery:    make(map[string]int),
		ErrorsByQuery:      make(map[string]int),
	}
	if report == nil {
		return r
	}

	r.TotalListings = len(report.Listings)

	for i := range report.Listings {
		l := &report.Listings[i]

		if l.Location != "" {
			r.ListingsByLocation[l.Location]++
		}
		if l.SourceQuery != "" {
			r.ListingsByQuery[l.SourceQuery]++
		}
		if l.DetailError != "" {
			r.WithDetailError++
		}

		price, ok := ParsePrice(l.Price)
		if !ok {
			continue
		}
		if r.WithPrice == 0 || price < r.MinPrice {
			r.MinPrice = price
		}
		if r.WithPrice == 0 || price > r.MaxPrice {
			r.MaxPrice = price
			r.MostExpensive = l
		}
		r.AveragePrice += price
		r.WithPrice++
	}

	if r.WithPrice > 0 {
		r.AveragePrice = round2(r.AveragePrice / float64(r.WithPrice))
		r.MinPrice = round2(r.MinPrice)
		r.MaxPrice = round2(r.MaxPrice)
	}

	for _, e := range report.Errors {
		r.ErrorsByQuery[e.Query]++
	}

	return r
}

// ParsePrice extracts a numeric price from a raw display string like
// "$1,250" or "€99.50". A string with no digits reports ok=false.
func ParsePrice(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// Print renders the terminal summary.
func (s *InsightService) Print(r *InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  SCRAPE INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Unique listings        : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Printf("  Listings with a price  : \033[1m%d\033[0m\n", r.WithPrice)
	if r.WithDetailError > 0 {
		fmt.Printf("  Detail-scrape failures : \033[1m%d\033[0m\n", r.WithDetailError)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Price Statistics\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.WithPrice > 0 {
		fmt.Printf("  Average price : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
		fmt.Printf("  Minimum price : \033[1;32m$%.2f\033[0m\n", r.MinPrice)
		fmt.Printf("  Maximum price : \033[1;32m$%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	if r.MostExpensive != nil {
		fmt.Printf("\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.MostExpensive.Title, 50))
		fmt.Printf("  Location : %s\n", r.MostExpensive.Location)
		fmt.Printf("  Price    : \033[1;31m%s\033[0m\n", r.MostExpensive.Price)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Listings by Query Variant\033[0m\n")
	fmt.Printf("  %s\n", thin)
	printCounts(r.ListingsByQuery)
	fmt.Println()

	fmt.Printf("\033[1;33m  Listings by Location\033[0m\n")
	fmt.Printf("  %s\n", thin)
	printCounts(r.ListingsByLocation)

	if len(r.ErrorsByQuery) > 0 {
		fmt.Println()
		fmt.Printf("\033[1;33m  Errors by Query Variant\033[0m\n")
		fmt.Printf("  %s\n", thin)
		printCounts(r.ErrorsByQuery)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func printCounts(m map[string]int) {
	if len(m) == 0 {
		fmt.Printf("  No data\n")
		return
	}

	type kv struct {
		key   string
		count int
	}
	var entries []kv
	for k, c := range m {
		entries = append(entries, kv{k, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count == entries[j].count {
			return entries[i].key < entries[j].key
		}
		return entries[i].count > entries[j].count
	})
	for _, e := range entries {
		bar := strings.Repeat("█", min(e.count, 40))
		fmt.Printf("  %-30s %s (%d)\n", truncate(e.key, 28), bar, e.count)
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
