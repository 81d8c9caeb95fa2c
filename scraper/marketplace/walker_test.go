package marketplace

import (
	"errors"
	"fmt"
	"testing"

	"github.com/crokau/szcraper/config"
	"github.com/crokau/szcraper/models"
	"github.com/crokau/szcraper/utils"
)

func testWalker(req models.SearchRequest) *Walker {
	return &Walker{
		cfg:    &config.Config{},
		logger: utils.NewLogger(),
		req:    req,
		seen:   utils.NewURLSet(),
	}
}

func pageOf(variant string, page, n int) []models.Listing {
	listings := make([]models.Listing, n)
	for i := range listings {
		listings[i] = models.Listing{
			URL:         fmt.Sprintf("https://example.org/d/%s-%d-%d", variant, page, i),
			Title:       fmt.Sprintf("item %d", i),
			SourceQuery: variant,
		}
	}
	return listings
}

func TestWalkRespectsMaxPages(t *testing.T) {
	w := testWalker(models.SearchRequest{Query: "lamp", MaxPages: 2})

	fetches := 0
	w.fetchPage = func(variant string, page int) ([]models.Listing, models.PaginationState, error) {
		fetches++
		return pageOf(variant, page, 3), models.PaginationState{CurrentPage: page, HasNext: true}, nil
	}

	listings, errs, pages := w.Walk("lamp")

	if fetches != 2 {
		t.Errorf("fetches: got %d, want 2", fetches)
	}
	if pages != 2 {
		t.Errorf("pagesScraped: got %d, want 2", pages)
	}
	if len(listings) != 6 {
		t.Errorf("listings: got %d, want 6", len(listings))
	}
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestWalkStopsWhenNoNextPage(t *testing.T) {
	w := testWalker(models.SearchRequest{Query: "lamp", MaxPages: 5})

	fetches := 0
	w.fetchPage = func(variant string, page int) ([]models.Listing, models.PaginationState, error) {
		fetches++
		return pageOf(variant, page, 2), models.PaginationState{CurrentPage: page, HasNext: false}, nil
	}

	listings, _, pages := w.Walk("lamp")

	if fetches != 1 {
		t.Errorf("fetches: got %d, want 1", fetches)
	}
	if pages != 1 {
		t.Errorf("pagesScraped: got %d, want 1", pages)
	}
	if len(listings) != 2 {
		t.Errorf("listings: got %d, want 2", len(listings))
	}
}

func TestWalkStopsAtSiteTotalPages(t *testing.T) {
	w := testWalker(models.SearchRequest{Query: "lamp", MaxPages: 9})

	fetches := 0
	w.fetchPage = func(variant string, page int) ([]models.Listing, models.PaginationState, error) {
		fetches++
		return pageOf(variant, page, 1), models.PaginationState{CurrentPage: page, HasNext: true, TotalPages: 2}, nil
	}

	_, _, pages := w.Walk("lamp")
	if fetches != 2 || pages != 2 {
		t.Errorf("got %d fetches / %d pages, want 2 / 2", fetches, pages)
	}
}

func TestWalkKeepsEarlierPagesOnFailure(t *testing.T) {
	w := testWalker(models.SearchRequest{Query: "lamp", MaxPages: 5})

	w.fetchPage = func(variant string, page int) ([]models.Listing, models.PaginationState, error) {
		if page == 2 {
			return nil, models.PaginationState{}, errors.New("fetch page 2 failed after 3 attempts: blocked: http 403")
		}
		return pageOf(variant, page, 4), models.PaginationState{CurrentPage: page, HasNext: true}, nil
	}

	listings, errs, pages := w.Walk("lamp")

	if len(listings) != 4 {
		t.Errorf("page-1 listings must survive a page-2 failure, got %d", len(listings))
	}
	if pages != 1 {
		t.Errorf("pagesScraped: got %d, want 1", pages)
	}
	if len(errs) != 1 {
		t.Fatalf("errors: got %d, want exactly 1", len(errs))
	}
	if errs[0].Page != 2 || errs[0].Query != "lamp" {
		t.Errorf("error should name page 2 and the variant, got %+v", errs[0])
	}
}

func TestWalkDropsStickyPostsRepeatedAcrossPages(t *testing.T) {
	w := testWalker(models.SearchRequest{Query: "lamp", MaxPages: 2})

	sticky := models.Listing{URL: "https://example.org/d/sticky", Title: "featured"}
	w.fetchPage = func(variant string, page int) ([]models.Listing, models.PaginationState, error) {
		listings := append(pageOf(variant, page, 2), sticky)
		return listings, models.PaginationState{CurrentPage: page, HasNext: true}, nil
	}

	listings, _, _ := w.Walk("lamp")

	if len(listings) != 5 {
		t.Fatalf("repeated sticky post should be collected once, got %d listings", len(listings))
	}
	stickies := 0
	for _, l := range listings {
		if l.URL == sticky.URL {
			stickies++
		}
	}
	if stickies != 1 {
		t.Errorf("sticky post collected %d times", stickies)
	}
}

func TestWalkCoercesMaxPagesBelowOne(t *testing.T) {
	w := testWalker(models.SearchRequest{Query: "lamp", MaxPages: 0})

	fetches := 0
	w.fetchPage = func(variant string, page int) ([]models.Listing, models.PaginationState, error) {
		fetches++
		return nil, models.PaginationState{HasNext: true}, nil
	}

	w.Walk("lamp")
	if fetches != 1 {
		t.Errorf("fetches: got %d, want 1", fetches)
	}
}

func TestWalkDetailFailureMarksListingOnly(t *testing.T) {
	w := testWalker(models.SearchRequest{Query: "lamp", MaxPages: 1, Details: true})

	w.fetchPage = func(variant string, page int) ([]models.Listing, models.PaginationState, error) {
		return pageOf(variant, page, 3), models.PaginationState{CurrentPage: page}, nil
	}
	w.fetchDetail = func(listingURL string) (detailData, error) {
		if listingURL == "https://example.org/d/lamp-1-1" {
			return detailData{}, errors.New("challenged: title \"just a moment\"")
		}
		return detailData{Description: "detail for " + listingURL}, nil
	}

	listings, errs, _ := w.Walk("lamp")

	if len(listings) != 3 {
		t.Fatalf("a detail failure must not drop the listing, got %d of 3", len(listings))
	}
	if len(errs) != 0 {
		t.Errorf("a detail failure must not abort the walk, got %v", errs)
	}
	if listings[1].DetailError == "" {
		t.Error("failed listing should carry DetailError")
	}
	if listings[0].DetailError != "" || listings[2].DetailError != "" {
		t.Error("healthy listings must not carry DetailError")
	}
	if listings[0].Description == "" || listings[2].Description == "" {
		t.Error("healthy listings should be enriched with detail fields")
	}
}

func TestHasMorePages(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		maxPages int
		state    models.PaginationState
		want     bool
	}{
		{"next and room", 1, 3, models.PaginationState{HasNext: true}, true},
		{"no next", 1, 3, models.PaginationState{HasNext: false}, false},
		{"cap reached", 3, 3, models.PaginationState{HasNext: true}, false},
		{"site total reached", 2, 9, models.PaginationState{HasNext: true, TotalPages: 2}, false},
		{"site total unknown", 2, 9, models.PaginationState{HasNext: true, TotalPages: 0}, true},
	}
	for _, tt := range tests {
		if got := hasMorePages(tt.page, tt.maxPages, tt.state); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseTotalCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1 - 120 of 3,456", 3456},
		{"3,456", 3456},
		{"of 42", 42},
		{"", 0},
		{"no results", 0},
	}
	for _, tt := range tests {
		if got := parseTotalCount(tt.in); got != tt.want {
			t.Errorf("parseTotalCount(%q): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMergeDetailKeepsSummaryFallbacks(t *testing.T) {
	l := models.Listing{
		URL:   "https://example.org/d/1",
		Title: "summary title",
		Price: "$25",
	}

	mergeDetail(&l, detailData{
		Description: "long description",
		Images:      []string{"https://img/1.jpg", "https://img/2.jpg"},
	})

	if l.Title != "summary title" {
		t.Errorf("empty detail title must not clobber summary, got %q", l.Title)
	}
	if l.Price != "$25" {
		t.Errorf("empty detail price must not clobber summary, got %q", l.Price)
	}
	if l.Description != "long description" {
		t.Errorf("description: got %q", l.Description)
	}
	if l.Image != "https://img/1.jpg" {
		t.Errorf("summary image should backfill from detail gallery, got %q", l.Image)
	}

	mergeDetail(&l, detailData{Title: "detail title", Price: "$30"})
	if l.Title != "detail title" || l.Price != "$30" {
		t.Errorf("detail fields should win when present, got %q / %q", l.Title, l.Price)
	}
}

func TestCardsToListings(t *testing.T) {
	cards := []searchCard{
		{URL: "https://example.org/d/1", Title: "one", Price: "$5"},
		{URL: "", Title: "no link"},
		{URL: "https://example.org/d/2", Title: "two"},
	}

	listings := cardsToListings(cards, "lamp")
	if len(listings) != 2 {
		t.Fatalf("cards without a URL must be dropped, got %d listings", len(listings))
	}
	for _, l := range listings {
		if l.SourceQuery != "lamp" {
			t.Errorf("listing should carry its source variant, got %q", l.SourceQuery)
		}
		if l.ScrapedAt.IsZero() {
			t.Error("ScrapedAt should be stamped")
		}
	}
}

func TestCleanBody(t *testing.T) {
	got := cleanBody("QR Code Link to This Post\n\n  Solid  oak desk.\n Great shape. ")
	if got != "Solid oak desk. Great shape." {
		t.Errorf("cleanBody: got %q", got)
	}
}
