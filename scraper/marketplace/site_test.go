package marketplace

import (
	"strings"
	"testing"

	"github.com/crokau/szcraper/models"
)

func TestSearchURLFirstPageHasNoOffset(t *testing.T) {
	p := CraigslistProfile("https://www.craigslist.org", "sss")
	req := models.SearchRequest{Query: "desk lamp"}

	got := p.SearchURL(req, "desk lamp", 1)
	want := "https://www.craigslist.org/search/sss?query=desk+lamp"
	if got != want {
		t.Errorf("page 1: got %q, want %q", got, want)
	}
}

func TestSearchURLLaterPagesUseOffset(t *testing.T) {
	p := CraigslistProfile("https://www.craigslist.org", "sss")
	req := models.SearchRequest{Query: "desk lamp"}

	got := p.SearchURL(req, "desk lamp", 3)
	if !strings.HasSuffix(got, "&s=240") {
		t.Errorf("page 3 should carry offset 240, got %q", got)
	}
}

func TestSearchURLLocationRoutesToSubdomain(t *testing.T) {
	p := CraigslistProfile("https://www.craigslist.org", "sss")
	req := models.SearchRequest{Query: "desk lamp", Location: "New York"}

	got := p.SearchURL(req, "desk lamp", 1)
	if !strings.HasPrefix(got, "https://newyork.craigslist.org/") {
		t.Errorf("location should route to regional subdomain, got %q", got)
	}
}

func TestSearchURLRequestCategoryOverridesProfile(t *testing.T) {
	p := CraigslistProfile("https://www.craigslist.org", "sss")
	req := models.SearchRequest{Query: "desk lamp", Category: "fua"}

	got := p.SearchURL(req, "desk lamp", 1)
	if !strings.Contains(got, "/search/fua?") {
		t.Errorf("request category should win, got %q", got)
	}
}

func TestHomeURL(t *testing.T) {
	p := CraigslistProfile("https://www.craigslist.org", "sss")

	if got := p.HomeURL(models.SearchRequest{}); got != "https://www.craigslist.org/" {
		t.Errorf("default home: got %q", got)
	}
	if got := p.HomeURL(models.SearchRequest{Location: "seattle"}); got != "https://seattle.craigslist.org/" {
		t.Errorf("regional home: got %q", got)
	}
}
