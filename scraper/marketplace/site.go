package marketplace

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/crokau/szcraper/models"
)

// Profile is a static extraction strategy for one target site: how to build
// search URLs and which selector chains to try, in order, for each field.
// The orchestration core is site-agnostic; everything site-shaped lives here.
type Profile struct {
	Name     string
	BaseURL  string
	HomePath string
	Category string
	PageSize int

	// cardsScript extracts the summary cards from a rendered results page
	// as a JSON array of {url,title,price,location,image}.
	cardsScript string

	// Pagination affordances.
	NextSelectors  []string
	CountSelectors []string

	// Elements whose presence marks an anti-bot challenge page.
	ChallengeMarkers []string

	// Detail-page selector fallback chains, applied over parsed HTML.
	DetailTitle       []string
	DetailPrice       []string
	DetailDescription []string
	DetailSeller      []string
	DetailPosted      []string
	DetailAttrGroups  string
	DetailImages      []string
}

// CraigslistProfile returns the default target-site profile. The selector
// chains cover both the static search markup and the newer gallery markup,
// which the site serves interchangeably.
func CraigslistProfile(baseURL, category string) Profile {
	return Profile{
		Name:     "craigslist",
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HomePath: "/",
		Category: category,
		PageSize: 120,

		cardsScript: craigslistCardsJS,

		NextSelectors: []string{
			"a.cl-next-page:not(.bd-disabled)",
			"a.button.next:not(.disabled)",
			"link[rel=\"next\"]",
		},
		CountSelectors: []string{
			".cl-page-number",
			".totalcount",
		},
		ChallengeMarkers: []string{
			"#challenge-form",
			"#cf-wrapper",
			"#challenge-running",
		},

		DetailTitle: []string{
			"#titletextonly",
			".postingtitletext #titletextonly",
			"h1 .postingtitletext",
			"h1",
		},
		DetailPrice: []string{
			".postingtitletext .price",
			"span.price",
		},
		DetailDescription: []string{
			"#postingbody",
			"section#postingbody",
			".posting-body",
		},
		DetailSeller: []string{
			".postinginfos .postinginfo a",
			".contact-name",
		},
		DetailPosted: []string{
			".postinginfos time.date.timeago",
			"time.date.timeago",
			"time",
		},
		DetailAttrGroups: ".attrgroup span",
		DetailImages: []string{
			".gallery .slide img",
			"#thumbs a",
			".iw img",
		},
	}
}

// SearchURL builds the results URL for one query variant and page number.
// A location routes to the site's regional subdomain; pages beyond the first
// use the site's result-offset parameter.
func (p Profile) SearchURL(req models.SearchRequest, variant string, page int) string {
	root := p.BaseURL
	if req.Location != "" {
		root = "https://" + sanitizeSubdomain(req.Location) + ".craigslist.org"
	}

	category := req.Category
	if category == "" {
		category = p.Category
	}

	u := fmt.Sprintf("%s/search/%s?query=%s", root, category, url.QueryEscape(variant))
	if page > 1 {
		u += fmt.Sprintf("&s=%d", (page-1)*p.PageSize)
	}
	return u
}

// HomeURL is the landing surface the session bootstrapper visits first.
func (p Profile) HomeURL(req models.SearchRequest) string {
	if req.Location != "" {
		return "https://" + sanitizeSubdomain(req.Location) + ".craigslist.org" + p.HomePath
	}
	return p.BaseURL + p.HomePath
}

func sanitizeSubdomain(location string) string {
	loc := strings.ToLower(strings.TrimSpace(location))
	loc = strings.ReplaceAll(loc, " ", "")
	return loc
}

// craigslistCardsJS pulls summary cards out of the rendered results page.
// It tries the structured card containers first and falls back to bare
// posting links, mirroring how the markup drifts between site versions.
const craigslistCardsJS = `
(function() {
	var results = [];
	var seen = {};

	var cardSelectors = [
		'li.cl-static-search-result',
		'div.cl-search-result',
		'li.result-row'
	];

	var cards = [];
	for (var si = 0; si < cardSelectors.length; si++) {
		cards = document.querySelectorAll(cardSelectors[si]);
		if (cards.length > 0) break;
	}

	var textOf = function(el, selectors) {
		for (var i = 0; i < selectors.length; i++) {
			var m = el.querySelector(selectors[i]);
			if (m && m.textContent && m.textContent.trim()) return m.textContent.trim();
		}
		return '';
	};

	if (cards.length === 0) {
		// Fallback: bare posting links anywhere on the page.
		var links = document.querySelectorAll('a[href*="/d/"], a.result-title');
		for (var li = 0; li < links.length; li++) {
			var href = links[li].href;
			if (!href || seen[href]) continue;
			seen[href] = true;
			results.push({
				url: href,
				title: (links[li].textContent || '').trim(),
				price: '',
				location: '',
				image: ''
			});
		}
		return results;
	}

	for (var i = 0; i < cards.length; i++) {
		var card = cards[i];
		var linkEl = card.querySelector('a[href*="/d/"]') ||
		             card.querySelector('a.cl-app-anchor') ||
		             card.querySelector('a.result-title') ||
		             card.querySelector('a');
		var href = linkEl ? linkEl.href : '';
		if (!href || seen[href]) continue;
		seen[href] = true;

		var imgEl = card.querySelector('img');

		results.push({
			url: href,
			title: textOf(card, ['.title', '.label', 'a.result-title', '.titlestring']),
			price: textOf(card, ['.price', '.priceinfo', 'span.result-price']),
			location: textOf(card, ['.location', '.meta .separator ~ *', '.result-hood', '.supertitle']),
			image: imgEl ? (imgEl.getAttribute('src') || '') : ''
		});
	}

	return results;
})()
`
