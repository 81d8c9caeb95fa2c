package marketplace

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/crokau/szcraper/config"
	"github.com/crokau/szcraper/models"
	"github.com/crokau/szcraper/scraper/browser"
	"github.com/crokau/szcraper/utils"
)

// Walker pages sequentially through one query variant's results. Page n+1 is
// never fetched before page n's listings are extracted and its pagination
// state evaluated. The walker exclusively owns one browser session for its
// lifetime and releases it on every exit path.
type Walker struct {
	cfg      *config.Config
	profile  Profile
	launcher *browser.Launcher
	retrier  *utils.Retrier
	logger   *utils.Logger
	observer Observer

	req          models.SearchRequest
	sessionProxy string
	session      *browser.Session
	seen         *utils.URLSet

	// Seams for the walk loop; the live implementations drive the browser.
	fetchPage   func(variant string, page int) ([]models.Listing, models.PaginationState, error)
	fetchDetail func(listingURL string) (detailData, error)
}

// detailData is what a detail-page visit adds to a summary listing.
type detailData struct {
	Title       string
	Price       string
	Description string
	Seller      string
	Posted      string
	Attributes  map[string]string
	Images      []string
}

func newWalker(cfg *config.Config, profile Profile, launcher *browser.Launcher,
	retrier *utils.Retrier, logger *utils.Logger, observer Observer,
	req models.SearchRequest, sessionProxy string) *Walker {

	w := &Walker{
		cfg:          cfg,
		profile:      profile,
		launcher:     launcher,
		retrier:      retrier,
		logger:       logger,
		observer:     observer,
		req:          req,
		sessionProxy: sessionProxy,
		seen:         utils.NewURLSet(),
	}
	w.fetchPage = w.fetchPageLive
	w.fetchDetail = w.fetchDetailLive
	return w
}

// Walk drives pages 1..maxPages for one variant. A page that still fails
// after retry exhaustion terminates the walk at that page — pages already
// collected are kept, and exactly one error is recorded for the failed page.
func (w *Walker) Walk(variant string) ([]models.Listing, []models.ScrapeError, int) {
	defer w.closeSession()

	var listings []models.Listing
	var errs []models.ScrapeError
	pagesScraped := 0

	maxPages := w.req.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	for page := 1; page <= maxPages; page++ {
		pageListings, state, err := w.fetchPage(variant, page)
		if err != nil {
			w.logger.Error("[walker] %q page %d: %v", variant, page, err)
			errs = append(errs, models.ScrapeError{Page: page, Query: variant, Error: err.Error()})
			break
		}

		pagesScraped++

		// Sticky posts reappear across result pages; collect each URL once
		// per walk.
		pageListings = w.dedupe(pageListings)

		if w.req.Details {
			w.scrapeDetails(pageListings)
		}

		listings = append(listings, pageListings...)
		if w.observer != nil {
			w.observer.OnPage(variant, page, pageListings)
		}

		w.logger.Info("[walker] %q page %d — %d listings (hasNext=%v totalPages=%d)",
			variant, page, len(pageListings), state.HasNext, state.TotalPages)

		if !hasMorePages(page, maxPages, state) {
			break
		}

		utils.RandomDelay(w.cfg.MinPageDelay, w.cfg.MaxPageDelay)
	}

	return listings, errs, pagesScraped
}

func (w *Walker) dedupe(listings []models.Listing) []models.Listing {
	kept := listings[:0]
	for _, l := range listings {
		if w.seen.Add(l.URL) {
			kept = append(kept, l)
		}
	}
	return kept
}

// hasMorePages decides whether page+1 should be fetched: only when the site
// advertises a next page AND the cap allows it AND the site's own page count
// (when known) does too.
func hasMorePages(page, maxPages int, state models.PaginationState) bool {
	if !state.HasNext {
		return false
	}
	if page+1 > maxPages {
		return false
	}
	if state.TotalPages > 0 && page+1 > state.TotalPages {
		return false
	}
	return true
}

// fetchPageLive performs one retry-wrapped results-page fetch. Each retry
// attempt that arrives with a rotated proxy gets a fresh browser session.
func (w *Walker) fetchPageLive(variant string, pageNum int) ([]models.Listing, models.PaginationState, error) {
	var listings []models.Listing
	var state models.PaginationState

	op := fmt.Sprintf("fetch %q page %d", variant, pageNum)
	err := w.retrier.Do(op, func(proxyAddr string) error {
		if err := w.ensureSession(proxyAddr); err != nil {
			return err
		}

		page := w.session.OpenPage()
		defer page.Close()

		status, err := page.Navigate(w.profile.SearchURL(w.req, variant, pageNum))
		if err != nil {
			return err
		}
		if err := page.Run(browser.HideWebDriver()); err != nil {
			w.logger.Debug("[walker] webdriver patch failed: %v", err)
		}

		cls := Classify(w.gatherSignals(page, status))
		if !cls.Clean() {
			return BotDefenseError{cls}
		}

		cards, err := w.extractCards(page)
		if err != nil {
			return err
		}

		listings = cardsToListings(cards, variant)
		state = w.paginationState(page, pageNum)
		return nil
	})

	if err != nil {
		return nil, models.PaginationState{}, err
	}
	return listings, state, nil
}

// ensureSession lazily launches the variant-bound session, and replaces it
// whenever the retry controller rotates to a different proxy.
func (w *Walker) ensureSession(proxyAddr string) error {
	if proxyAddr == "" {
		proxyAddr = w.sessionProxy
	}
	if w.session != nil && w.session.Proxy() == proxyAddr {
		return nil
	}

	w.closeSession()
	w.session = w.launcher.NewSession(proxyAddr)
	if proxyAddr != "" {
		w.logger.Debug("[walker] session bound to proxy %s", proxyAddr)
	}
	bootstrapSession(w.session, w.profile, w.req, w.logger)
	return nil
}

func (w *Walker) closeSession() {
	if w.session != nil {
		w.session.Close()
		w.session = nil
	}
}

// gatherSignals collects the evidence the blocking detector needs. Misses
// here are tolerated — an unreadable signal is just an empty one.
func (w *Walker) gatherSignals(page *browser.Page, status int) models.PageSignals {
	var title string
	if err := page.Run(chromedp.Title(&title)); err != nil {
		w.logger.Debug("[walker] title read failed: %v", err)
	}

	var body string
	if err := page.Evaluate(`((document.body || {}).innerText || '').slice(0, 5000)`, &body); err != nil {
		w.logger.Debug("[walker] body read failed: %v", err)
	}

	return models.PageSignals{
		Status:             status,
		Title:              title,
		Body:               body,
		HasChallengeMarker: elementExists(page, w.profile.ChallengeMarkers),
	}
}

// searchCard mirrors the JSON shape produced by the profile's card script.
type searchCard struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Location string `json:"location"`
	Image    string `json:"image"`
}

func (w *Walker) extractCards(page *browser.Page) ([]searchCard, error) {
	var raw json.RawMessage
	if err := page.Evaluate(w.profile.cardsScript, &raw); err != nil {
		return nil, fmt.Errorf("card extraction: %w", err)
	}
	var cards []searchCard
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("card decode: %w", err)
	}
	return cards, nil
}

func cardsToListings(cards []searchCard, variant string) []models.Listing {
	now := time.Now()
	listings := make([]models.Listing, 0, len(cards))
	for _, c := range cards {
		if c.URL == "" {
			continue
		}
		listings = append(listings, models.Listing{
			URL:         c.URL,
			Title:       c.Title,
			Price:       c.Price,
			Location:    c.Location,
			Image:       c.Image,
			SourceQuery: variant,
			ScrapedAt:   now,
		})
	}
	return listings
}

var totalCountRe = regexp.MustCompile(`(?:of\s+)?([\d,]+)\s*$`)

// paginationState reads the site's own pagination affordance. It is
// recomputed on every page load and never persisted.
func (w *Walker) paginationState(page *browser.Page, current int) models.PaginationState {
	state := models.PaginationState{
		CurrentPage: current,
		HasNext:     elementExists(page, w.profile.NextSelectors),
	}

	countText := extractFirst(page, w.profile.CountSelectors)
	if total := parseTotalCount(countText); total > 0 && w.profile.PageSize > 0 {
		state.TotalPages = (total + w.profile.PageSize - 1) / w.profile.PageSize
	}
	return state
}

// parseTotalCount pulls the trailing result total out of texts like
// "1 - 120 of 3,456" or a bare "3,456".
func parseTotalCount(text string) int {
	m := totalCountRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// scrapeDetails visits each listing's own page sequentially — fanning these
// out in parallel is exactly what rate defenses key on — and merges detail
// fields into the summary record. A failed detail visit marks the listing
// and moves on; it never aborts the page or the walk.
func (w *Walker) scrapeDetails(listings []models.Listing) {
	for i := range listings {
		detail, err := w.fetchDetail(listings[i].URL)
		if err != nil {
			w.logger.Warn("[walker] detail scrape failed for %s: %v", listings[i].URL, err)
			listings[i].DetailError = err.Error()
		} else {
			mergeDetail(&listings[i], detail)
		}

		if w.observer != nil {
			w.observer.OnListing(listings[i])
		}

		if i < len(listings)-1 {
			utils.RandomDelay(400*time.Millisecond, 900*time.Millisecond)
		}
	}
}

// mergeDetail fills the summary record with detail fields, keeping summary
// values where the detail page had nothing better.
func mergeDetail(l *models.Listing, d detailData) {
	if d.Title != "" {
		l.Title = d.Title
	}
	if d.Price != "" {
		l.Price = d.Price
	}
	l.Description = d.Description
	l.Seller = d.Seller
	l.PostedDate = d.Posted
	if len(d.Attributes) > 0 {
		l.Attributes = d.Attributes
	}
	if len(d.Images) > 0 {
		l.Images = d.Images
		if l.Image == "" {
			l.Image = d.Images[0]
		}
	}
}

// fetchDetailLive loads one listing page and parses it with the profile's
// document-side selector chains.
func (w *Walker) fetchDetailLive(listingURL string) (detailData, error) {
	var detail detailData

	if err := w.ensureSession(""); err != nil {
		return detail, err
	}

	page := w.session.OpenPage()
	defer page.Close()

	status, err := page.Navigate(listingURL)
	if err != nil {
		return detail, err
	}

	cls := Classify(w.gatherSignals(page, status))
	if !cls.Clean() {
		return detail, BotDefenseError{cls}
	}

	html, err := page.Content()
	if err != nil {
		return detail, fmt.Errorf("page content: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return detail, fmt.Errorf("parse detail page: %w", err)
	}

	detail.Title = firstText(doc, w.profile.DetailTitle)
	detail.Price = firstText(doc, w.profile.DetailPrice)
	detail.Description = cleanBody(firstText(doc, w.profile.DetailDescription))
	detail.Seller = firstText(doc, w.profile.DetailSeller)
	detail.Posted = firstAttr(doc, w.profile.DetailPosted, "datetime")
	if detail.Posted == "" {
		detail.Posted = firstText(doc, w.profile.DetailPosted)
	}
	detail.Attributes = parseAttributes(textValues(doc, w.profile.DetailAttrGroups))
	detail.Images = attrValues(doc, w.profile.DetailImages, "src")
	if len(detail.Images) == 0 {
		detail.Images = attrValues(doc, w.profile.DetailImages, "href")
	}

	return detail, nil
}

// parseAttributes turns the site's "key: value" attribute spans into a map;
// bare spans become flag-style entries.
func parseAttributes(spans []string) map[string]string {
	if len(spans) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(spans))
	for _, span := range spans {
		if key, val, ok := strings.Cut(span, ":"); ok {
			attrs[strings.TrimSpace(key)] = strings.TrimSpace(val)
		} else {
			attrs[strings.TrimSpace(span)] = ""
		}
	}
	return attrs
}

// cleanBody collapses whitespace and strips the site's boilerplate QR notice.
func cleanBody(text string) string {
	text = strings.ReplaceAll(text, "QR Code Link to This Post", "")
	return strings.Join(strings.Fields(text), " ")
}
