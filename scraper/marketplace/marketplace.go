// Package marketplace is the scrape orchestration core: query expansion and
// fan-out, retry with proxy rotation, blocking detection, pagination walking,
// and selector-fallback extraction against a classifieds site.
package marketplace

import (
	"context"
	"time"

	"github.com/crokau/szcraper/config"
	"github.com/crokau/szcraper/models"
	"github.com/crokau/szcraper/proxy"
	"github.com/crokau/szcraper/scraper/browser"
	"github.com/crokau/szcraper/services"
	"github.com/crokau/szcraper/utils"
)

// Scraper expands a search term into variants and runs one pagination walker
// per variant under a strict system-wide concurrency cap.
type Scraper struct {
	cfg      *config.Config
	logger   *utils.Logger
	launcher *browser.Launcher
	pool     *proxy.Pool
	expander Expander
	observer Observer
	profile  Profile
}

// Option customizes a Scraper.
type Option func(*Scraper)

// WithExpander replaces the query-expansion capability.
func WithExpander(e Expander) Option {
	return func(s *Scraper) { s.expander = e }
}

// WithObserver installs a progress observer.
func WithObserver(o Observer) Option {
	return func(s *Scraper) { s.observer = o }
}

// WithProfile targets a different site profile.
func WithProfile(p Profile) Option {
	return func(s *Scraper) { s.profile = p }
}

// New builds the scraper. It fails only for run-level faults — a missing
// local browser cannot be retried away.
func New(cfg *config.Config, logger *utils.Logger, pool *proxy.Pool, opts ...Option) (*Scraper, error) {
	launcher, err := browser.NewLauncher(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &Scraper{
		cfg:      cfg,
		logger:   logger,
		launcher: launcher,
		pool:     pool,
		observer: NopObserver{},
		profile:  CraigslistProfile(cfg.BaseURL, cfg.DefaultCategory),
	}
	if cfg.ExpansionURL != "" {
		s.expander = NewHTTPExpander(cfg.ExpansionURL, cfg.ExpansionTimeout, logger)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run executes one full scrape and always returns a report — possibly with
// empty listings — plus the captured per-page and per-variant errors.
func (s *Scraper) Run(ctx context.Context, req models.SearchRequest) *models.ScrapeReport {
	started := time.Now()

	if req.MaxPages < 1 {
		req.MaxPages = s.cfg.MaxPages
	}

	variants := s.resolveVariants(ctx, req.Query)
	s.logger.Info("[scheduler] %q expanded to %d variants, concurrency %d, proxies %d",
		req.Query, len(variants), s.cfg.MaxConcurrency, s.pool.Size())

	// Per-variant result slots: no shared mutable state between walkers.
	listingsByVariant := make([][]models.Listing, len(variants))
	errsByVariant := make([][]models.ScrapeError, len(variants))
	pagesByVariant := make([]int, len(variants))

	wp := utils.NewWorkerPool(s.cfg.MaxConcurrency)
	for i, variant := range variants {
		i, variant := i, variant
		wp.Submit(func() {
			retrier := utils.NewRetrier(s.cfg.MaxRetries, s.pool, s.logger)
			walker := newWalker(s.cfg, s.profile, s.launcher, retrier, s.logger,
				s.observer, req, s.pool.ByIndex(i))
			listingsByVariant[i], errsByVariant[i], pagesByVariant[i] = walker.Walk(variant)
		})
	}
	wp.Wait()

	merged := services.MergeListings(listingsByVariant...)

	report := &models.ScrapeReport{
		Query:           req.Query,
		ExpandedQueries: variants,
		Listings:        merged,
		Errors:          []models.ScrapeError{},
		TotalFound:      len(merged),
		StartedAt:       started,
		FinishedAt:      time.Now(),
	}
	for i := range variants {
		report.Errors = append(report.Errors, errsByVariant[i]...)
		report.PagesScraped += pagesByVariant[i]
	}

	s.logger.Info("[scheduler] run complete — %d unique listings, %d pages, %d errors",
		report.TotalFound, report.PagesScraped, len(report.Errors))
	return report
}

// resolveVariants asks the expansion capability for variants and degrades to
// the deterministic fallback whenever it is absent, fails, or returns
// nothing. The expansion fault never reaches the caller.
func (s *Scraper) resolveVariants(ctx context.Context, term string) []string {
	if s.expander == nil {
		return normalizeVariants(term, FallbackVariants(term))
	}

	expandCtx, cancel := context.WithTimeout(ctx, s.cfg.ExpansionTimeout)
	defer cancel()

	variants, err := s.expander.Expand(expandCtx, term)
	if err != nil || len(variants) == 0 {
		if err != nil {
			s.logger.Warn("[scheduler] expansion failed, using fallback variants: %v", err)
		}
		return normalizeVariants(term, FallbackVariants(term))
	}
	return normalizeVariants(term, variants)
}
