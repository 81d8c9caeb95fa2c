// Package browser binds the chromedp automation capability behind the small
// surface the orchestration core needs: launch a session, open pages,
// navigate with a timeout and an HTTP status, evaluate scripts, tear down.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/crokau/szcraper/config"
	"github.com/crokau/szcraper/utils"
)

// Launcher builds browser sessions. Constructing one verifies a local
// Chrome/Chromium exists; a missing browser is fatal for the whole run since
// retrying cannot install one.
type Launcher struct {
	cfg    *config.Config
	logger *utils.Logger
	bin    string
}

// NewLauncher locates the browser binary and returns a ready Launcher.
func NewLauncher(cfg *config.Config, logger *utils.Logger) (*Launcher, error) {
	bin := cfg.ChromeBin
	if bin == "" {
		bin = findChromeBinary()
	}
	if bin == "" {
		return nil, fmt.Errorf("browser: no Chrome/Chromium binary found (set CHROME_BIN)")
	}
	logger.Debug("[browser] Using browser binary: %s", bin)
	return &Launcher{cfg: cfg, logger: logger, bin: bin}, nil
}

// Session is one browser instance and its pages. It is exclusively owned by
// one worker for its lifetime and must be closed on every exit path.
type Session struct {
	proxy         string
	navTimeout    time.Duration
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewSession launches a browser bound to the given proxy endpoint (or none
// when proxyAddr is empty).
func (l *Launcher) NewSession(proxyAddr string) *Session {
	allocCtx, allocCancel := chromedp.NewExecAllocator(
		context.Background(),
		stealthOpts(l.cfg.Headless, l.bin, proxyAddr)...,
	)

	// Suppress chromedp log noise.
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	return &Session{
		proxy:         proxyAddr,
		navTimeout:    l.cfg.NavTimeout,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}
}

// Proxy returns the proxy endpoint this session is bound to.
func (s *Session) Proxy() string {
	return s.proxy
}

// OpenPage opens a new tab in the session's browser.
func (s *Session) OpenPage() *Page {
	ctx, cancel := chromedp.NewContext(s.browserCtx)
	return &Page{ctx: ctx, cancel: cancel, navTimeout: s.navTimeout}
}

// Close tears down the browser and its allocator.
func (s *Session) Close() {
	s.browserCancel()
	s.allocCancel()
}

// Page is one tab. All operations run against deadline-bounded contexts so a
// stuck navigation surfaces as an attempt failure instead of hanging a worker.
type Page struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
}

// Navigate loads pageURL and returns the main-document HTTP status. A status
// of 0 means the navigation produced no network response (e.g. a same-page
// fragment load).
func (p *Page) Navigate(pageURL string) (int, error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()

	resp, err := chromedp.RunResponse(ctx, chromedp.Navigate(pageURL))
	if err != nil {
		return 0, fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	if resp == nil {
		return 0, nil
	}
	return int(resp.Status), nil
}

// Run executes chromedp actions against the tab under the navigation timeout.
func (p *Page) Run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Evaluate runs a script in the page and stores the serializable result in out.
func (p *Page) Evaluate(script string, out interface{}) error {
	return p.Run(chromedp.Evaluate(script, out))
}

// Content returns the rendered document HTML.
func (p *Page) Content() (string, error) {
	var html string
	err := p.Run(chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", err
	}
	return html, nil
}

// Screenshot captures the visible viewport.
func (p *Page) Screenshot() ([]byte, error) {
	var buf []byte
	if err := p.Run(chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close releases the tab.
func (p *Page) Close() {
	p.cancel()
}
