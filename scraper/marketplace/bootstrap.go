package marketplace

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/crokau/szcraper/models"
	"github.com/crokau/szcraper/scraper/browser"
	"github.com/crokau/szcraper/utils"
)

// bootstrapSession establishes a credible browsing session before the first
// real request: load the landing page, wander the pointer a little, scroll a
// bit. Entirely best-effort — any failure here is swallowed, because a run
// must never abort over a trust-building step.
func bootstrapSession(sess *browser.Session, profile Profile, req models.SearchRequest, logger *utils.Logger) {
	page := sess.OpenPage()
	defer page.Close()

	if _, err := page.Navigate(profile.HomeURL(req)); err != nil {
		logger.Debug("[bootstrap] landing page visit failed: %v", err)
		return
	}
	if err := page.Run(browser.HideWebDriver()); err != nil {
		logger.Debug("[bootstrap] webdriver patch failed: %v", err)
	}

	moves := 2 + rand.Intn(3)
	for i := 0; i < moves; i++ {
		x := 80 + rand.Float64()*1200
		y := 80 + rand.Float64()*700
		if err := page.Run(mouseMove(x, y)); err != nil {
			logger.Debug("[bootstrap] pointer move failed: %v", err)
			return
		}
		utils.RandomDelay(100*time.Millisecond, 350*time.Millisecond)
	}

	for i := 0; i < 2; i++ {
		frac := 0.2 + rand.Float64()*0.5
		script := fmt.Sprintf(`window.scrollBy(0, window.innerHeight * %.2f)`, frac)
		if err := page.Evaluate(script, nil); err != nil {
			logger.Debug("[bootstrap] scroll failed: %v", err)
			return
		}
		utils.RandomDelay(150*time.Millisecond, 500*time.Millisecond)
	}
}

func mouseMove(x, y float64) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
	})
}
