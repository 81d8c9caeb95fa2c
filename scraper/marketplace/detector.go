package marketplace

import (
	"fmt"
	"strings"

	"github.com/crokau/szcraper/models"
)

// Verdict classifies a loaded page.
type Verdict int

const (
	VerdictClean Verdict = iota
	VerdictBlocked
	VerdictChallenged
)

// blockedStatuses are the response codes the site uses to refuse automated
// traffic outright.
var blockedStatuses = map[int]bool{
	403: true,
	429: true,
	503: true,
}

var challengeTitles = []string{
	"just a moment",
	"attention required",
}

// challengeBodyPatterns are phrases from interstitial challenge pages,
// mostly Cloudflare's.
var challengeBodyPatterns = []string{
	"checking your browser",
	"cloudflare",
	"verifying you are human",
	"verify you are human",
	"why have i been blocked",
	"performance & security by cloudflare",
	"please wait while we verify",
}

// Classification is the detector's result. Blocked and Challenged are
// terminal for the current attempt and carry a reason the retry controller
// preserves in the final error.
type Classification struct {
	Verdict Verdict
	Status  int
	pattern string
}

// Clean reports whether the page can be scraped.
func (c Classification) Clean() bool {
	return c.Verdict == VerdictClean
}

// Reason returns a human-readable cause that distinguishes bot-defense
// outcomes from transport faults.
func (c Classification) Reason() string {
	switch c.Verdict {
	case VerdictBlocked:
		return fmt.Sprintf("blocked: http %d", c.Status)
	case VerdictChallenged:
		return fmt.Sprintf("challenged: %s", c.pattern)
	default:
		return "clean"
	}
}

// BotDefenseError wraps a non-clean classification so the retry controller
// can treat it like any other attempt failure while the reason survives into
// the terminal error message.
type BotDefenseError struct {
	Classification Classification
}

func (e BotDefenseError) Error() string {
	return e.Classification.Reason()
}

// Classify inspects a loaded page's signals and decides whether it is clean,
// blocked, or an anti-bot challenge. Challenge heuristics win over the
// status code: a challenge page is a challenge whatever code it came with.
func Classify(sig models.PageSignals) Classification {
	title := strings.ToLower(sig.Title)
	body := strings.ToLower(sig.Body)

	if sig.HasChallengeMarker {
		return Classification{Verdict: VerdictChallenged, Status: sig.Status, pattern: "challenge marker element"}
	}
	for _, t := range challengeTitles {
		if strings.Contains(title, t) {
			return Classification{Verdict: VerdictChallenged, Status: sig.Status, pattern: "title " + strconvQuote(t)}
		}
	}
	for _, p := range challengeBodyPatterns {
		if strings.Contains(body, p) {
			return Classification{Verdict: VerdictChallenged, Status: sig.Status, pattern: "body " + strconvQuote(p)}
		}
	}

	if blockedStatuses[sig.Status] {
		return Classification{Verdict: VerdictBlocked, Status: sig.Status}
	}

	return Classification{Verdict: VerdictClean, Status: sig.Status}
}

func strconvQuote(s string) string {
	return `"` + s + `"`
}
