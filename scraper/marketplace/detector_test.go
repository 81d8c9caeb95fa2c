package marketplace

import (
	"strings"
	"testing"

	"github.com/crokau/szcraper/models"
)

func TestClassifyBlockedStatuses(t *testing.T) {
	for _, status := range []int{403, 429, 503} {
		cls := Classify(models.PageSignals{Status: status, Title: "craigslist", Body: "results"})
		if cls.Verdict != VerdictBlocked {
			t.Errorf("status %d: got verdict %v, want Blocked", status, cls.Verdict)
		}
		if cls.Clean() {
			t.Errorf("status %d must never classify as clean", status)
		}
		if cls.Status != status {
			t.Errorf("status %d: classification kept status %d", status, cls.Status)
		}
	}
}

func TestClassifyChallengedByTitleRegardlessOfStatus(t *testing.T) {
	for _, status := range []int{200, 403, 503} {
		cls := Classify(models.PageSignals{Status: status, Title: "Just a moment... "})
		if cls.Verdict != VerdictChallenged {
			t.Errorf("status %d: got verdict %v, want Challenged", status, cls.Verdict)
		}
	}

	cls := Classify(models.PageSignals{Status: 200, Title: "Attention Required! | Cloudflare"})
	if cls.Verdict != VerdictChallenged {
		t.Errorf("attention-required title: got verdict %v, want Challenged", cls.Verdict)
	}
}

func TestClassifyChallengedByBody(t *testing.T) {
	tests := []string{
		"Checking your browser before accessing the site.",
		"Performance & security by Cloudflare",
		"Verifying you are human. This may take a few seconds.",
	}
	for _, body := range tests {
		cls := Classify(models.PageSignals{Status: 200, Title: "loading", Body: body})
		if cls.Verdict != VerdictChallenged {
			t.Errorf("body %q: got verdict %v, want Challenged", body, cls.Verdict)
		}
	}
}

func TestClassifyChallengeMarkerElement(t *testing.T) {
	cls := Classify(models.PageSignals{Status: 200, HasChallengeMarker: true})
	if cls.Verdict != VerdictChallenged {
		t.Errorf("marker element: got verdict %v, want Challenged", cls.Verdict)
	}
}

func TestClassifyClean(t *testing.T) {
	cls := Classify(models.PageSignals{
		Status: 200,
		Title:  "seattle for sale \"desk lamp\" - craigslist",
		Body:   "120 results for desk lamp",
	})
	if !cls.Clean() {
		t.Errorf("expected clean, got %s", cls.Reason())
	}
}

func TestReasonsAreDistinguishable(t *testing.T) {
	blocked := Classify(models.PageSignals{Status: 429})
	challenged := Classify(models.PageSignals{Status: 200, Title: "Just a moment..."})

	if !strings.Contains(blocked.Reason(), "429") {
		t.Errorf("blocked reason should carry the status: %q", blocked.Reason())
	}
	if !strings.Contains(challenged.Reason(), "challenged") {
		t.Errorf("challenged reason should say so: %q", challenged.Reason())
	}
	if blocked.Reason() == challenged.Reason() {
		t.Error("blocked and challenged reasons must differ")
	}

	err := BotDefenseError{challenged}
	if err.Error() != challenged.Reason() {
		t.Errorf("error message %q should preserve the reason %q", err.Error(), challenged.Reason())
	}
}
