package marketplace

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/crokau/szcraper/scraper/browser"
)

// Selector-fallback extraction. Target markup drifts across page variants
// and over time, so every field is looked up through an ordered chain of
// candidate locators and the first non-empty match wins. A missing selector
// is an expected condition, never a fault: locator errors are swallowed and
// a total miss yields an empty value.

// extractFirst evaluates each selector against the live page and returns the
// first non-empty trimmed text.
func extractFirst(page *browser.Page, selectors []string) string {
	for _, sel := range selectors {
		var text string
		script := fmt.Sprintf(`((document.querySelector(%q) || {}).textContent || '').trim()`, sel)
		if err := page.Evaluate(script, &text); err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return ""
}

// elementExists reports whether any of the selectors matches on the live page.
func elementExists(page *browser.Page, selectors []string) bool {
	for _, sel := range selectors {
		var found bool
		script := fmt.Sprintf(`document.querySelector(%q) !== null`, sel)
		if err := page.Evaluate(script, &found); err != nil {
			continue
		}
		if found {
			return true
		}
	}
	return false
}

// firstText applies the same ordered-fallback rule to a parsed document.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// firstAttr returns the first non-empty attribute value across the chain.
func firstAttr(doc *goquery.Document, selectors []string, attr string) string {
	for _, sel := range selectors {
		if val, ok := doc.Find(sel).First().Attr(attr); ok {
			if val = strings.TrimSpace(val); val != "" {
				return val
			}
		}
	}
	return ""
}

// attrValues collects the attribute from every match of the first selector
// that yields any; a total miss yields an empty slice, not an error.
func attrValues(doc *goquery.Document, selectors []string, attr string) []string {
	for _, sel := range selectors {
		var values []string
		seen := make(map[string]struct{})
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			val, ok := s.Attr(attr)
			if !ok {
				return
			}
			val = strings.TrimSpace(val)
			if val == "" {
				return
			}
			if _, dup := seen[val]; dup {
				return
			}
			seen[val] = struct{}{}
			values = append(values, val)
		})
		if len(values) > 0 {
			return values
		}
	}
	return nil
}

// textValues collects trimmed text from every match of a single selector.
func textValues(doc *goquery.Document, selector string) []string {
	var values []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			values = append(values, text)
		}
	})
	return values
}
