package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/crokau/szcraper/utils"
)

// Expander turns one search term into query variants. The capability is
// external and may be absent or unreachable; callers always fall back to
// FallbackVariants so the scheduler has at least one query to run.
type Expander interface {
	Expand(ctx context.Context, term string) ([]string, error)
}

// HTTPExpander calls a JSON expansion endpoint (typically a language-model
// service): POST {"term": ...} → {"variants": [...]}.
type HTTPExpander struct {
	endpoint string
	client   *http.Client
	logger   *utils.Logger
}

// NewHTTPExpander builds an expander for the given endpoint.
func NewHTTPExpander(endpoint string, timeout time.Duration, logger *utils.Logger) *HTTPExpander {
	return &HTTPExpander{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Expand requests variants for term from the expansion endpoint.
func (e *HTTPExpander) Expand(ctx context.Context, term string) ([]string, error) {
	payload, err := json.Marshal(map[string]string{"term": term})
	if err != nil {
		return nil, fmt.Errorf("expander: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("expander: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("expander: call %s: %w", e.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("expander: %s returned http %d", e.endpoint, resp.StatusCode)
	}

	var body struct {
		Variants []string `json:"variants"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("expander: decode response: %w", err)
	}
	return body.Variants, nil
}

// FallbackVariants deterministically synthesizes variants from the term
// itself. The literal term is always included.
func FallbackVariants(term string) []string {
	term = strings.TrimSpace(term)
	return []string{
		term,
		"cheap " + term,
		"used " + term,
		term + " near me",
	}
}

// normalizeVariants guarantees the literal term comes first and drops
// duplicates and empties.
func normalizeVariants(term string, variants []string) []string {
	out := make([]string, 0, len(variants)+1)
	seen := make(map[string]struct{})

	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}

	add(term)
	for _, v := range variants {
		add(v)
	}
	return out
}
