package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crokau/szcraper/models"
)

// JSONReportWriter persists the whole ScrapeReport as one JSON document —
// the run's terminal artifact.
type JSONReportWriter struct {
	path string
}

// NewJSONReportWriter creates a writer targeting the given path.
func NewJSONReportWriter(path string) *JSONReportWriter {
	return &JSONReportWriter{path: path}
}

// WriteReport serializes the report, creating intermediate directories.
func (w *JSONReportWriter) WriteReport(report *models.ScrapeReport) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("report: create output dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}

	if err := os.WriteFile(w.path, data, 0644); err != nil {
		return fmt.Errorf("report: write %q: %w", w.path, err)
	}
	return nil
}
