package storage

import "github.com/crokau/szcraper/models"

// ListingWriter is the interface any listing storage backend must satisfy.
type ListingWriter interface {
	Write(listings []models.Listing) error
	Close() error
}

// ReportWriter persists a whole run's terminal artifact.
type ReportWriter interface {
	WriteReport(report *models.ScrapeReport) error
}
