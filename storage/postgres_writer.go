package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/crokau/szcraper/models"
)

// PostgresWriter persists deduplicated listings to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id           SERIAL PRIMARY KEY,
			url          TEXT        UNIQUE NOT NULL,
			title        TEXT        NOT NULL DEFAULT '',
			price        TEXT        NOT NULL DEFAULT '',
			location     TEXT        NOT NULL DEFAULT '',
			seller       TEXT        NOT NULL DEFAULT '',
			posted_date  TEXT        NOT NULL DEFAULT '',
			description  TEXT        NOT NULL DEFAULT '',
			source_query TEXT        NOT NULL DEFAULT '',
			scraped_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_location     ON listings(location);
		CREATE INDEX IF NOT EXISTS idx_listings_source_query ON listings(source_query);
	`)
	return err
}

// Write batch-inserts listings; URLs already present are left untouched.
func (pw *PostgresWriter) Write(listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.insertBatch(listings[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []models.Listing) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*9)

	for idx, l := range batch {
		base := idx * 9
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		valueArgs = append(valueArgs,
			l.URL, l.Title, l.Price, l.Location, l.Seller,
			l.PostedDate, l.Description, l.SourceQuery, l.ScrapedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (url, title, price, location, seller, posted_date, description, source_query, scraped_at)
		VALUES %s
		ON CONFLICT (url) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

// FetchAll retrieves all stored listings.
func (pw *PostgresWriter) FetchAll() ([]models.Listing, error) {
	rows, err := pw.db.Query(`
		SELECT url, title, price, location, seller, posted_date, description, source_query, scraped_at
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(
			&l.URL, &l.Title, &l.Price, &l.Location, &l.Seller,
			&l.PostedDate, &l.Description, &l.SourceQuery, &l.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Close releases the database handle.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
