package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/crokau/szcraper/config"
	"github.com/crokau/szcraper/models"
	"github.com/crokau/szcraper/proxy"
	"github.com/crokau/szcraper/scraper/marketplace"
	"github.com/crokau/szcraper/server"
	"github.com/crokau/szcraper/services"
	"github.com/crokau/szcraper/storage"
	"github.com/crokau/szcraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	pool, err := proxy.Load(cfg.ProxyFile)
	if err != nil {
		logger.Error("Failed to load proxy list: %v", err)
		os.Exit(1)
	}
	if pool.Size() == 0 {
		logger.Warn("No proxies configured — scraping without proxy rotation")
	} else {
		logger.Info("Loaded %d proxies from %s", pool.Size(), cfg.ProxyFile)
	}

	scraper, err := marketplace.New(cfg, logger, pool)
	if err != nil {
		logger.Error("Could not start scraper: %v", err)
		os.Exit(1)
	}

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "serve" {
		srv := server.New(cfg, logger, scraper)
		if err := srv.ListenAndServe(); err != nil {
			logger.Error("Server stopped: %v", err)
			os.Exit(1)
		}
		return
	}

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: szcraper <search term> | szcraper serve")
		os.Exit(2)
	}

	req := models.SearchRequest{
		Query:    query,
		MaxPages: cfg.MaxPages,
		Details:  cfg.ScrapeDetails,
	}

	logger.Info("Scrape starting — query=%q pages=%d concurrency=%d details=%v",
		req.Query, req.MaxPages, cfg.MaxConcurrency, req.Details)

	report := scraper.Run(context.Background(), req)

	var reportWriter storage.ReportWriter = storage.NewJSONReportWriter(cfg.ReportPath)
	if err := reportWriter.WriteReport(report); err != nil {
		logger.Error("Report write failed: %v", err)
	} else {
		logger.Info("Report saved to %s", cfg.ReportPath)
	}

	if len(report.Listings) > 0 {
		var sinks []storage.ListingWriter

		if csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath); err != nil {
			logger.Error("Failed to create CSV writer: %v", err)
		} else {
			sinks = append(sinks, csvWriter)
			logger.Info("Writing listings to %s", cfg.CSVOutputPath)
		}

		if cfg.PostgresEnabled {
			if pgWriter, err := storage.NewPostgresWriter(cfg.DSN()); err != nil {
				logger.Error("PostgreSQL unavailable, skipping persistence: %v", err)
			} else {
				sinks = append(sinks, pgWriter)
				logger.Info("Writing listings to PostgreSQL (table: listings)")
			}
		}

		for _, sink := range sinks {
			if err := sink.Write(report.Listings); err != nil {
				logger.Error("Listing write failed: %v", err)
			}
			_ = sink.Close()
		}
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(report))

	if len(report.Errors) > 0 {
		logger.Warn("Run finished with %d errors — inspect the report's errors list", len(report.Errors))
	}
}
