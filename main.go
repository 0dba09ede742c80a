package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"dealwatch/bot"
	"dealwatch/config"
	"dealwatch/scraper/marketplace"
	"dealwatch/services"
	"dealwatch/storage"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg := config.Load()

	logger.Info("=== dealwatch starting ===")
	logger.Infof("Config — marketplace: %s | quota: %d items/workspace | page timeout: %ds | rate: %dms",
		cfg.MarketplaceBaseURL, cfg.MaxTrackedItems, cfg.PageLoadTimeoutSec, cfg.RateLimitMs)

	db, err := storage.Open(cfg.DSN(), logger)
	if err != nil {
		logger.Errorf("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		os.Exit(1)
	}
	defer db.Close()

	listingRepo := storage.NewListingRepo(db)
	trackingRepo := storage.NewTrackingRepo(db)

	var capture storage.RawCardWriter
	if cfg.CSVCapturePath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.CSVCapturePath)
		if err != nil {
			logger.Errorf("Failed to open raw capture file: %v", err)
			os.Exit(1)
		}
		defer csvWriter.Close()
		capture = csvWriter
		logger.Infof("Raw card capture enabled → %s", cfg.CSVCapturePath)
	}

	fetcher := marketplace.New(cfg, logger)
	analyzer := services.NewAnalyzer(logger)
	orchestrator := services.NewOrchestrator(fetcher, listingRepo, analyzer, capture, cfg.RateLimitMs, logger)
	tracker := services.NewTracker(trackingRepo, listingRepo, cfg.MaxTrackedItems, logger)
	queries := services.NewQueries(listingRepo, trackingRepo, logger)

	handler := bot.NewHandler(tracker, orchestrator, queries, logger)
	server := bot.NewServer(cfg.ListenAddr, handler, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logger.Errorf("Server failed: %v", err)
		os.Exit(1)
	}

	logger.Info("=== dealwatch stopped ===")
}
