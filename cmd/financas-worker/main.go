package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"financas/internal/backend"
	"financas/internal/config"
	"financas/internal/events"
	eventsamqp "financas/internal/events/amqp"
	eventskafka "financas/internal/events/kafka"
	applog "financas/internal/log"
	gsheet "financas/internal/sheets/google"
	"financas/internal/worker"
)

type consumer interface {
	ConsumeEntryEvents(ctx context.Context, handler func(context.Context, *events.EntryEventMessage) error) error
	Close() error
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	applog.Setup()

	slog.Info("Starting financas-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if cfg.GoogleSpreadsheetID == "" {
		slog.Error("GOOGLE_SPREADSHEET_ID is required for the export worker")
		os.Exit(1)
	}

	store, err := backend.OpenStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sheetsClient, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		slog.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	slog.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	var src consumer
	switch cfg.EventsBackend {
	case "amqp":
		client, err := eventsamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		src = client
	case "kafka":
		src = eventskafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, "financas-worker")
	default:
		slog.Info("No events backend configured, relying on periodic export scans only")
	}
	if src != nil {
		defer src.Close()
	}

	exportWorker := worker.NewExportWorker(store, sheetsClient, cfg.ExportBatchSize)

	// re-drive anything missed while the worker was down
	slog.Info("Performing startup export check...")
	if err := exportWorker.StartupCheck(ctx); err != nil {
		slog.Error("Startup export check failed", "error", err)
		// keep running, the periodic scan retries
	}

	g, gctx := errgroup.WithContext(ctx)

	if src != nil {
		g.Go(func() error {
			return src.ConsumeEntryEvents(gctx, exportWorker.HandleEntryEvent)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := exportWorker.ProcessPendingExports(gctx); err != nil {
					slog.Error("Periodic export failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("Worker shutdown complete")
}
