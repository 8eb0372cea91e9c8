// Package backend assembles the storage and events backends selected
// by configuration.
package backend

import (
	"fmt"
	"log/slog"

	"financas/internal/config"
	"financas/internal/events"
	eventsamqp "financas/internal/events/amqp"
	eventskafka "financas/internal/events/kafka"
	"financas/internal/storage"
)

// OpenStore creates the configured storage backend, running migrations
// on the way up.
func OpenStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case "sqlite":
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		slog.Info("Initialized SQLite storage", "db_path", cfg.SQLiteDBPath)
		return store, nil

	case "postgres":
		store, err := storage.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres store: %w", err)
		}
		slog.Info("Initialized Postgres storage")
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}

// OpenPublisher creates the configured events backend. "none" returns
// a nil publisher, which the ledger service treats as disabled.
func OpenPublisher(cfg *config.Config) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case "none":
		slog.Info("Entry events disabled")
		return nil, nil

	case "amqp":
		client, err := eventsamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("initialize AMQP client: %w", err)
		}
		slog.Info("Initialized AMQP events",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
		return client, nil

	case "kafka":
		pub := eventskafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		slog.Info("Initialized Kafka events",
			"brokers", cfg.KafkaBrokers,
			"topic", cfg.KafkaTopic)
		return pub, nil

	default:
		return nil, fmt.Errorf("unsupported events backend: %s", cfg.EventsBackend)
	}
}
