package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"financas/internal/events"
)

// Consumer reads entry events from a topic within a consumer group.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
	}
}

// ConsumeEntryEvents delivers messages to handler until ctx is done.
// Offsets commit only after the handler succeeds, so a crashed worker
// re-reads unprocessed events.
func (c *Consumer) ConsumeEntryEvents(ctx context.Context, handler func(context.Context, *events.EntryEventMessage) error) error {
	slog.InfoContext(ctx, "Started consuming entry events", "topic", c.reader.Config().Topic)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return ctx.Err()
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		msg, err := events.EntryEventMessageFromJSON(m.Value)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
			// commit anyway, a malformed message never becomes valid
			if err := c.reader.CommitMessages(ctx, m); err != nil {
				return fmt.Errorf("commit message: %w", err)
			}
			continue
		}

		if err := handler(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to handle message",
				"error", err,
				"event", msg.Event,
				"entry_id", msg.EntryID)
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
