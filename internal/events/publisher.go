// Package events defines the entry-event messages published on ledger
// mutations and the publisher boundary the ledger service writes to.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventCreated       = "created"
	EventUpdated       = "updated"
	EventStatusChanged = "status_changed"
	EventDeleted       = "deleted"
)

// Publisher is implemented by the AMQP client and the Kafka publisher.
// Publishing is best effort: the ledger service logs failures and keeps
// going, the worker re-drives missed entries periodically.
type Publisher interface {
	PublishEntryEvent(ctx context.Context, msg *EntryEventMessage) error
	Close() error
}

// EntryEventMessage is intentionally light: just the entry id and what
// happened. Consumers fetch the current row from storage, so a stale
// message can never overwrite fresher data.
type EntryEventMessage struct {
	EventID   string    `json:"event_id"`
	Event     string    `json:"event"`
	EntryID   int64     `json:"entry_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryEventMessage(event string, entryID int64) *EntryEventMessage {
	return &EntryEventMessage{
		EventID:   uuid.NewString(),
		Event:     event,
		EntryID:   entryID,
		Timestamp: time.Now(),
	}
}

func (m *EntryEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryEventMessageFromJSON(data []byte) (*EntryEventMessage, error) {
	var msg EntryEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
