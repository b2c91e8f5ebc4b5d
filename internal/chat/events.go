package chat

import (
	"context"
	"time"
)

type EventType string

const (
	EventUpserted EventType = "upserted"
	EventRemoved  EventType = "removed"
	EventCleared  EventType = "cleared"
)

// HistoryEvent describes one persisted ledger mutation.
type HistoryEvent struct {
	Type     EventType           `json:"type"`
	RecordID string              `json:"record_id,omitempty"`
	Record   *ConversationRecord `json:"record,omitempty"`
	At       time.Time           `json:"at"`
}

// Notifier is told about every ledger mutation after it has been persisted.
type Notifier interface {
	Notify(ctx context.Context, ev HistoryEvent) error
}
