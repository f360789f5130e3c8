package events

import (
	"time"

	"github.com/spec-kit/waitline/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEntryAdded           EventType = "entry_added"
	EventEntryCalled          EventType = "entry_called"
	EventEntryCompleted       EventType = "entry_completed"
	EventEntryRequeued        EventType = "entry_requeued"
	EventEntryNoShow          EventType = "entry_no_show"
	EventQueueAcceptingChange EventType = "queue_accepting_changed"
)

// Event represents a domain event emitted by the queue service.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	QueueID   string      `json:"queue_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// EntryAddedPayload payload.
type EntryAddedPayload struct {
	EntryID       string `json:"entry_id"`
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	PartySize     int    `json:"party_size"`
	Position      int    `json:"position"`
	EstimatedWait int    `json:"estimated_wait_minutes"`
}

// EntryCalledPayload payload.
type EntryCalledPayload struct {
	EntryID       string `json:"entry_id"`
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	EstimatedWait int    `json:"estimated_wait_minutes"`
	OutOfOrder    bool   `json:"out_of_order"`
}

// EntryCompletedPayload payload.
type EntryCompletedPayload struct {
	EntryID    string             `json:"entry_id"`
	CustomerID string             `json:"customer_id"`
	Status     domain.EntryStatus `json:"status"`
}

// EntryRequeuedPayload payload.
type EntryRequeuedPayload struct {
	EntryID    string `json:"entry_id"`
	CustomerID string `json:"customer_id"`
	Position   int    `json:"position"`
}

// EntryNoShowPayload payload.
type EntryNoShowPayload struct {
	EntryID     string `json:"entry_id"`
	CustomerID  string `json:"customer_id"`
	NoShowCount int    `json:"no_show_count"`
}

// QueueAcceptingChangedPayload payload.
type QueueAcceptingChangedPayload struct {
	Accepting bool `json:"accepting"`
}
