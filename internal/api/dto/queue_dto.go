package dto

import (
	"time"

	"github.com/spec-kit/waitline/internal/domain"
)

// CreateQueueRequest payload.
type CreateQueueRequest struct {
	Name               string `json:"name"`
	MaxCapacity        int    `json:"max_capacity"`
	AverageServiceTime int    `json:"average_service_time_minutes"`
}

// JoinQueueRequest payload for the public join endpoint.
type JoinQueueRequest struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	PartySize     int    `json:"party_size"`
	Notes         string `json:"notes"`
}

// CallSpecificRequest payload.
type CallSpecificRequest struct {
	EntryID string `json:"entry_id"`
}

// CompleteRequest payload; status defaults to completed.
type CompleteRequest struct {
	EntryID string `json:"entry_id"`
	Status  string `json:"status"`
}

// VerifyRequest payload.
type VerifyRequest struct {
	EntryID string `json:"entry_id"`
	Code    string `json:"code"`
}

// RequeueRequest payload.
type RequeueRequest struct {
	EntryID string `json:"entry_id"`
}

// NotificationSettingsRequest payload for merchant configuration.
type NotificationSettingsRequest struct {
	FirstNotification int  `json:"first_notification_minutes"`
	FinalNotification int  `json:"final_notification_minutes"`
	GracePeriod       int  `json:"grace_period_minutes"`
	NoShowTimeout     int  `json:"no_show_timeout_minutes"`
	SendNoShowWarning bool `json:"send_no_show_warning"`

	TemplateCalled        string `json:"template_called"`
	TemplateAlmostReady   string `json:"template_almost_ready"`
	TemplateTableReady    string `json:"template_table_ready"`
	TemplateNoShowWarning string `json:"template_no_show_warning"`
	TemplateNoShowFinal   string `json:"template_no_show_final"`
}

// EntryResponse is the public view of one queue entry. The verification code
// only appears for the customer's own entry once called.
type EntryResponse struct {
	ID            string             `json:"id"`
	CustomerID    string             `json:"customer_id"`
	CustomerName  string             `json:"customer_name"`
	PartySize     int                `json:"party_size"`
	Position      int                `json:"position"`
	Status        domain.EntryStatus `json:"status"`
	EstimatedWait int                `json:"estimated_wait_minutes"`
	Code          string             `json:"code,omitempty"`
	JoinedAt      time.Time          `json:"joined_at"`
	CalledAt      *time.Time         `json:"called_at,omitempty"`
}

// QueueResponse is the staff view of a queue.
type QueueResponse struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	MaxCapacity        int             `json:"max_capacity"`
	AverageServiceTime int             `json:"average_service_time_minutes"`
	AcceptingCustomers bool            `json:"accepting_customers"`
	Waiting            int             `json:"waiting"`
	Active             int             `json:"active"`
	Entries            []EntryResponse `json:"entries,omitempty"`
}

// QueueStatsResponse summarizes a queue for the dashboard.
type QueueStatsResponse struct {
	QueueID            string `json:"queue_id"`
	Waiting            int    `json:"waiting"`
	Active             int    `json:"active"`
	ServedCount        int    `json:"served_count"`
	NoShowCount        int    `json:"no_show_count"`
	AverageServiceTime int    `json:"average_service_time_minutes"`
	AcceptingCustomers bool   `json:"accepting_customers"`
}
