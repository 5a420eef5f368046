package events

import (
	"time"

	"github.com/oladanielT/support-system/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintAssigned      EventType = "complaint_assigned"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventComplaintUpdated       EventType = "complaint_updated"
	EventComplaintCommented     EventType = "complaint_commented"
	EventComplaintDeleted       EventType = "complaint_deleted"
)

// AllEventTypes lists every type the lifecycle engine publishes.
var AllEventTypes = []EventType{
	EventComplaintCreated,
	EventComplaintAssigned,
	EventComplaintStatusChanged,
	EventComplaintUpdated,
	EventComplaintCommented,
	EventComplaintDeleted,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
	Name string      `json:"name"`
}

// Event represents a committed lifecycle change. Recipients are resolved by the
// publisher; subscribers deliver Message to each of them.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	ComplaintID string    `json:"complaint_id"`
	Actor       Actor     `json:"actor"`
	Timestamp   time.Time `json:"timestamp"`
	Recipients  []string  `json:"recipients"`
	Message     string    `json:"message"`
	Payload     any       `json:"payload,omitempty"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	Title    string                   `json:"title"`
	Category domain.ComplaintCategory `json:"category"`
	Priority domain.ComplaintPriority `json:"priority"`
	Synced   bool                     `json:"synced"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
}

// ComplaintAssignedPayload payload.
type ComplaintAssignedPayload struct {
	EngineerID   string `json:"engineer_id"`
	EngineerName string `json:"engineer_name"`
}

// ComplaintUpdatedPayload payload.
type ComplaintUpdatedPayload struct {
	Fields []string `json:"fields"`
}
