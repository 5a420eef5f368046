package domain

import "time"

// UpdateType captures what changed in an audit entry.
type UpdateType string

const (
	UpdateCreation       UpdateType = "creation"
	UpdateStatusChange   UpdateType = "status_change"
	UpdateAssignment     UpdateType = "assignment"
	UpdatePriorityChange UpdateType = "priority_change"
	UpdateComment        UpdateType = "comment"
	UpdateResolution     UpdateType = "resolution"
)

// ComplaintUpdate is an immutable audit trail entry. Entries outlive the complaint
// they describe so deletions stay attributable.
type ComplaintUpdate struct {
	ID            string
	ComplaintID   string
	UpdatedByID   string
	UpdatedByName string
	UpdateType    UpdateType
	Message       string
	OldStatus     ComplaintStatus
	NewStatus     ComplaintStatus
	CreatedAt     time.Time
}
