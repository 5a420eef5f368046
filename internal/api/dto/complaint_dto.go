package dto

import (
	"time"

	"github.com/oladanielT/support-system/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	OfflineID   *string                  `json:"offline_id"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Category    domain.ComplaintCategory `json:"category"`
	Priority    domain.ComplaintPriority `json:"priority"`
	Location    string                   `json:"location"`
	ContactInfo string                   `json:"contact_info"`
}

// BulkSyncRequest carries complaints captured offline.
type BulkSyncRequest struct {
	Complaints []CreateComplaintRequest `json:"complaints"`
}

// AssignRequest payload.
type AssignRequest struct {
	EngineerID string `json:"engineer_id"`
}

// StatusRequest payload.
type StatusRequest struct {
	Status          domain.ComplaintStatus `json:"status"`
	ResolutionNotes *string                `json:"resolution_notes"`
}

// UpdateComplaintRequest is the partial update payload; absent fields are untouched.
type UpdateComplaintRequest struct {
	Status          *domain.ComplaintStatus   `json:"status"`
	AssignedTo      *string                   `json:"assigned_to"`
	Priority        *domain.ComplaintPriority `json:"priority"`
	ResolutionNotes *string                   `json:"resolution_notes"`
	AdminNotes      *string                   `json:"admin_notes"`
}

// CommentRequest payload.
type CommentRequest struct {
	Message string `json:"message"`
}

// UserSummary embeds a related account.
type UserSummary struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// ComplaintResponse is the list and mutation projection.
type ComplaintResponse struct {
	ID               string                   `json:"id"`
	OfflineID        *string                  `json:"offline_id"`
	Title            string                   `json:"title"`
	Description      string                   `json:"description"`
	Category         domain.ComplaintCategory `json:"category"`
	Priority         domain.ComplaintPriority `json:"priority"`
	Status           domain.ComplaintStatus   `json:"status"`
	Location         string                   `json:"location"`
	ContactInfo      string                   `json:"contact_info"`
	ResolutionNotes  string                   `json:"resolution_notes"`
	AdminNotes       string                   `json:"admin_notes,omitempty"`
	IsSynced         bool                     `json:"is_synced"`
	SubmittedBy      *UserSummary             `json:"submitted_by"`
	AssignedTo       *UserSummary             `json:"assigned_to"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
	AssignedAt       *time.Time               `json:"assigned_at"`
	ResolvedAt       *time.Time               `json:"resolved_at"`
	IsOverdue        bool                     `json:"is_overdue"`
	TimeSinceCreated string                   `json:"time_since_created"`
	TimeToResolution *string                  `json:"time_to_resolution"`
}

// ComplaintDetailResponse adds the audit trail and attachments.
type ComplaintDetailResponse struct {
	ComplaintResponse
	Updates     []ComplaintUpdateResponse `json:"updates"`
	Attachments []AttachmentResponse      `json:"attachments"`
}

// ComplaintUpdateResponse is one audit entry.
type ComplaintUpdateResponse struct {
	ID            string                 `json:"id"`
	ComplaintID   string                 `json:"complaint_id"`
	UpdatedBy     string                 `json:"updated_by"`
	UpdatedByName string                 `json:"updated_by_name"`
	UpdateType    domain.UpdateType      `json:"update_type"`
	Message       string                 `json:"message"`
	OldStatus     domain.ComplaintStatus `json:"old_status,omitempty"`
	NewStatus     domain.ComplaintStatus `json:"new_status,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// PageResponse wraps a paginated listing.
type PageResponse[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// BulkSyncFailure reports one rejected item.
type BulkSyncFailure struct {
	Index     int    `json:"index"`
	OfflineID string `json:"offline_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// BulkSyncResponse summarises a sync batch.
type BulkSyncResponse struct {
	Created    int                 `json:"created"`
	Skipped    int                 `json:"skipped"`
	Failed     []BulkSyncFailure   `json:"failed"`
	Complaints []ComplaintResponse `json:"complaints"`
}

// StatsResponse is the dashboard payload.
type StatsResponse struct {
	TotalComplaints   int    `json:"total_complaints"`
	Pending           int    `json:"pending"`
	Assigned          int    `json:"assigned"`
	InProgress        int    `json:"in_progress"`
	Resolved          int    `json:"resolved"`
	Closed            int    `json:"closed"`
	HighPriority      int    `json:"high_priority"`
	Overdue           int    `json:"overdue"`
	MyComplaints      int    `json:"my_complaints"`
	AvgResolutionTime string `json:"avg_resolution_time"`
	ActiveEngineers   *int   `json:"active_engineers,omitempty"`
}
