package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "pending"
	StatusAssigned   ComplaintStatus = "assigned"
	StatusInProgress ComplaintStatus = "in_progress"
	StatusResolved   ComplaintStatus = "resolved"
	StatusClosed     ComplaintStatus = "closed"
)

// StatusDeleted only ever appears in the audit trail, never on a stored complaint.
const StatusDeleted ComplaintStatus = "deleted"

// OpenStatuses count against the per-user complaint quota.
var OpenStatuses = []ComplaintStatus{StatusPending, StatusAssigned, StatusInProgress}

// Valid reports whether s is a storable status.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Terminal statuses stop SLA accrual.
func (s ComplaintStatus) Terminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// ComplaintPriority enumerates SLA urgency.
type ComplaintPriority string

const (
	PriorityLow      ComplaintPriority = "low"
	PriorityMedium   ComplaintPriority = "medium"
	PriorityHigh     ComplaintPriority = "high"
	PriorityCritical ComplaintPriority = "critical"
)

func (p ComplaintPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ComplaintCategory classifies the reported problem.
type ComplaintCategory string

const (
	CategoryNetworkSlow  ComplaintCategory = "network_slow"
	CategoryNetworkDown  ComplaintCategory = "network_down"
	CategoryWifiIssues   ComplaintCategory = "wifi_issues"
	CategoryServerIssues ComplaintCategory = "server_issues"
	CategoryEmailIssues  ComplaintCategory = "email_issues"
	CategoryInternet     ComplaintCategory = "internet"
	CategoryOther        ComplaintCategory = "other"
)

func (c ComplaintCategory) Valid() bool {
	switch c {
	case CategoryNetworkSlow, CategoryNetworkDown, CategoryWifiIssues, CategoryServerIssues,
		CategoryEmailIssues, CategoryInternet, CategoryOther:
		return true
	}
	return false
}

// SLAPolicy maps a priority to the window after which an open complaint is overdue.
type SLAPolicy map[ComplaintPriority]time.Duration

// DefaultSLA is used when no policy is configured.
func DefaultSLA() SLAPolicy {
	return SLAPolicy{
		PriorityCritical: 2 * time.Hour,
		PriorityHigh:     24 * time.Hour,
		PriorityMedium:   72 * time.Hour,
		PriorityLow:      168 * time.Hour,
	}
}

// Window returns the SLA for p, falling back to the medium window.
func (p SLAPolicy) Window(priority ComplaintPriority) time.Duration {
	if d, ok := p[priority]; ok {
		return d
	}
	if d, ok := p[PriorityMedium]; ok {
		return d
	}
	return 72 * time.Hour
}

// UserSummary is the embedded projection of a related user.
type UserSummary struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Complaint is the aggregate for reported issues.
type Complaint struct {
	ID              string
	OfflineID       *string
	Title           string
	Description     string
	Category        ComplaintCategory
	Priority        ComplaintPriority
	Status          ComplaintStatus
	Location        string
	ContactInfo     string
	ResolutionNotes string
	AdminNotes      string
	IsSynced        bool
	SubmittedByID   string
	AssignedToID    *string
	SubmittedBy     *UserSummary
	AssignedTo      *UserSummary
	CreatedAt       time.Time
	UpdatedAt       time.Time
	AssignedAt      *time.Time
	ResolvedAt      *time.Time
}

// IsOverdue reports whether the complaint has outlived its SLA window at now.
func (c *Complaint) IsOverdue(now time.Time, sla SLAPolicy) bool {
	if c.Status.Terminal() {
		return false
	}
	return now.After(c.CreatedAt.Add(sla.Window(c.Priority)))
}

// IsAssignedTo reports whether userID is the current assignee.
func (c *Complaint) IsAssignedTo(userID string) bool {
	return c.AssignedToID != nil && *c.AssignedToID == userID
}

// Clone returns a copy that shares no pointers with c.
func (c *Complaint) Clone() *Complaint {
	cp := *c
	cp.OfflineID = cloneString(c.OfflineID)
	cp.AssignedToID = cloneString(c.AssignedToID)
	cp.AssignedAt = cloneTime(c.AssignedAt)
	cp.ResolvedAt = cloneTime(c.ResolvedAt)
	if c.SubmittedBy != nil {
		s := *c.SubmittedBy
		cp.SubmittedBy = &s
	}
	if c.AssignedTo != nil {
		a := *c.AssignedTo
		cp.AssignedTo = &a
	}
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
