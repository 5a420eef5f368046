package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oladanielT/support-system/internal/domain"
)

func TestComplaintIsOverdue(t *testing.T) {
	sla := domain.DefaultSLA()
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		priority domain.ComplaintPriority
		status   domain.ComplaintStatus
		elapsed  time.Duration
		want     bool
	}{
		{"critical inside window", domain.PriorityCritical, domain.StatusPending, 90 * time.Minute, false},
		{"critical past window", domain.PriorityCritical, domain.StatusPending, 3 * time.Hour, true},
		{"high past window", domain.PriorityHigh, domain.StatusInProgress, 25 * time.Hour, true},
		{"medium inside window", domain.PriorityMedium, domain.StatusAssigned, 71 * time.Hour, false},
		{"low past window", domain.PriorityLow, domain.StatusPending, 169 * time.Hour, true},
		{"resolved never overdue", domain.PriorityCritical, domain.StatusResolved, 1000 * time.Hour, false},
		{"closed never overdue", domain.PriorityLow, domain.StatusClosed, 1000 * time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &domain.Complaint{Priority: tt.priority, Status: tt.status, CreatedAt: created}
			assert.Equal(t, tt.want, c.IsOverdue(created.Add(tt.elapsed), sla))
		})
	}
}

func TestSLAPolicyWindowFallsBackToMedium(t *testing.T) {
	sla := domain.SLAPolicy{domain.PriorityMedium: 10 * time.Hour}
	assert.Equal(t, 10*time.Hour, sla.Window(domain.PriorityCritical))
	assert.Equal(t, 72*time.Hour, domain.SLAPolicy{}.Window(domain.PriorityLow))
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, domain.StatusInProgress.Valid())
	assert.False(t, domain.StatusDeleted.Valid())
	assert.False(t, domain.ComplaintStatus("done").Valid())
	assert.True(t, domain.CategoryWifiIssues.Valid())
	assert.False(t, domain.ComplaintCategory("printer").Valid())
	assert.True(t, domain.PriorityCritical.Valid())
	assert.False(t, domain.ComplaintPriority("urgent").Valid())
}

func TestUserFullNameFallsBackToEmail(t *testing.T) {
	u := &domain.User{Email: "eng@example.com"}
	assert.Equal(t, "eng@example.com", u.FullName())
	u.FirstName, u.LastName = "Ada", "Obi"
	assert.Equal(t, "Ada Obi", u.FullName())
}

func TestCloneDoesNotShareTimestamps(t *testing.T) {
	now := time.Now()
	c := &domain.Complaint{ResolvedAt: &now}
	cp := c.Clone()
	later := now.Add(time.Hour)
	*cp.ResolvedAt = later
	assert.Equal(t, now, *c.ResolvedAt)
}
