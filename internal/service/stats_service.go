package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oladanielT/support-system/internal/config"
	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/policy"
	"github.com/oladanielT/support-system/internal/repository"
)

// Stats is the dashboard projection for one actor.
type Stats struct {
	Total             int
	Pending           int
	Assigned          int
	InProgress        int
	Resolved          int
	Closed            int
	HighPriority      int
	Overdue           int
	MyComplaints      int
	AvgResolutionTime string
	// ActiveEngineers is only reported to admins.
	ActiveEngineers *int
}

// StatsService aggregates complaints visible to the caller.
type StatsService struct {
	store   repository.Store
	sla     domain.SLAPolicy
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

type StatsDependencies struct {
	Store     repository.Store
	Lifecycle config.LifecycleConfig
	Logger    *zap.Logger
	Clock     func() time.Time
}

func NewStatsService(deps StatsDependencies) *StatsService {
	s := &StatsService{
		store:   deps.Store,
		sla:     deps.Lifecycle.SLA,
		timeout: deps.Lifecycle.StoreTimeout,
		logger:  deps.Logger,
		now:     deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.sla == nil {
		s.sla = domain.DefaultSLA()
	}
	if s.timeout <= 0 {
		s.timeout = config.DefaultLifecycle().StoreTimeout
	}
	return s
}

// Get computes stats over actor's scope.
func (s *StatsService) Get(ctx context.Context, actor domain.Actor) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	scope := policy.ComplaintScope(actor)
	complaints, err := s.store.Complaints().ListAll(ctx, repository.ComplaintFilter{
		SubmittedBy: scope.SubmittedBy,
		AssignedTo:  scope.AssignedTo,
	})
	if err != nil {
		return nil, storeError(s.logger, err, "complaint", "")
	}

	stats := Aggregate(complaints, actor.Role, s.now(), s.sla)
	if actor.IsAdmin() {
		active := true
		engineers, err := s.store.Users().Count(ctx, repository.UserFilter{
			Roles:  []domain.Role{domain.RoleEngineer},
			Active: &active,
		})
		if err != nil {
			return nil, storeError(s.logger, err, "user", "")
		}
		stats.ActiveEngineers = &engineers
	}
	return &stats, nil
}

// Aggregate folds an already scoped complaint set into Stats.
func Aggregate(complaints []domain.Complaint, role domain.Role, now time.Time, sla domain.SLAPolicy) Stats {
	var (
		stats    Stats
		resolved time.Duration
		samples  int
	)
	for i := range complaints {
		c := &complaints[i]
		stats.Total++
		switch c.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusAssigned:
			stats.Assigned++
		case domain.StatusInProgress:
			stats.InProgress++
		case domain.StatusResolved:
			stats.Resolved++
			if c.ResolvedAt != nil && !c.CreatedAt.IsZero() {
				resolved += c.ResolvedAt.Sub(c.CreatedAt)
				samples++
			}
		case domain.StatusClosed:
			stats.Closed++
		}
		if c.Priority == domain.PriorityHigh {
			stats.HighPriority++
		}
		if c.IsOverdue(now, sla) {
			stats.Overdue++
		}
	}
	if role != domain.RoleAdmin {
		stats.MyComplaints = stats.Total
	}
	stats.AvgResolutionTime = "N/A"
	if samples > 0 {
		stats.AvgResolutionTime = FormatResolutionTime(resolved / time.Duration(samples))
	}
	return stats
}

// FormatResolutionTime renders "1d 2h", or "5h" under a day.
func FormatResolutionTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int((d % (24 * time.Hour)) / time.Hour)
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dh", hours)
}
