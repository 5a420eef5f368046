package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oladanielT/support-system/internal/config"
	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/events"
	"github.com/oladanielT/support-system/internal/policy"
	"github.com/oladanielT/support-system/internal/repository"
)

const (
	defaultPageSize    = 20
	maxPageSize        = 100
	defaultBulkSyncLen = 100
)

// ComplaintService runs the complaint lifecycle and its role-scoped queries.
type ComplaintService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	cfg        config.LifecycleConfig
	logger     *zap.Logger
	now        func() time.Time
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Lifecycle  config.LifecycleConfig
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	s := &ComplaintService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		cfg:        deps.Lifecycle,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.cfg.SLA == nil {
		s.cfg.SLA = domain.DefaultSLA()
	}
	if s.cfg.OpenQuota <= 0 {
		s.cfg.OpenQuota = config.DefaultLifecycle().OpenQuota
	}
	if s.cfg.StoreTimeout <= 0 {
		s.cfg.StoreTimeout = config.DefaultLifecycle().StoreTimeout
	}
	return s
}

// ComplaintListFilter describes the caller-supplied search over a scoped collection.
type ComplaintListFilter struct {
	Statuses   []domain.ComplaintStatus
	Priorities []domain.ComplaintPriority
	Categories []domain.ComplaintCategory
	Search     *string
	Page       int
	PageSize   int
}

// ComplaintView is a complaint plus the fields derived at read time.
type ComplaintView struct {
	Complaint        *domain.Complaint
	IsOverdue        bool
	TimeSinceCreated string
	TimeToResolution *string
}

// ComplaintDetail adds the audit trail and attachments.
type ComplaintDetail struct {
	ComplaintView
	Updates     []domain.ComplaintUpdate
	Attachments []domain.Attachment
}

// ComplaintPage is one page of a listing.
type ComplaintPage struct {
	Items    []ComplaintView
	Total    int
	Page     int
	PageSize int
}

// List returns complaints visible to actor.
func (s *ComplaintService) List(ctx context.Context, actor domain.Actor, filter ComplaintListFilter) (*ComplaintPage, error) {
	return s.list(ctx, s.scopedFilter(actor, filter))
}

// ListMine returns complaints submitted by actor, still within actor's visibility.
func (s *ComplaintService) ListMine(ctx context.Context, actor domain.Actor, filter ComplaintListFilter) (*ComplaintPage, error) {
	repoFilter := s.scopedFilter(actor, filter)
	id := actor.ID
	repoFilter.SubmittedBy = &id
	return s.list(ctx, repoFilter)
}

// ListAssigned returns complaints assigned to an engineer actor; other roles get an empty page.
func (s *ComplaintService) ListAssigned(ctx context.Context, actor domain.Actor, filter ComplaintListFilter) (*ComplaintPage, error) {
	if !actor.IsEngineer() {
		page, size := pagination(filter)
		return &ComplaintPage{Items: []ComplaintView{}, Page: page, PageSize: size}, nil
	}
	repoFilter := s.scopedFilter(actor, filter)
	id := actor.ID
	repoFilter.AssignedTo = &id
	return s.list(ctx, repoFilter)
}

func (s *ComplaintService) list(ctx context.Context, filter repository.ComplaintFilter) (*ComplaintPage, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	items, err := s.store.Complaints().List(ctx, filter)
	if err != nil {
		return nil, storeError(s.logger, err, "complaint", "")
	}
	total, err := s.store.Complaints().Count(ctx, filter)
	if err != nil {
		return nil, storeError(s.logger, err, "complaint", "")
	}

	views := make([]ComplaintView, 0, len(items))
	for i := range items {
		views = append(views, s.View(&items[i]))
	}
	return &ComplaintPage{
		Items:    views,
		Total:    total,
		Page:     filter.Offset/filter.Limit + 1,
		PageSize: filter.Limit,
	}, nil
}

// Get returns the detail projection. Complaints outside actor's scope are reported as
// missing.
func (s *ComplaintService) Get(ctx context.Context, actor domain.Actor, id string) (*ComplaintDetail, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	complaint, err := s.visibleComplaint(ctx, s.store, actor, id)
	if err != nil {
		return nil, err
	}
	updates, err := s.store.Updates().ListByComplaint(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, err, "complaint", id)
	}
	attachments, err := s.store.Attachments().ListByComplaint(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, err, "complaint", id)
	}
	if updates == nil {
		updates = []domain.ComplaintUpdate{}
	}
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return &ComplaintDetail{ComplaintView: s.View(complaint), Updates: updates, Attachments: attachments}, nil
}

// History returns the audit trail, newest first.
func (s *ComplaintService) History(ctx context.Context, actor domain.Actor, id string) ([]domain.ComplaintUpdate, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if _, err := s.visibleComplaint(ctx, s.store, actor, id); err != nil {
		return nil, err
	}
	updates, err := s.store.Updates().ListByComplaint(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, err, "complaint", id)
	}
	return updates, nil
}

// View derives the read-time fields of c.
func (s *ComplaintService) View(c *domain.Complaint) ComplaintView {
	now := s.now()
	view := ComplaintView{
		Complaint:        c,
		IsOverdue:        c.IsOverdue(now, s.cfg.SLA),
		TimeSinceCreated: humanizeDuration(now.Sub(c.CreatedAt)) + " ago",
	}
	if c.ResolvedAt != nil {
		d := humanizeDuration(c.ResolvedAt.Sub(c.CreatedAt))
		view.TimeToResolution = &d
	}
	return view
}

// visibleComplaint loads id and hides it when actor may not view it.
func (s *ComplaintService) visibleComplaint(ctx context.Context, repos repository.Repositories, actor domain.Actor, id string) (*domain.Complaint, error) {
	complaint, err := repos.Complaints().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, err, "complaint", id)
	}
	if !policy.CanView(actor, complaint) {
		return nil, notFoundComplaint(id)
	}
	return complaint, nil
}

func (s *ComplaintService) scopedFilter(actor domain.Actor, filter ComplaintListFilter) repository.ComplaintFilter {
	scope := policy.ComplaintScope(actor)
	page, size := pagination(filter)
	return repository.ComplaintFilter{
		SubmittedBy: scope.SubmittedBy,
		AssignedTo:  scope.AssignedTo,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Categories:  filter.Categories,
		SearchTerm:  filter.Search,
		Limit:       size,
		Offset:      (page - 1) * size,
	}
}

func pagination(filter ComplaintListFilter) (page, size int) {
	page, size = filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func (s *ComplaintService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

// activeAdminIDs lists admins to notify. Lookup failures only cost the notification.
func (s *ComplaintService) activeAdminIDs(ctx context.Context) []string {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	active := true
	admins, err := s.store.Users().List(ctx, repository.UserFilter{Roles: []domain.Role{domain.RoleAdmin}, Active: &active})
	if err != nil {
		s.logger.Warn("admin lookup for notification failed", zap.Error(err))
		return nil
	}
	ids := make([]string, 0, len(admins))
	for _, a := range admins {
		ids = append(ids, a.ID)
	}
	return ids
}

// publish hands a committed change to subscribers. It runs detached from request
// cancellation and never fails the caller.
func (s *ComplaintService) publish(ctx context.Context, actor domain.Actor, eventType events.EventType, complaintID string, recipients []string, message string, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		ComplaintID: complaintID,
		Actor:       events.Actor{ID: actor.ID, Role: actor.Role, Name: actor.Name},
		Timestamp:   s.now(),
		Recipients:  dedupe(recipients),
		Message:     message,
		Payload:     payload,
	}
	if err := s.dispatcher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// humanizeDuration renders the largest whole unit: "2 days", "1 hour", "5 minutes".
func humanizeDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int((d % (24 * time.Hour)) / time.Hour)
	switch {
	case days > 0:
		return plural(days, "day")
	case hours > 0:
		return plural(hours, "hour")
	default:
		return plural(int(d/time.Minute), "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
