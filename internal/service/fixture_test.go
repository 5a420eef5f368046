package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oladanielT/support-system/internal/config"
	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/events"
	"github.com/oladanielT/support-system/internal/repository/memory"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *eventRecorder) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type fixture struct {
	store      *memory.Store
	clock      *testClock
	dispatcher events.Dispatcher
	recorder   *eventRecorder
	complaints *ComplaintService
	stats      *StatsService

	admin         domain.Actor
	inactiveAdmin domain.Actor
	engineer      domain.Actor
	engineer2     domain.Actor
	user          domain.Actor
	user2         domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      memory.NewStore(),
		clock:      newTestClock(),
		dispatcher: events.NewInMemoryDispatcher(nil),
		recorder:   &eventRecorder{},
	}
	events.SubscribeAll(f.dispatcher, f.recorder.handle)

	lifecycle := config.DefaultLifecycle()
	f.complaints = NewComplaintService(ComplaintDependencies{
		Store:      f.store,
		Dispatcher: f.dispatcher,
		Lifecycle:  lifecycle,
		Clock:      f.clock.Now,
	})
	f.stats = NewStatsService(StatsDependencies{Store: f.store, Lifecycle: lifecycle, Clock: f.clock.Now})

	f.admin = f.seedUser(t, "admin-1", "Ada", "Admin", domain.RoleAdmin, true)
	f.inactiveAdmin = f.seedUser(t, "admin-2", "Old", "Admin", domain.RoleAdmin, false)
	f.engineer = f.seedUser(t, "eng-1", "Eve", "Engineer", domain.RoleEngineer, true)
	f.engineer2 = f.seedUser(t, "eng-2", "Ed", "Engineer", domain.RoleEngineer, true)
	f.user = f.seedUser(t, "user-1", "Uma", "User", domain.RoleUser, true)
	f.user2 = f.seedUser(t, "user-2", "Ugo", "User", domain.RoleUser, true)
	return f
}

func (f *fixture) seedUser(t *testing.T, id, first, last string, role domain.Role, active bool) domain.Actor {
	t.Helper()
	u := &domain.User{
		ID:         id,
		Email:      id + "@example.edu",
		FirstName:  first,
		LastName:   last,
		Role:       role,
		Department: domain.DefaultDepartment,
		Active:     active,
		CreatedAt:  f.clock.Now(),
		UpdatedAt:  f.clock.Now(),
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u.Actor()
}

func (f *fixture) create(t *testing.T, actor domain.Actor, title string) *domain.Complaint {
	t.Helper()
	c, err := f.complaints.Create(context.Background(), actor, CreateComplaintInput{
		Title:       title,
		Description: "Nothing loads on the third floor",
		Category:    domain.CategoryWifiIssues,
		Priority:    domain.PriorityHigh,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) history(t *testing.T, id string) []domain.ComplaintUpdate {
	t.Helper()
	updates, err := f.store.Updates().ListByComplaint(context.Background(), id)
	require.NoError(t, err)
	return updates
}

func countType(updates []domain.ComplaintUpdate, typ domain.UpdateType) int {
	n := 0
	for _, u := range updates {
		if u.UpdateType == typ {
			n++
		}
	}
	return n
}

func strPtr(s string) *string { return &s }
