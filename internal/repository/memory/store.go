// Package memory is an in-process Store used by tests and by the server when no
// Postgres DSN is configured. Transactions serialize on a single mutex and roll
// back by restoring a snapshot.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/repository"
)

type state struct {
	users         map[string]domain.User
	complaints    map[string]domain.Complaint
	updates       []domain.ComplaintUpdate
	notifications map[string]domain.Notification
	attachments   map[string]domain.Attachment
}

func newState() *state {
	return &state{
		users:         map[string]domain.User{},
		complaints:    map[string]domain.Complaint{},
		notifications: map[string]domain.Notification{},
		attachments:   map[string]domain.Attachment{},
	}
}

func (s *state) snapshot() *state {
	cp := newState()
	for k, v := range s.users {
		cp.users[k] = v
	}
	for k, v := range s.complaints {
		cp.complaints[k] = *v.Clone()
	}
	cp.updates = append([]domain.ComplaintUpdate(nil), s.updates...)
	for k, v := range s.notifications {
		cp.notifications[k] = v
	}
	for k, v := range s.attachments {
		cp.attachments[k] = v
	}
	return cp
}

// Store satisfies repository.Store.
type Store struct {
	mu    sync.Mutex
	state *state
	repos *repos
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{state: newState()}
	s.repos = &repos{store: s, locking: true}
	return s
}

func (s *Store) Complaints() repository.ComplaintRepository { return s.repos.Complaints() }
func (s *Store) Updates() repository.ComplaintUpdateRepository { return s.repos.Updates() }
func (s *Store) Users() repository.UserRepository { return s.repos.Users() }
func (s *Store) Notifications() repository.NotificationRepository { return s.repos.Notifications() }
func (s *Store) Attachments() repository.AttachmentRepository { return s.repos.Attachments() }

// WithinTx holds the store lock for the duration of fn.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.state.snapshot()
	if err := fn(&repos{store: s}); err != nil {
		s.state = saved
		return err
	}
	return nil
}

type repos struct {
	store   *Store
	locking bool
}

func (r *repos) Complaints() repository.ComplaintRepository { return &complaintRepo{r} }
func (r *repos) Updates() repository.ComplaintUpdateRepository { return &updateRepo{r} }
func (r *repos) Users() repository.UserRepository { return &userRepo{r} }
func (r *repos) Notifications() repository.NotificationRepository { return &notificationRepo{r} }
func (r *repos) Attachments() repository.AttachmentRepository { return &attachmentRepo{r} }

// with runs fn against the current state, taking the lock unless a transaction already holds it.
func (r *repos) with(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.locking {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	return fn(r.store.state)
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

type complaintRepo struct{ *repos }

func (r *complaintRepo) hydrate(st *state, c domain.Complaint) domain.Complaint {
	out := *c.Clone()
	if u, ok := st.users[c.SubmittedByID]; ok {
		out.SubmittedBy = u.Summary()
	}
	if c.AssignedToID != nil {
		if u, ok := st.users[*c.AssignedToID]; ok {
			out.AssignedTo = u.Summary()
		}
	} else {
		out.AssignedTo = nil
	}
	return out
}

func (r *complaintRepo) Create(ctx context.Context, c *domain.Complaint) error {
	return r.with(ctx, func(st *state) error {
		if c.OfflineID != nil {
			for _, existing := range st.complaints {
				if existing.OfflineID != nil && *existing.OfflineID == *c.OfflineID {
					return repository.ErrDuplicateOfflineID
				}
			}
		}
		st.complaints[c.ID] = *c.Clone()
		return nil
	})
}

func (r *complaintRepo) Update(ctx context.Context, c *domain.Complaint) error {
	return r.with(ctx, func(st *state) error {
		if _, ok := st.complaints[c.ID]; !ok {
			return repository.ErrNotFound
		}
		st.complaints[c.ID] = *c.Clone()
		return nil
	})
}

func (r *complaintRepo) Delete(ctx context.Context, id string) error {
	return r.with(ctx, func(st *state) error {
		if _, ok := st.complaints[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.complaints, id)
		for k, a := range st.attachments {
			if a.ComplaintID == id {
				delete(st.attachments, k)
			}
		}
		return nil
	})
}

func (r *complaintRepo) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	var out *domain.Complaint
	err := r.with(ctx, func(st *state) error {
		c, ok := st.complaints[id]
		if !ok {
			return repository.ErrNotFound
		}
		h := r.hydrate(st, c)
		out = &h
		return nil
	})
	return out, err
}

func (r *complaintRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Complaint, error) {
	return r.GetByID(ctx, id)
}

func (r *complaintRepo) ExistsByOfflineID(ctx context.Context, offlineID string) (bool, error) {
	var found bool
	err := r.with(ctx, func(st *state) error {
		for _, c := range st.complaints {
			if c.OfflineID != nil && *c.OfflineID == offlineID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *complaintRepo) CountOpenBySubmitter(ctx context.Context, userID string) (int, error) {
	return r.Count(ctx, repository.ComplaintFilter{SubmittedBy: &userID, Statuses: domain.OpenStatuses})
}

func (r *complaintRepo) filter(st *state, f repository.ComplaintFilter) []domain.Complaint {
	var term string
	if f.SearchTerm != nil {
		term = strings.ToLower(strings.TrimSpace(*f.SearchTerm))
	}
	var result []domain.Complaint
	for _, c := range st.complaints {
		if f.SubmittedBy != nil && c.SubmittedByID != *f.SubmittedBy {
			continue
		}
		if f.AssignedTo != nil && !c.IsAssignedTo(*f.AssignedTo) {
			continue
		}
		if len(f.Statuses) > 0 && !contains(f.Statuses, c.Status) {
			continue
		}
		if len(f.Priorities) > 0 && !contains(f.Priorities, c.Priority) {
			continue
		}
		if len(f.Categories) > 0 && !contains(f.Categories, c.Category) {
			continue
		}
		if term != "" && !containsFold(c.Title, term) && !containsFold(c.Description, term) && !containsFold(c.Location, term) {
			continue
		}
		result = append(result, r.hydrate(st, c))
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (r *complaintRepo) List(ctx context.Context, f repository.ComplaintFilter) ([]domain.Complaint, error) {
	var out []domain.Complaint
	err := r.with(ctx, func(st *state) error {
		limit := f.Limit
		if limit <= 0 {
			limit = 20
		}
		out = page(r.filter(st, f), limit, f.Offset)
		return nil
	})
	return out, err
}

func (r *complaintRepo) ListAll(ctx context.Context, f repository.ComplaintFilter) ([]domain.Complaint, error) {
	var out []domain.Complaint
	err := r.with(ctx, func(st *state) error {
		out = r.filter(st, f)
		return nil
	})
	return out, err
}

func (r *complaintRepo) Count(ctx context.Context, f repository.ComplaintFilter) (int, error) {
	var n int
	err := r.with(ctx, func(st *state) error {
		n = len(r.filter(st, f))
		return nil
	})
	return n, err
}

func contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

type updateRepo struct{ *repos }

func (r *updateRepo) Create(ctx context.Context, u *domain.ComplaintUpdate) error {
	return r.with(ctx, func(st *state) error {
		st.updates = append(st.updates, *u)
		return nil
	})
}

func (r *updateRepo) ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintUpdate, error) {
	var out []domain.ComplaintUpdate
	err := r.with(ctx, func(st *state) error {
		// walk backwards so equal timestamps keep newest-insert-first order
		for i := len(st.updates) - 1; i >= 0; i-- {
			u := st.updates[i]
			if u.ComplaintID != complaintID {
				continue
			}
			if usr, ok := st.users[u.UpdatedByID]; ok {
				u.UpdatedByName = usr.FullName()
			}
			out = append(out, u)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

type userRepo struct{ *repos }

func (r *userRepo) Create(ctx context.Context, u *domain.User) error {
	return r.with(ctx, func(st *state) error {
		for _, existing := range st.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return repository.ErrDuplicateEmail
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepo) Update(ctx context.Context, u *domain.User) error {
	return r.with(ctx, func(st *state) error {
		if _, ok := st.users[u.ID]; !ok {
			return repository.ErrNotFound
		}
		for id, existing := range st.users {
			if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
				return repository.ErrDuplicateEmail
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.with(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.with(ctx, func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				found := u
				out = &found
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *userRepo) filter(st *state, f repository.UserFilter) []domain.User {
	var term string
	if f.SearchTerm != nil {
		term = strings.ToLower(strings.TrimSpace(*f.SearchTerm))
	}
	var result []domain.User
	for _, u := range st.users {
		if len(f.IDs) > 0 && !contains(f.IDs, u.ID) {
			continue
		}
		if len(f.Roles) > 0 && !contains(f.Roles, u.Role) {
			continue
		}
		if f.Department != nil && u.Department != *f.Department {
			continue
		}
		if f.Active != nil && u.Active != *f.Active {
			continue
		}
		if term != "" && !containsFold(u.Email, term) && !containsFold(u.FirstName, term) && !containsFold(u.LastName, term) {
			continue
		}
		result = append(result, u)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (r *userRepo) List(ctx context.Context, f repository.UserFilter) ([]domain.User, error) {
	var out []domain.User
	err := r.with(ctx, func(st *state) error {
		out = page(r.filter(st, f), f.Limit, f.Offset)
		return nil
	})
	return out, err
}

func (r *userRepo) Count(ctx context.Context, f repository.UserFilter) (int, error) {
	var n int
	err := r.with(ctx, func(st *state) error {
		n = len(r.filter(st, f))
		return nil
	})
	return n, err
}

type notificationRepo struct{ *repos }

func (r *notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	return r.with(ctx, func(st *state) error {
		st.notifications[n.ID] = *n
		return nil
	})
}

func (r *notificationRepo) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.Notification
	err := r.with(ctx, func(st *state) error {
		var all []domain.Notification
		for _, n := range st.notifications {
			if n.RecipientID != recipientID || (unreadOnly && n.Read) {
				continue
			}
			all = append(all, n)
		}
		sort.SliceStable(all, func(i, j int) bool {
			if all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].ID > all[j].ID
			}
			return all[i].CreatedAt.After(all[j].CreatedAt)
		})
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r *notificationRepo) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.with(ctx, func(st *state) error {
		for _, n := range st.notifications {
			if n.RecipientID == recipientID && !n.Read {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *notificationRepo) MarkRead(ctx context.Context, recipientID, id string) error {
	return r.with(ctx, func(st *state) error {
		n, ok := st.notifications[id]
		if !ok || n.RecipientID != recipientID {
			return repository.ErrNotFound
		}
		n.Read = true
		st.notifications[id] = n
		return nil
	})
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.with(ctx, func(st *state) error {
		for id, n := range st.notifications {
			if n.RecipientID == recipientID && !n.Read {
				n.Read = true
				st.notifications[id] = n
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *notificationRepo) DeleteAll(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.with(ctx, func(st *state) error {
		for id, n := range st.notifications {
			if n.RecipientID == recipientID {
				delete(st.notifications, id)
				count++
			}
		}
		return nil
	})
	return count, err
}

type attachmentRepo struct{ *repos }

func (r *attachmentRepo) Create(ctx context.Context, a *domain.Attachment) error {
	return r.with(ctx, func(st *state) error {
		if _, ok := st.complaints[a.ComplaintID]; !ok {
			return repository.ErrNotFound
		}
		st.attachments[a.ID] = *a
		return nil
	})
}

func (r *attachmentRepo) ListByComplaint(ctx context.Context, complaintID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	err := r.with(ctx, func(st *state) error {
		for _, a := range st.attachments {
			if a.ComplaintID == complaintID {
				out = append(out, a)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
		return nil
	})
	return out, err
}

var _ repository.Store = (*Store)(nil)
