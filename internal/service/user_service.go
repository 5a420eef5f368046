package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/policy"
	"github.com/oladanielT/support-system/internal/repository"
	apperrors "github.com/oladanielT/support-system/pkg/util/errorutil"
)

// UserListFilter narrows a user listing.
type UserListFilter struct {
	Role       *domain.Role
	Department *string
	Active     *bool
	Search     *string
	Page       int
	PageSize   int
}

// UserPage is one page of accounts.
type UserPage struct {
	Items    []domain.User
	Total    int
	Page     int
	PageSize int
}

// ProfileInput carries self-service profile edits.
type ProfileInput struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	Department  *string
}

// AdminUserInput carries the fields only admins may change on other accounts.
type AdminUserInput struct {
	Role       *domain.Role
	Department *string
	Active     *bool
}

// UserService serves role-scoped account listings and profile edits.
type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
	now    func() time.Time
}

type UserDependencies struct {
	UserRepo repository.UserRepository
	Logger   *zap.Logger
	Clock    func() time.Time
}

func NewUserService(deps UserDependencies) *UserService {
	s := &UserService{users: deps.UserRepo, logger: deps.Logger, now: deps.Clock}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// List returns accounts visible to actor. A requested role outside actor's scope yields
// an empty page.
func (s *UserService) List(ctx context.Context, actor domain.Actor, filter UserListFilter) (*UserPage, error) {
	page, size := pagination(ComplaintListFilter{Page: filter.Page, PageSize: filter.PageSize})
	repoFilter, ok := userFilter(actor, filter)
	if !ok {
		return &UserPage{Items: []domain.User{}, Page: page, PageSize: size}, nil
	}
	repoFilter.Limit = size
	repoFilter.Offset = (page - 1) * size

	users, err := s.users.List(ctx, repoFilter)
	if err != nil {
		return nil, storeError(s.logger, err, "user", "")
	}
	total, err := s.users.Count(ctx, repoFilter)
	if err != nil {
		return nil, storeError(s.logger, err, "user", "")
	}
	if users == nil {
		users = []domain.User{}
	}
	return &UserPage{Items: users, Total: total, Page: page, PageSize: size}, nil
}

func userFilter(actor domain.Actor, filter UserListFilter) (repository.UserFilter, bool) {
	scope := policy.UserListScope(actor)
	out := repository.UserFilter{
		Department: filter.Department,
		Active:     filter.Active,
		SearchTerm: filter.Search,
	}
	if scope.SelfID != nil {
		out.IDs = []string{*scope.SelfID}
	}
	switch {
	case filter.Role != nil && len(scope.Roles) > 0:
		if !containsRole(scope.Roles, *filter.Role) {
			return out, false
		}
		out.Roles = []domain.Role{*filter.Role}
	case filter.Role != nil:
		out.Roles = []domain.Role{*filter.Role}
	default:
		out.Roles = scope.Roles
	}
	return out, true
}

func containsRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Get returns one account if actor may see it.
func (s *UserService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, err, "user", id)
	}
	scope := policy.UserListScope(actor)
	if scope.SelfID != nil && *scope.SelfID != user.ID {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	if len(scope.Roles) > 0 && !containsRole(scope.Roles, user.Role) {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return user, nil
}

// Profile returns actor's own account.
func (s *UserService) Profile(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, storeError(s.logger, err, "user", actor.ID)
	}
	return user, nil
}

// UpdateProfile applies self-service edits to actor's account.
func (s *UserService) UpdateProfile(ctx context.Context, actor domain.Actor, input ProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, storeError(s.logger, err, "user", actor.ID)
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*input.PhoneNumber)
	}
	if input.Department != nil {
		dept := strings.TrimSpace(*input.Department)
		if !domain.ValidDepartment(dept) {
			return nil, apperrors.NewFieldError("department", "unknown department")
		}
		user.Department = dept
	}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeError(s.logger, err, "user", actor.ID)
	}
	return user, nil
}

// AdminUpdate changes role, department or active flag of another account.
func (s *UserService) AdminUpdate(ctx context.Context, actor domain.Actor, id string, input AdminUserInput) (*domain.User, error) {
	if !policy.CanManageUsers(actor) {
		return nil, apperrors.NewForbidden("only admins can manage users")
	}
	if input.Role != nil && !input.Role.Valid() {
		return nil, apperrors.NewFieldError("role", "unknown role")
	}
	if input.Department != nil && !domain.ValidDepartment(*input.Department) {
		return nil, apperrors.NewFieldError("department", "unknown department")
	}
	if id == actor.ID && ((input.Active != nil && !*input.Active) || (input.Role != nil && *input.Role != domain.RoleAdmin)) {
		return nil, apperrors.NewConflict("admins cannot demote or deactivate themselves", nil)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, err, "user", id)
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Department != nil {
		user.Department = *input.Department
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeError(s.logger, err, "user", id)
	}
	s.logger.Info("account updated by admin",
		zap.String("admin_id", actor.ID),
		zap.String("user_id", id),
		zap.String("role", string(user.Role)),
		zap.Bool("active", user.Active))
	return user, nil
}
