package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oladanielT/support-system/internal/auth"
	"github.com/oladanielT/support-system/internal/config"
	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/repository"
	apperrors "github.com/oladanielT/support-system/pkg/util/errorutil"
)

// RegisterInput describes a self-service signup or an operator-created account.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Department  string
}

func (in *RegisterInput) normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Department = strings.TrimSpace(in.Department)
	if in.Department == "" {
		in.Department = domain.DefaultDepartment
	}
}

func (in RegisterInput) validate() error {
	details := map[string]any{}
	if _, err := mail.ParseAddress(in.Email); err != nil || in.Email == "" {
		details["email"] = "a valid email is required"
	}
	if err := auth.CheckPasswordStrength(in.Password); err != nil {
		details["password"] = err.Error()
	}
	if !domain.ValidDepartment(in.Department) {
		details["department"] = "unknown department"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid registration", details)
	}
	return nil
}

// Session is an issued access token.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Logger   *zap.Logger
	Clock    func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	s := &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Register creates a user-role account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	user, err := s.createAccount(ctx, input, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateAccount creates an account with an explicit role. It backs the operator CLI.
func (s *AuthService) CreateAccount(ctx context.Context, input RegisterInput, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewFieldError("role", "unknown role")
	}
	return s.createAccount(ctx, input, role)
}

func (s *AuthService) createAccount(ctx context.Context, input RegisterInput, role domain.Role) (*domain.User, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		Role:         role,
		Department:   input.Department,
		PhoneNumber:  input.PhoneNumber,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeError(s.logger, err, "user", input.Email)
	}
	s.logger.Info("account created", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// Login authenticates by email and password. Unknown emails, wrong passwords and
// inactive accounts are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, storeError(s.logger, err, "user", "")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(user)
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, actor domain.Actor, currentPassword, newPassword string) error {
	if err := auth.CheckPasswordStrength(newPassword); err != nil {
		return apperrors.NewFieldError("new_password", err.Error())
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return storeError(s.logger, err, "user", actor.ID)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewFieldError("current_password", "current password is incorrect")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return storeError(s.logger, err, "user", actor.ID)
	}
	return nil
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
