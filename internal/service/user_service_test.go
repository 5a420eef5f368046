package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oladanielT/support-system/internal/config"
	"github.com/oladanielT/support-system/internal/domain"
	apperrors "github.com/oladanielT/support-system/pkg/util/errorutil"
)

func newAuthService(f *fixture) *AuthService {
	return NewAuthService(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 30, BcryptCost: 4},
		AuthDependencies{UserRepo: f.store.Users(), Clock: f.clock.Now})
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := newAuthService(f)

	session, err := auth.Register(ctx, RegisterInput{
		Email: "  New.Student@Example.edu ", Password: "correct-horse", FirstName: "New", LastName: "Student",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, session.User.Role)
	assert.Equal(t, "new.student@example.edu", session.User.Email)
	assert.Equal(t, domain.DefaultDepartment, session.User.Department)
	assert.NotEmpty(t, session.Token)

	claims, err := auth.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.Subject)

	_, err = auth.Register(ctx, RegisterInput{Email: "new.student@example.edu", Password: "another-pass"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = auth.Register(ctx, RegisterInput{Email: "not-an-email", Password: "short"})
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, domainErr.Code)
	assert.Contains(t, domainErr.Details, "email")
	assert.Contains(t, domainErr.Details, "password")

	_, err = auth.Login(ctx, "NEW.student@example.edu", "correct-horse")
	require.NoError(t, err)
	_, err = auth.Login(ctx, "new.student@example.edu", "wrong-horse")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = auth.Login(ctx, "nobody@example.edu", "correct-horse")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := newAuthService(f)
	users := NewUserService(UserDependencies{UserRepo: f.store.Users(), Clock: f.clock.Now})

	session, err := auth.Register(ctx, RegisterInput{Email: "leaver@example.edu", Password: "long-enough"})
	require.NoError(t, err)
	inactive := false
	_, err = users.AdminUpdate(ctx, f.admin, session.User.ID, AdminUserInput{Active: &inactive})
	require.NoError(t, err)

	_, err = auth.Login(ctx, "leaver@example.edu", "long-enough")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := newAuthService(f)
	session, err := auth.Register(ctx, RegisterInput{Email: "pw@example.edu", Password: "first-password"})
	require.NoError(t, err)
	actor := session.User.Actor()

	err = auth.ChangePassword(ctx, actor, "wrong", "second-password")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	require.NoError(t, auth.ChangePassword(ctx, actor, "first-password", "second-password"))

	_, err = auth.Login(ctx, "pw@example.edu", "second-password")
	assert.NoError(t, err)
}

func TestUserListingIsRoleScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := NewUserService(UserDependencies{UserRepo: f.store.Users()})

	self, err := users.List(ctx, f.user, UserListFilter{})
	require.NoError(t, err)
	require.Len(t, self.Items, 1)
	assert.Equal(t, f.user.ID, self.Items[0].ID)

	eng, err := users.List(ctx, f.engineer, UserListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, eng.Total)
	for _, u := range eng.Items {
		assert.NotEqual(t, domain.RoleAdmin, u.Role)
	}

	admins := domain.RoleAdmin
	hidden, err := users.List(ctx, f.engineer, UserListFilter{Role: &admins})
	require.NoError(t, err)
	assert.Empty(t, hidden.Items)

	all, err := users.List(ctx, f.admin, UserListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 6, all.Total)

	active := true
	activeAdmins, err := users.List(ctx, f.admin, UserListFilter{Role: &admins, Active: &active})
	require.NoError(t, err)
	assert.Equal(t, 1, activeAdmins.Total)

	searched, err := users.List(ctx, f.admin, UserListFilter{Search: strPtr("eve")})
	require.NoError(t, err)
	require.Equal(t, 1, searched.Total)
	assert.Equal(t, f.engineer.ID, searched.Items[0].ID)

	_, err = users.Get(ctx, f.user, f.user2.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	_, err = users.Get(ctx, f.engineer, f.admin.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	got, err := users.Get(ctx, f.engineer, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, got.ID)
}

func TestProfileAndAdminUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := NewUserService(UserDependencies{UserRepo: f.store.Users(), Clock: f.clock.Now})

	updated, err := users.UpdateProfile(ctx, f.user, ProfileInput{PhoneNumber: strPtr(" 555-0101 "), Department: strPtr("law")})
	require.NoError(t, err)
	assert.Equal(t, "555-0101", updated.PhoneNumber)
	assert.Equal(t, "law", updated.Department)

	_, err = users.UpdateProfile(ctx, f.user, ProfileInput{Department: strPtr("astrology")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	promote := domain.RoleEngineer
	_, err = users.AdminUpdate(ctx, f.engineer, f.user.ID, AdminUserInput{Role: &promote})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	promoted, err := users.AdminUpdate(ctx, f.admin, f.user.ID, AdminUserInput{Role: &promote})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEngineer, promoted.Role)

	off := false
	_, err = users.AdminUpdate(ctx, f.admin, f.admin.ID, AdminUserInput{Active: &off})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	profile, err := users.Profile(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEngineer, profile.Role)
}
