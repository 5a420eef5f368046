package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/policy"
)

var (
	admin    = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	engineer = domain.Actor{ID: "eng-1", Role: domain.RoleEngineer}
	other    = domain.Actor{ID: "eng-2", Role: domain.RoleEngineer}
	owner    = domain.Actor{ID: "user-1", Role: domain.RoleUser}
	stranger = domain.Actor{ID: "user-2", Role: domain.RoleUser}
)

func complaintFor(submitter string, assignee *string) *domain.Complaint {
	return &domain.Complaint{ID: "c-1", SubmittedByID: submitter, AssignedToID: assignee, Status: domain.StatusPending}
}

func ptr(s string) *string { return &s }

func TestCanView(t *testing.T) {
	assigned := complaintFor(owner.ID, ptr(engineer.ID))
	unassigned := complaintFor(owner.ID, nil)

	assert.True(t, policy.CanView(admin, unassigned))
	assert.True(t, policy.CanView(owner, assigned))
	assert.False(t, policy.CanView(stranger, assigned))
	assert.True(t, policy.CanView(engineer, assigned))
	assert.False(t, policy.CanView(other, assigned))
	assert.False(t, policy.CanView(engineer, unassigned), "engineers never see unassigned complaints")
}

func TestAssignIsAdminOnly(t *testing.T) {
	assert.True(t, policy.CanAssign(admin))
	assert.False(t, policy.CanAssign(engineer))
	assert.False(t, policy.CanAssign(owner))
}

func TestCanChangeStatus(t *testing.T) {
	c := complaintFor(owner.ID, ptr(engineer.ID))

	assert.True(t, policy.CanChangeStatus(admin, c))
	assert.True(t, policy.CanChangeStatus(owner, c))
	assert.True(t, policy.CanChangeStatus(engineer, c))
	assert.False(t, policy.CanChangeStatus(stranger, c))
	assert.False(t, policy.CanChangeStatus(other, c))
}

func TestCanDelete(t *testing.T) {
	c := complaintFor(owner.ID, ptr(engineer.ID))

	assert.True(t, policy.CanDelete(admin, c))
	assert.True(t, policy.CanDelete(owner, c))
	assert.False(t, policy.CanDelete(engineer, c))
	assert.False(t, policy.CanDelete(stranger, c))
}

func TestCanUpdateFields(t *testing.T) {
	c := complaintFor(owner.ID, ptr(engineer.ID))

	ok, _ := policy.CanUpdateFields(admin, c, []string{policy.FieldAssignedTo, policy.FieldAdminNotes})
	assert.True(t, ok)

	ok, field := policy.CanUpdateFields(engineer, c, []string{policy.FieldStatus, policy.FieldPriority})
	assert.True(t, ok)
	assert.Empty(t, field)

	ok, field = policy.CanUpdateFields(engineer, c, []string{policy.FieldStatus, policy.FieldAssignedTo})
	assert.False(t, ok)
	assert.Equal(t, policy.FieldAssignedTo, field)

	ok, _ = policy.CanUpdateFields(owner, c, []string{policy.FieldStatus})
	assert.False(t, ok)
}

func TestComplaintScope(t *testing.T) {
	mine := complaintFor(owner.ID, ptr(engineer.ID))
	theirs := complaintFor(stranger.ID, nil)

	assert.Equal(t, policy.Scope{}, policy.ComplaintScope(admin))

	userScope := policy.ComplaintScope(owner)
	assert.True(t, userScope.Contains(mine))
	assert.False(t, userScope.Contains(theirs))

	engScope := policy.ComplaintScope(engineer)
	assert.True(t, engScope.Contains(mine))
	assert.False(t, engScope.Contains(theirs))
}

func TestUserListScope(t *testing.T) {
	assert.Equal(t, policy.UserScope{}, policy.UserListScope(admin))

	engScope := policy.UserListScope(engineer)
	assert.Nil(t, engScope.SelfID)
	assert.ElementsMatch(t, []domain.Role{domain.RoleUser, domain.RoleEngineer}, engScope.Roles)

	userScope := policy.UserListScope(owner)
	if assert.NotNil(t, userScope.SelfID) {
		assert.Equal(t, owner.ID, *userScope.SelfID)
	}
}

func TestUnknownRoleIsDenied(t *testing.T) {
	ghost := domain.Actor{ID: "x", Role: domain.Role("auditor")}
	assert.False(t, policy.CanView(ghost, complaintFor("x", nil)))
	assert.False(t, policy.Allowed(ghost, policy.OpComment, complaintFor("x", nil)))
}
