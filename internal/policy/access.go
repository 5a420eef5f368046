// Package policy holds every role decision the service makes. Handlers and services ask
// here instead of comparing role strings themselves.
package policy

import "github.com/oladanielT/support-system/internal/domain"

// Operation is an intent an actor may attempt on a complaint.
type Operation string

const (
	OpAssign       Operation = "assign"
	OpChangeStatus Operation = "change_status"
	OpUpdateFields Operation = "update_fields"
	OpComment      Operation = "comment"
	OpDelete       Operation = "delete"
	OpAttach       Operation = "attach"
)

// rule decides an operation for one role. c is nil for collection-level checks.
type rule func(actor domain.Actor, c *domain.Complaint) bool

func always(domain.Actor, *domain.Complaint) bool { return true }
func never(domain.Actor, *domain.Complaint) bool  { return false }

func submitter(actor domain.Actor, c *domain.Complaint) bool {
	return c != nil && c.SubmittedByID == actor.ID
}

func assignee(actor domain.Actor, c *domain.Complaint) bool {
	return c != nil && c.IsAssignedTo(actor.ID)
}

var rules = map[domain.Role]map[Operation]rule{
	domain.RoleAdmin: {
		OpAssign:       always,
		OpChangeStatus: always,
		OpUpdateFields: always,
		OpComment:      always,
		OpDelete:       always,
		OpAttach:       always,
	},
	domain.RoleEngineer: {
		OpAssign:       never,
		OpChangeStatus: assignee,
		OpUpdateFields: assignee,
		OpComment:      assignee,
		OpDelete:       never,
		OpAttach:       assignee,
	},
	domain.RoleUser: {
		OpAssign:       never,
		OpChangeStatus: submitter,
		OpUpdateFields: never,
		OpComment:      submitter,
		OpDelete:       submitter,
		OpAttach:       submitter,
	},
}

// Allowed reports whether actor may perform op on c.
func Allowed(actor domain.Actor, op Operation, c *domain.Complaint) bool {
	byOp, ok := rules[actor.Role]
	if !ok {
		return false
	}
	r, ok := byOp[op]
	if !ok {
		return false
	}
	return r(actor, c)
}

// CanView is the single-item visibility check. It applies the same scope the actor's
// collection queries run under, so lists and lookups never disagree.
func CanView(actor domain.Actor, c *domain.Complaint) bool {
	if _, known := rules[actor.Role]; !known || c == nil {
		return false
	}
	return ComplaintScope(actor).Contains(c)
}

// CanAssign is role-only: admins assign.
func CanAssign(actor domain.Actor) bool {
	return Allowed(actor, OpAssign, nil)
}

func CanChangeStatus(actor domain.Actor, c *domain.Complaint) bool {
	return Allowed(actor, OpChangeStatus, c)
}

func CanDelete(actor domain.Actor, c *domain.Complaint) bool {
	return Allowed(actor, OpDelete, c)
}

// Field names accepted by the bulk update path.
const (
	FieldStatus          = "status"
	FieldAssignedTo      = "assigned_to"
	FieldPriority        = "priority"
	FieldResolutionNotes = "resolution_notes"
	FieldAdminNotes      = "admin_notes"
)

var adminOnlyFields = map[string]struct{}{
	FieldAssignedTo: {},
	FieldAdminNotes: {},
}

// CanUpdateFields checks the bulk update path. It returns the first field the actor may
// not touch, or "" when the whole change set is permitted.
func CanUpdateFields(actor domain.Actor, c *domain.Complaint, fields []string) (bool, string) {
	if !Allowed(actor, OpUpdateFields, c) {
		return false, ""
	}
	if actor.IsAdmin() {
		return true, ""
	}
	for _, f := range fields {
		if _, restricted := adminOnlyFields[f]; restricted {
			return false, f
		}
	}
	return true, ""
}

// Scope is the collection filter an actor's queries run under.
type Scope struct {
	SubmittedBy *string
	AssignedTo  *string
}

// Contains reports whether c falls inside the scope.
func (s Scope) Contains(c *domain.Complaint) bool {
	if s.SubmittedBy != nil && c.SubmittedByID != *s.SubmittedBy {
		return false
	}
	if s.AssignedTo != nil && !c.IsAssignedTo(*s.AssignedTo) {
		return false
	}
	return true
}

// ComplaintScope returns the visibility filter for actor. Engineers see strictly their own
// assignments; unassigned complaints are admin-only.
func ComplaintScope(actor domain.Actor) Scope {
	id := actor.ID
	switch actor.Role {
	case domain.RoleAdmin:
		return Scope{}
	case domain.RoleEngineer:
		return Scope{AssignedTo: &id}
	default:
		return Scope{SubmittedBy: &id}
	}
}

// UserScope restricts user listings.
type UserScope struct {
	SelfID *string
	Roles  []domain.Role
}

// UserListScope returns which accounts actor may list.
func UserListScope(actor domain.Actor) UserScope {
	switch actor.Role {
	case domain.RoleAdmin:
		return UserScope{}
	case domain.RoleEngineer:
		return UserScope{Roles: []domain.Role{domain.RoleUser, domain.RoleEngineer}}
	default:
		id := actor.ID
		return UserScope{SelfID: &id}
	}
}

// CanManageUsers gates role/department/active changes on other accounts.
func CanManageUsers(actor domain.Actor) bool {
	return actor.IsAdmin()
}
