package domain

import (
	"strings"
	"time"
)

// Role determines what an actor may see and change.
type Role string

const (
	RoleUser     Role = "user"
	RoleEngineer Role = "engineer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleEngineer || r == RoleAdmin
}

// Department values accepted on user profiles.
var Departments = []string{
	"computer_science", "engineering", "medicine", "law",
	"arts", "sciences", "administration", "ict",
}

// DefaultDepartment is assigned on registration.
const DefaultDepartment = "ict"

// ValidDepartment reports whether d is a known department.
func ValidDepartment(d string) bool {
	for _, known := range Departments {
		if known == d {
			return true
		}
	}
	return false
}

// User is an account known to the identity provider.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         Role
	Department   string
	PhoneNumber  string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name, falling back to the email.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Actor converts the account into the identity used by the core.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role, Name: u.FullName()}
}

// Summary returns the embedded projection of u.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.FullName(), Email: u.Email, Role: u.Role}
}

// Actor is the authenticated identity making a request.
type Actor struct {
	ID   string
	Role Role
	Name string
}

func (a Actor) IsAdmin() bool    { return a.Role == RoleAdmin }
func (a Actor) IsEngineer() bool { return a.Role == RoleEngineer }
func (a Actor) IsUser() bool     { return a.Role == RoleUser }
