package domain

import (
	"strings"
	"time"
)

// Role enumerates the three actor roles.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperadmin Role = "SUPERADMIN"
)

// IsValid reports enum membership.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleSuperadmin
}

// IsStaff reports whether the role may triage tickets.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
	UserStatusFrozen    UserStatus = "FROZEN"
)

// User is the domain model for everyone who touches tickets,
// from requesters up to the superadmin.
type User struct {
	ID           string
	Name         string
	Email        string
	CompanyName  string
	PasswordHash string
	Role         Role
	DepartmentID *string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EmailDomain returns the lower-cased domain part of the user's email,
// or "" when the address has no domain.
func (u *User) EmailDomain() string {
	at := strings.LastIndex(u.Email, "@")
	if at < 0 || at == len(u.Email)-1 {
		return ""
	}
	return strings.ToLower(u.Email[at+1:])
}
