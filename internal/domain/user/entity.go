package user

import "time"

type Role string

const (
	RoleAdmin      Role = "admin"      // Full access, never needs approval
	RoleHR         Role = "hr"         // Human resources, approves anything
	RoleSupervisor Role = "supervisor" // Approves requests inside their sector subtree
	RoleEmployee   Role = "employee"   // Regular employee
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleSupervisor, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID         string
	Name       string
	Email      string
	Role       Role
	SectorID   *string
	Department string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsAdmin checks if user holds the administrative role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsHR checks if user belongs to human resources
func (u *User) IsHR() bool {
	return u.Role == RoleHR
}

// IsPrivileged reports admin or HR, the roles that bypass the sector hierarchy.
func (u *User) IsPrivileged() bool {
	return u.IsAdmin() || u.IsHR()
}

func (u *User) IsSupervisor() bool {
	return u.Role == RoleSupervisor
}

// HasSector reports whether the user is attached to a sector node.
func (u *User) HasSector() bool {
	return u.SectorID != nil && *u.SectorID != ""
}
