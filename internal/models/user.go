package models

import "time"

// User represents an account that can log in and interact with tickets.
type User struct {
	ID           uint      `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose in JSON
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Role is the closed set of user roles. Visibility and mutation rights
// are derived from it; there is no finer-grained permission store.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleAgent Role = "AGENT"
	RoleUser  Role = "USER"
)

// ValidRole reports whether s is one of the three known roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleAgent, RoleUser:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to the resolver side of the
// helpdesk (assignable to tickets, allowed to mutate them).
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleAgent
}
