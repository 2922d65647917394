package model

import (
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleUser   = "user"
	RoleViewer = "viewer" // read-only across the whole system
)

// ValidRole reports whether the string is one of the three known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser || role == RoleViewer
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not exposed
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
