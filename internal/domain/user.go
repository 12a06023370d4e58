package domain

import "time"

// Role is an authorization tag attached to a user. Values outside the
// well-known constants are accepted as-is.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User represents a registered author or reader of the blog.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
