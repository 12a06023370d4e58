// Package dto holds immutable transfer records passed between the HTTP
// boundary, the service layer and persistence.
package dto

import "blog-server/internal/domain"

// User is a read-only snapshot of the user fields exposed across layers.
// The password is credential material and is carried without inspection.
type User struct {
	username string
	password string
	role     string
}

// NewUser builds a transfer record. No validation is applied.
func NewUser(username, password, role string) User {
	return User{
		username: username,
		password: password,
		role:     role,
	}
}

// FromDomain maps a stored user into a transfer record. The password field
// carries the stored hash. A nil user yields the zero record.
func FromDomain(user *domain.User) User {
	if user == nil {
		return User{}
	}
	return NewUser(user.Username, user.PasswordHash, string(user.Role))
}

func (u User) Username() string { return u.username }

func (u User) Password() string { return u.password }

func (u User) Role() string { return u.role }

func (u User) Equal(other User) bool {
	return u == other
}
