package repository

import (
	"context"
	"errors"

	"blog-server/internal/domain"
)

// ErrUserExists is returned by Create when the username is already taken.
var ErrUserExists = errors.New("user already exists")

// UserFinder looks users up by their numeric identifier.
//
// A missing user is reported as found == false with a nil error. A non-nil
// error always means the backing store failed.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.User, bool, error)
}

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	UserFinder
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, bool, error)
}
