// Package memory keeps users in process memory. It backs tests and the
// "memory" database driver.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"blog-server/internal/domain"
	"blog-server/internal/repository"
)

type UserRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.User
	byName map[string]int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:   make(map[int64]domain.User),
		byName: make(map[string]int64),
	}
}

func (r *UserRepository) Init(ctx context.Context) error {
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[user.Username]; ok {
		return 0, fmt.Errorf("insert user %q: %w", user.Username, repository.ErrUserExists)
	}

	r.nextID++
	now := time.Now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now

	r.byID[user.ID] = *user
	r.byName[user.Username] = user.ID
	return user.ID, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("find user by id: %w", err)
	}

	r.mu.RLock()
	u, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("find user by username: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[username]
	if !ok {
		return nil, false, nil
	}
	u := r.byID[id]
	return &u, true, nil
}
