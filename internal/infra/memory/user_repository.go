package memory

import (
	"context"
	"sync"

	"quiz-api/internal/domain"
)

// UserRepository is an in-memory implementation of app.UserRepository.
// The username index is checked and written under one lock, which plays the
// role of a unique constraint.
type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]domain.User
	byUsername map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]domain.User),
		byUsername: make(map[string]string),
	}
}

func (r *UserRepository) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byUsername[user.Username]; taken {
		return domain.User{}, domain.ErrDuplicateUsername
	}
	r.byID[user.ID] = user
	r.byUsername[user.Username] = user.ID
	return user, nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return r.byID[id], nil
}
