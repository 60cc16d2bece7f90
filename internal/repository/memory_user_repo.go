package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	log   *logrus.Logger
}

func NewMemoryUserRepository(logger *logrus.Logger) domain.UserRepository {
	return &memoryUserRepository{
		users: make(map[string]*domain.User),
		log:   logger,
	}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.FavoriteCategories = append([]string{}, u.FavoriteCategories...)
	return &c
}

func (r *memoryUserRepository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.users {
		if id != user.ID && existing.Email == user.Email {
			r.log.Warnf("Repository: Attempted to save user %s with duplicate email: %s", user.ID, user.Email)
			return nil, fmt.Errorf("user with email '%s' already exists: %w", user.Email, domain.ErrConflict)
		}
	}
	r.users[user.ID] = cloneUser(user)
	r.log.Infof("Repository: User saved with ID: %s, Email: %s", user.ID, user.Email)
	return cloneUser(user), nil
}

func (r *memoryUserRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		r.log.Debugf("Repository: User with ID %s not found", id)
		return nil, fmt.Errorf("user with id %s: %w", id, domain.ErrNotFound)
	}
	return cloneUser(user), nil
}

func (r *memoryUserRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	r.log.Debugf("Repository: User with email %s not found", email)
	return nil, fmt.Errorf("user with email %s: %w", email, domain.ErrNotFound)
}

func (r *memoryUserRepository) ListUsers(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *cloneUser(u))
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
