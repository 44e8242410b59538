package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talent-lab/sourcedash/dao/model"
)

// MemUsers is an in-memory UserStore. The file storage mode runs without a
// user table, so it is seeded with a bootstrap admin from the config; handler
// tests use it directly.
type MemUsers struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewMemUsers() *MemUsers {
	return &MemUsers{users: make(map[string]model.User)}
}

func (m *MemUsers) List(_ context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (m *MemUsers) Get(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &user, nil
}

func (m *MemUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (m *MemUsers) Create(_ context.Context, email, passwordHash, name string, role model.Role) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, fmt.Errorf("%s: %w", email, ErrEmailExists)
		}
	}
	now := time.Now()
	user := model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  passwordHash,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.users[user.ID] = user
	return &user, nil
}

func (m *MemUsers) Update(_ context.Context, id string, name, email *string, role *model.Role) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if email != nil {
		for otherID, u := range m.users {
			if u.Email == *email && otherID != id {
				return nil, fmt.Errorf("%s: %w", *email, ErrEmailExists)
			}
		}
		user.Email = *email
	}
	if name != nil {
		user.Name = *name
	}
	if role != nil {
		user.Role = *role
	}
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return &user, nil
}

func (m *MemUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	user.Password = passwordHash
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return nil
}

func (m *MemUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	delete(m.users, id)
	return nil
}
