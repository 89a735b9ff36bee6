package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nu-its/authgate/internal/domain/repository"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(_ context.Context, input repository.CreateUserInput) (*repository.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// email y netid son únicos, igual que en el schema de Postgres
	for _, u := range r.s.users {
		if u.Email == email {
			return nil, repository.ErrConflict
		}
		if input.NetID != "" && u.NetID == input.NetID {
			return nil, repository.ErrConflict
		}
	}
	u := &repository.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      input.Name,
		NetID:     input.NetID,
		AuthType:  input.AuthType,
		CreatedAt: time.Now().UTC(),
	}
	r.s.users[u.ID] = u
	return cloneUser(u), nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetByNetID(_ context.Context, netid string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.NetID != "" && u.NetID == netid {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) SetDisabled(_ context.Context, id string, disabled bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if disabled {
		if u.DisabledAt == nil {
			now := time.Now().UTC()
			u.DisabledAt = &now
		}
	} else {
		u.DisabledAt = nil
	}
	return nil
}
