package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nu-its/authgate/internal/domain/repository"
)

type tokenRepo struct {
	s *Store
}

func (r *tokenRepo) Create(_ context.Context, input repository.CreateTokenInput) (*repository.AccessToken, error) {
	now := time.Now().UTC()
	t := &repository.AccessToken{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Name:        input.Name,
		TokenHash:   input.TokenHash,
		TokenPrefix: input.TokenPrefix,
		AllowedIPs:  append([]string(nil), input.AllowedIPs...),
		CreatedAt:   now,
	}
	if input.TTL > 0 {
		exp := now.Add(input.TTL)
		t.ExpiresAt = &exp
	}

	r.s.mu.Lock()
	r.s.tokens[t.ID] = t
	r.s.mu.Unlock()

	return cloneToken(t), nil
}

func (r *tokenRepo) GetActiveByHash(_ context.Context, tokenHash string) (*repository.AccessToken, *repository.User, error) {
	now := time.Now().UTC()

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.tokens {
		if t.TokenHash != tokenHash {
			continue
		}
		if t.Status(now) != repository.TokenActive {
			return nil, nil, repository.ErrNotFound
		}
		u, ok := r.s.users[t.UserID]
		if !ok || u.AuthType != repository.AuthAPI || u.Disabled() {
			return nil, nil, repository.ErrNotFound
		}
		return cloneToken(t), cloneUser(u), nil
	}
	return nil, nil, repository.ErrNotFound
}

func (r *tokenRepo) Touch(_ context.Context, id string) error {
	now := time.Now().UTC()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.UsageCount++
	t.LastUsedAt = &now
	return nil
}

func (r *tokenRepo) Revoke(_ context.Context, id string) error {
	now := time.Now().UTC()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[id]
	if !ok {
		return repository.ErrNotFound
	}
	if t.RevokedAt == nil {
		t.RevokedAt = &now
	}
	return nil
}

func (r *tokenRepo) ListByUser(_ context.Context, userID string) ([]*repository.AccessToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*repository.AccessToken
	for _, t := range r.s.tokens {
		if t.UserID == userID {
			out = append(out, cloneToken(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
