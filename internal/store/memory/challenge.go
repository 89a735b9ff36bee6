package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nu-its/authgate/internal/domain/repository"
)

type challengeRepo struct {
	s *Store
}

func (r *challengeRepo) Create(_ context.Context, input repository.CreateChallengeInput) (*repository.LoginChallenge, error) {
	now := time.Now().UTC()
	c := &repository.LoginChallenge{
		ID:          uuid.NewString(),
		Email:       input.Email,
		CodeHash:    input.CodeHash,
		RequestedIP: input.RequestedIP,
		ExpiresAt:   now.Add(input.TTL),
		CreatedAt:   now,
	}

	r.s.mu.Lock()
	r.s.challenges[c.ID] = c
	r.s.mu.Unlock()

	return cloneChallenge(c), nil
}

func (r *challengeRepo) Get(_ context.Context, id string) (*repository.LoginChallenge, error) {
	r.s.mu.RLock()
	c, ok := r.s.challenges[id]
	r.s.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneChallenge(c), nil
}

func (r *challengeRepo) RegisterFailure(_ context.Context, id string, maxAttempts int, lockFor time.Duration) (*repository.LoginChallenge, error) {
	now := time.Now().UTC()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.challenges[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Sobre un challenge inactivo no se muta nada
	if !c.Active(now) {
		return cloneChallenge(c), nil
	}
	c.Attempts++
	if c.Attempts >= maxAttempts {
		lockedUntil := now.Add(lockFor)
		c.LockedUntil = &lockedUntil
	}
	return cloneChallenge(c), nil
}

func (r *challengeRepo) Consume(_ context.Context, id, ip, userAgent string) (bool, error) {
	now := time.Now().UTC()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.challenges[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if !c.Active(now) {
		return false, nil
	}
	c.ConsumedAt = &now
	c.ConsumedIP = ip
	c.ConsumedUserAgent = repository.CapUserAgent(userAgent)
	return true, nil
}

func (r *challengeRepo) MarkEmailSent(_ context.Context, id string) (bool, error) {
	now := time.Now().UTC()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.challenges[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if c.EmailSentAt != nil {
		return false, nil
	}
	c.EmailSentAt = &now
	return true, nil
}

func (r *challengeRepo) DeleteExpired(_ context.Context, olderThan time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for id, c := range r.s.challenges {
		if c.ExpiresAt.Before(olderThan) || c.ConsumedAt != nil {
			delete(r.s.challenges, id)
			n++
		}
	}
	return n, nil
}
