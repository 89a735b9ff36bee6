// Package memory implementa store.Store en memoria. Se usa en dev y en
// tests unitarios; replica la semántica condicional de los statements
// atómicos del adapter pg (mismo comportamiento bajo concurrencia, acá
// garantizado por el mutex).
package memory

import (
	"context"
	"sync"

	"github.com/nu-its/authgate/internal/domain/repository"
)

// Store implementa store.Store sobre maps protegidos por mutex.
type Store struct {
	mu         sync.RWMutex
	challenges map[string]*repository.LoginChallenge
	tokens     map[string]*repository.AccessToken
	users      map[string]*repository.User

	challengeRepo *challengeRepo
	tokenRepo     *tokenRepo
	userRepo      *userRepo
}

// New crea un Store vacío.
func New() *Store {
	s := &Store{
		challenges: make(map[string]*repository.LoginChallenge),
		tokens:     make(map[string]*repository.AccessToken),
		users:      make(map[string]*repository.User),
	}
	s.challengeRepo = &challengeRepo{s: s}
	s.tokenRepo = &tokenRepo{s: s}
	s.userRepo = &userRepo{s: s}
	return s
}

func (s *Store) Challenges() repository.ChallengeRepository { return s.challengeRepo }
func (s *Store) Tokens() repository.TokenRepository         { return s.tokenRepo }
func (s *Store) Users() repository.UserRepository           { return s.userRepo }

func (s *Store) Ping(_ context.Context) error { return nil }
func (s *Store) Close() error                 { return nil }

// clonas defensivas: los repos nunca devuelven punteros al estado interno

func cloneChallenge(c *repository.LoginChallenge) *repository.LoginChallenge {
	cp := *c
	return &cp
}

func cloneToken(t *repository.AccessToken) *repository.AccessToken {
	cp := *t
	if t.AllowedIPs != nil {
		cp.AllowedIPs = append([]string(nil), t.AllowedIPs...)
	}
	return &cp
}

func cloneUser(u *repository.User) *repository.User {
	cp := *u
	return &cp
}
