// Package pg implementa store.Store sobre PostgreSQL usando pgxpool.
// Todas las mutaciones sensibles a concurrencia (Consume, RegisterFailure,
// Touch) son statements condicionales únicos: no hay read-modify-write en Go.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nu-its/authgate/internal/domain/repository"
)

// Config configura la conexión al pool.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store implementa store.Store sobre un pgxpool.Pool.
type Store struct {
	pool *pgxpool.Pool

	challengeRepo *challengeRepo
	tokenRepo     *tokenRepo
	userRepo      *userRepo
}

// New abre el pool y construye los repositorios.
func New(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	} else {
		poolCfg.MinConns = 2
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}

	s := &Store{pool: pool}
	s.challengeRepo = &challengeRepo{pool: pool}
	s.tokenRepo = &tokenRepo{pool: pool}
	s.userRepo = &userRepo{pool: pool}
	return s, nil
}

func (s *Store) Challenges() repository.ChallengeRepository { return s.challengeRepo }
func (s *Store) Tokens() repository.TokenRepository         { return s.tokenRepo }
func (s *Store) Users() repository.UserRepository           { return s.userRepo }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// nullIfEmpty retorna nil para strings vacíos (columnas opcionales).
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
