// Package store expone la interfaz de acceso a datos y la selección de
// adapter por configuración. Implementaciones: pg (PostgreSQL) y memory.
package store

import (
	"context"

	"github.com/nu-its/authgate/internal/domain/repository"
)

// Store agrupa los repositorios del servicio sobre un mismo backend.
type Store interface {
	Challenges() repository.ChallengeRepository
	Tokens() repository.TokenRepository
	Users() repository.UserRepository

	// Ping verifica conectividad con el backend.
	Ping(ctx context.Context) error

	// Close libera recursos (pool de conexiones, etc.).
	Close() error
}
