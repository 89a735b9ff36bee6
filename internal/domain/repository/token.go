package repository

import (
	"context"
	"time"
)

// TokenStatus es el estado derivado de un access token.
type TokenStatus string

const (
	TokenActive  TokenStatus = "active"
	TokenExpired TokenStatus = "expired"
	TokenRevoked TokenStatus = "revoked"
)

// AccessToken representa una credencial bearer de larga vida para usuarios API.
// El valor crudo del token nunca se persiste: solo su HMAC-SHA256.
type AccessToken struct {
	ID          string
	UserID      string
	Name        string
	TokenHash   string
	TokenPrefix string
	AllowedIPs  []string // nil o vacío = sin restricción
	UsageCount  int64
	LastUsedAt  *time.Time
	ExpiresAt   *time.Time
	RevokedAt   *time.Time
	CreatedAt   time.Time
}

// Status deriva el estado del token al instante now.
func (t *AccessToken) Status(now time.Time) TokenStatus {
	if t.RevokedAt != nil {
		return TokenRevoked
	}
	if t.ExpiresAt != nil && !now.Before(*t.ExpiresAt) {
		return TokenExpired
	}
	return TokenActive
}

// CreateTokenInput contiene los datos para emitir un access token.
type CreateTokenInput struct {
	UserID      string
	Name        string
	TokenHash   string
	TokenPrefix string
	AllowedIPs  []string
	TTL         time.Duration // 0 = sin expiración
}

// TokenRepository define operaciones sobre access tokens.
type TokenRepository interface {
	// Create emite un token nuevo y retorna el registro persistido.
	Create(ctx context.Context, input CreateTokenInput) (*AccessToken, error)

	// GetActiveByHash busca un token activo (no expirado, no revocado) por su
	// hash, junto con su dueño, que debe ser un usuario API habilitado.
	// Retorna ErrNotFound si no hay match.
	GetActiveByHash(ctx context.Context, tokenHash string) (*AccessToken, *User, error)

	// Touch incrementa usage_count y fija last_used_at en un único statement
	// atómico (sin lost updates bajo requests concurrentes).
	Touch(ctx context.Context, id string) error

	// Revoke marca el token como revocado. Idempotente.
	Revoke(ctx context.Context, id string) error

	// ListByUser lista los tokens de un usuario, más reciente primero.
	ListByUser(ctx context.Context, userID string) ([]*AccessToken, error)
}
