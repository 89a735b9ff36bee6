package repository

import (
	"context"
	"time"
)

// AuthType indica cómo se autentica un usuario.
type AuthType string

const (
	// AuthLocal usa login por código de email.
	AuthLocal AuthType = "local"
	// AuthSSO delega en el SSO institucional (fuera de este servicio).
	AuthSSO AuthType = "sso"
	// AuthAPI usa access tokens bearer.
	AuthAPI AuthType = "api"
)

// User representa una cuenta del servicio.
type User struct {
	ID         string
	Email      string
	Name       string
	NetID      string
	AuthType   AuthType
	DisabledAt *time.Time
	CreatedAt  time.Time
}

// Disabled indica si la cuenta está deshabilitada.
func (u *User) Disabled() bool { return u.DisabledAt != nil }

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	Email    string
	Name     string
	NetID    string
	AuthType AuthType
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// Create crea un usuario. Retorna ErrConflict si el email ya existe.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// GetByID busca por ID. Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail busca por email normalizado. Retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByNetID busca por NetID. Retorna ErrNotFound si no existe.
	GetByNetID(ctx context.Context, netid string) (*User, error)

	// SetDisabled habilita o deshabilita la cuenta (webhook de NetID).
	SetDisabled(ctx context.Context, id string, disabled bool) error
}
