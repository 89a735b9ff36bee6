// Package auth contiene los services del flujo de login por código.
package auth

import (
	"context"

	dto "github.com/nu-its/authgate/internal/http/dto/auth"
)

// ChallengeService emite y verifica challenges de login por código.
type ChallengeService interface {
	// RequestCode crea un challenge para el email dado y encola el correo
	// con el código. Rate limited por email normalizado por hora.
	RequestCode(ctx context.Context, in dto.RequestCodeInput) (*dto.RequestCodeResult, error)

	// VerifyCode decide si el código presentado matchea el challenge.
	// Nunca es un error de negocio: el resultado es booleano con mutación
	// de estado como canal lateral (attempts, lockout, consumo).
	VerifyCode(ctx context.Context, in dto.VerifyCodeInput) (*dto.VerifyCodeResult, error)
}
