package repository

import (
	"context"
	"time"
	"unicode/utf8"
)

// MaxConsumedUserAgentLen es el largo máximo persistido para el user agent
// del consumo. Se trunca sin marcador.
const MaxConsumedUserAgentLen = 512

// LoginChallenge representa un intento de login por código de un solo uso.
// El código nunca se persiste en claro: solo su hash (bcrypt).
type LoginChallenge struct {
	ID                string
	Email             string
	CodeHash          string
	Attempts          int
	LockedUntil       *time.Time
	ExpiresAt         time.Time
	ConsumedAt        *time.Time
	ConsumedIP        string
	ConsumedUserAgent string
	RequestedIP       string
	EmailSentAt       *time.Time
	CreatedAt         time.Time
}

// Active indica si el challenge todavía admite intentos de verificación:
// no consumido, no expirado y fuera de la ventana de lockout.
func (c *LoginChallenge) Active(now time.Time) bool {
	if c.ConsumedAt != nil {
		return false
	}
	if !now.Before(c.ExpiresAt) {
		return false
	}
	if c.LockedUntil != nil && !now.After(*c.LockedUntil) {
		return false
	}
	return true
}

// CapUserAgent trunca un user agent al largo persistible, sin marcador.
// El corte retrocede hasta un límite de runa: un corte a mitad de una runa
// multibyte produce UTF-8 inválido, que Postgres rechaza en columnas TEXT.
// Los adapters lo aplican en Consume.
func CapUserAgent(ua string) string {
	if len(ua) <= MaxConsumedUserAgentLen {
		return ua
	}
	cut := MaxConsumedUserAgentLen
	for cut > 0 && !utf8.RuneStart(ua[cut]) {
		cut--
	}
	return ua[:cut]
}

// CreateChallengeInput contiene los datos para crear un challenge.
type CreateChallengeInput struct {
	Email       string
	CodeHash    string
	RequestedIP string
	TTL         time.Duration
}

// ChallengeRepository define operaciones sobre login challenges.
type ChallengeRepository interface {
	// Create crea un nuevo challenge y retorna el registro completo.
	Create(ctx context.Context, input CreateChallengeInput) (*LoginChallenge, error)

	// Get busca un challenge por ID. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, id string) (*LoginChallenge, error)

	// RegisterFailure incrementa attempts en un único statement condicional.
	// Si attempts alcanza maxAttempts, fija locked_until = now + lockFor en el
	// mismo statement. Solo aplica sobre challenges aún activos; si el
	// challenge ya no está activo no muta y retorna el registro actual.
	RegisterFailure(ctx context.Context, id string, maxAttempts int, lockFor time.Duration) (*LoginChallenge, error)

	// Consume marca el challenge como consumido (terminal, un solo uso) con
	// un update condicional guardado por el predicado de actividad. Retorna
	// false si otro request lo consumió primero o si ya no estaba activo.
	Consume(ctx context.Context, id, ip, userAgent string) (bool, error)

	// MarkEmailSent fija email_sent_at si aún era NULL. Retorna true solo
	// para el primer caller; los demás ven false (dedupe del envío).
	MarkEmailSent(ctx context.Context, id string) (bool, error)

	// DeleteExpired elimina challenges expirados o consumidos (cleanup job).
	// Retorna la cantidad eliminada.
	DeleteExpired(ctx context.Context, olderThan time.Time) (int, error)
}
