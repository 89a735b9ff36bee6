// Package auth contiene los DTOs del flujo de login por código.
package auth

import "time"

// RequestCodeRequest es el body de POST /v1/auth/code.
type RequestCodeRequest struct {
	Email string `json:"email"`
}

// RequestCodeInput es la entrada del service.
type RequestCodeInput struct {
	Email string
	IP    string
}

// RequestCodeResult es la salida del service.
type RequestCodeResult struct {
	ChallengeID string
	ExpiresAt   time.Time
}

// RequestCodeResponse es el body de respuesta.
type RequestCodeResponse struct {
	ChallengeID string    `json:"challenge_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// VerifyCodeRequest es el body de POST /v1/auth/code/verify.
type VerifyCodeRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

// VerifyCodeInput es la entrada del service.
type VerifyCodeInput struct {
	ChallengeID string
	Code        string
	IP          string
	UserAgent   string
}

// VerifyCodeResult es la salida del service. Verified false cubre código
// incorrecto, challenge expirado, bloqueado o ya consumido, sin distinguir.
type VerifyCodeResult struct {
	Verified     bool
	SessionToken string
	ExpiresAt    time.Time
	UserID       string
}

// VerifyCodeResponse es el body de respuesta en éxito.
type VerifyCodeResponse struct {
	SessionToken string    `json:"session_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}
