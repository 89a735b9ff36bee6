package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/nu-its/authgate/internal/domain/repository"
)

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	// ctxRequestIDKey guarda el request ID (trace id)
	ctxRequestIDKey ctxKey = "request_id"
	// ctxUserKey guarda el principal autenticado
	ctxUserKey ctxKey = "user"
	// ctxTokenIDKey guarda el ID del access token usado
	ctxTokenIDKey ctxKey = "token_id"
	// ctxAuthFailKey guarda la razón interna de una falla de autenticación
	ctxAuthFailKey ctxKey = "auth_fail_reason"
)

// =================================================================================
// SETTERS
// =================================================================================

// setRequestID inyecta el request ID en el contexto (interno).
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// WithUser inyecta el principal autenticado en el contexto.
// Vale solo para este request: no hay sesión persistida.
func WithUser(ctx context.Context, u *repository.User) context.Context {
	return context.WithValue(ctx, ctxUserKey, u)
}

// WithTokenID inyecta el ID del access token en el contexto.
func WithTokenID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTokenIDKey, id)
}

// WithAuthFailReason registra la razón interna de la falla (observabilidad).
// Nunca se expone al cliente.
func WithAuthFailReason(ctx context.Context, reason string) context.Context {
	return context.WithValue(ctx, ctxAuthFailKey, reason)
}

// =================================================================================
// GETTERS
// =================================================================================

// GetRequestID obtiene el request ID del contexto, o cadena vacía.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetUser obtiene el principal autenticado, o nil.
func GetUser(ctx context.Context) *repository.User {
	if v := ctx.Value(ctxUserKey); v != nil {
		if u, ok := v.(*repository.User); ok {
			return u
		}
	}
	return nil
}

// GetTokenID obtiene el ID del access token del contexto, o cadena vacía.
func GetTokenID(ctx context.Context) string {
	if v := ctx.Value(ctxTokenIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetAuthFailReason obtiene la razón de falla registrada, o cadena vacía.
func GetAuthFailReason(ctx context.Context) string {
	if v := ctx.Value(ctxAuthFailKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// =================================================================================
// HELPERS
// =================================================================================

// ClientIP extrae la IP del cliente, considerando proxies.
// Retorna cadena vacía si no puede determinarse.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
