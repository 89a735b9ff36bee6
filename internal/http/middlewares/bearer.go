package middlewares

import (
	"net/http"
	"strings"

	"github.com/nu-its/authgate/internal/domain/repository"
	"github.com/nu-its/authgate/internal/http/problem"
	"github.com/nu-its/authgate/internal/metrics"
	"github.com/nu-its/authgate/internal/observability/logger"
	"github.com/nu-its/authgate/internal/security/ipmatch"
	tokens "github.com/nu-its/authgate/internal/security/token"
)

// =================================================================================
// BEARER TOKEN AUTH
// =================================================================================

// Razones internas de falla. Van a contexto, logs y métricas; el cliente
// recibe siempre el mismo 401 genérico para no filtrar por qué falló.
const (
	FailInvalidHeaderFormat   = "INVALID_HEADER_FORMAT"
	FailMissingCredentials    = "MISSING_CREDENTIALS"
	FailTokenInvalidOrExpired = "TOKEN_INVALID_OR_EXPIRED"
	FailIPDenied              = "IP_DENIED"
)

const bearerPrefix = "Bearer "

// BearerConfig configura el middleware de autenticación bearer.
type BearerConfig struct {
	Tokens repository.TokenRepository
	// HMACKey firma el hash del token presentado (nunca se persiste ni se
	// loguea el valor crudo).
	HMACKey []byte
}

// RequireBearerToken autentica el request con un access token bearer:
// parsea el header, hashea el token, resuelve el registro activo + usuario
// API, chequea la allow-list de IPs, registra el uso (increment atómico) y
// establece el principal en el contexto del request. No hay sesión: el
// principal vale solo para este request.
func RequireBearerToken(cfg BearerConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Trace id para correlación, por si la chain no lo puso antes
			if GetRequestID(r.Context()) == "" {
				rid := newRequestID()
				w.Header().Set("X-Request-ID", rid)
				r = r.WithContext(setRequestID(r.Context(), rid))
			}

			ah := r.Header.Get("Authorization")
			if !strings.HasPrefix(ah, bearerPrefix) {
				failBearer(w, r, FailInvalidHeaderFormat)
				return
			}

			raw := strings.TrimSpace(ah[len(bearerPrefix):])
			if raw == "" {
				failBearer(w, r, FailMissingCredentials)
				return
			}

			// Hash keyed y descarte inmediato del valor crudo
			hash := tokens.HMACSHA256Base64URL(cfg.HMACKey, raw)
			raw = ""
			_ = raw

			token, user, err := cfg.Tokens.GetActiveByHash(r.Context(), hash)
			if err != nil {
				if !repository.IsNotFound(err) {
					logger.From(r.Context()).Error("token lookup failed", logger.Err(err))
					problem.Write(w, problem.ErrInternal)
					return
				}
				failBearer(w, r, FailTokenInvalidOrExpired)
				return
			}

			// Anotar user/token en el contexto para correlación de logs
			ctx := WithTokenID(WithUser(r.Context(), user), token.ID)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(
				logger.UserID(user.ID),
				logger.TokenID(token.ID),
			))
			r = r.WithContext(ctx)

			if len(token.AllowedIPs) > 0 {
				ip := ClientIP(r)
				if ip == "" {
					// Allow-list configurada pero IP indeterminable: anomalía
					// operacional, no una denegación normal
					metrics.IPAllowlistAnomalies.Inc()
					logger.From(ctx).Error("allow-list configured but source ip unknown",
						logger.Reason(FailIPDenied),
					)
					failBearer(w, r, FailIPDenied)
					return
				}
				ok, err := ipmatch.Allowed(ip, token.AllowedIPs)
				if err != nil {
					metrics.IPAllowlistAnomalies.Inc()
					logger.From(ctx).Error("ip allow-list check failed",
						logger.ClientIP(ip), logger.Err(err),
					)
					failBearer(w, r, FailIPDenied)
					return
				}
				if !ok {
					failBearer(w, r, FailIPDenied)
					return
				}
			}

			// Tracking de uso: statement atómico, sin lost updates
			if err := cfg.Tokens.Touch(r.Context(), token.ID); err != nil {
				logger.From(ctx).Warn("token usage touch failed", logger.Err(err))
			}

			metrics.BearerAuthTotal.WithLabelValues("ok").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

// failBearer corta el pipeline con el 401 genérico. La razón específica
// queda en contexto, log y métrica.
func failBearer(w http.ResponseWriter, r *http.Request, reason string) {
	ctx := WithAuthFailReason(r.Context(), reason)
	metrics.BearerAuthTotal.WithLabelValues(reason).Inc()
	logger.From(ctx).Info("bearer auth failed", logger.Reason(reason))
	problem.Write(w, problem.ErrUnauthenticated)
}
