package middlewares

import (
	"net/http"
	"strings"

	"github.com/nu-its/authgate/internal/domain/repository"
	"github.com/nu-its/authgate/internal/http/problem"
	jwtx "github.com/nu-its/authgate/internal/jwt"
	"github.com/nu-its/authgate/internal/observability/logger"
)

// RequireSession valida el session token (JWT) emitido tras el login por
// código y resuelve el usuario. Para endpoints de usuarios locales.
func RequireSession(issuer *jwtx.Issuer, users repository.UserRepository) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := r.Header.Get("Authorization")
			if !strings.HasPrefix(ah, bearerPrefix) {
				problem.Write(w, problem.ErrUnauthenticated)
				return
			}
			raw := strings.TrimSpace(ah[len(bearerPrefix):])
			if raw == "" {
				problem.Write(w, problem.ErrUnauthenticated)
				return
			}

			claims, err := issuer.Parse(raw)
			if err != nil {
				logger.From(r.Context()).Debug("session token invalid", logger.Err(err))
				problem.Write(w, problem.ErrUnauthenticated)
				return
			}

			user, err := users.GetByID(r.Context(), claims.Subject)
			if err != nil || user.Disabled() {
				problem.Write(w, problem.ErrUnauthenticated)
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(user.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
