package middlewares

import (
	"net/http"

	"github.com/nu-its/authgate/internal/http/problem"
	"github.com/nu-its/authgate/internal/observability/logger"
)

// WithRecover captura panics y devuelve un 500 en lugar de crashear.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log := logger.From(r.Context())
					log.Error("panic recovered",
						logger.Op("recover"),
						logger.Any("panic", rec),
					)
					problem.Write(w, problem.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
