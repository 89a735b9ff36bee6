package middlewares

import (
	"crypto/subtle"
	"net/http"

	"github.com/nu-its/authgate/internal/http/problem"
)

// RequireAdminKey valida la API key del surface administrativo
// (header X-Admin-API-Key, comparación en tiempo constante).
// Si no hay key configurada, el surface queda deshabilitado.
func RequireAdminKey(key string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				problem.Write(w, problem.ErrForbidden.WithDetail("admin API disabled"))
				return
			}
			got := r.Header.Get("X-Admin-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				problem.Write(w, problem.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
