package middlewares

import (
	"fmt"
	"math"
	"net/http"

	"github.com/nu-its/authgate/internal/http/problem"
	"github.com/nu-its/authgate/internal/observability/logger"
	"github.com/nu-its/authgate/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting para un request.
type RateKeyFunc func(r *http.Request) string

// IPRateKey genera la clave por IP de cliente y path.
func IPRateKey(r *http.Request) string {
	return "ip:" + ClientIP(r) + ":" + r.URL.Path
}

// WithRateLimit aplica el limiter a cada request usando keyFn.
// Si el limiter falla (ej: Redis caído) el request pasa: disponibilidad
// sobre estrictez para un limiter de borde.
func WithRateLimit(limiter rate.Limiter, keyFn RateKeyFunc) Middleware {
	if keyFn == nil {
		keyFn = IPRateKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			res, err := limiter.Allow(r.Context(), keyFn(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				secs := int(math.Ceil(res.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
				problem.Write(w, problem.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
