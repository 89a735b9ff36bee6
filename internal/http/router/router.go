// Package router arma el árbol de rutas HTTP del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminctrl "github.com/nu-its/authgate/internal/http/controllers/admin"
	authctrl "github.com/nu-its/authgate/internal/http/controllers/auth"
	healthctrl "github.com/nu-its/authgate/internal/http/controllers/health"
	mectrl "github.com/nu-its/authgate/internal/http/controllers/me"
	webhookctrl "github.com/nu-its/authgate/internal/http/controllers/webhook"
	mw "github.com/nu-its/authgate/internal/http/middlewares"
	jwtx "github.com/nu-its/authgate/internal/jwt"
	"github.com/nu-its/authgate/internal/rate"
	"github.com/nu-its/authgate/internal/store"
)

// Deps contiene todo lo que el router necesita para armar las rutas.
type Deps struct {
	Store store.Store

	// Controllers
	Challenge *authctrl.ChallengeController
	Me        *mectrl.Controller
	Tokens    *adminctrl.TokensController
	Users     *adminctrl.UsersController
	Health    *healthctrl.HealthController
	NetID     *webhookctrl.NetIDController

	// Auth
	BearerConfig mw.BearerConfig
	Sessions     *jwtx.Issuer
	AdminAPIKey  string

	// Rate limiting por IP para endpoints públicos (opcional)
	IPLimiter rate.Limiter
}

// New construye el handler raíz con todas las rutas registradas.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Middlewares globales, en orden: recover primero, luego trazabilidad
	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithSecurityHeaders())
	r.Use(mw.WithLogging())

	// ===========================================================================
	// Infra: health checks y métricas (sin auth)
	// ===========================================================================
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// ===========================================================================
	// Flujo de login por código (público, rate limited por IP)
	// ===========================================================================
	r.Group(func(r chi.Router) {
		if deps.IPLimiter != nil {
			r.Use(mw.WithRateLimit(deps.IPLimiter, mw.IPRateKey))
		}
		r.Post("/v1/auth/code", deps.Challenge.RequestCode)
		r.Post("/v1/auth/code/verify", deps.Challenge.VerifyCode)
	})

	// ===========================================================================
	// Webhook del directorio de identidades (guardado por admin key)
	// ===========================================================================
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAdminKey(deps.AdminAPIKey))
		r.Post("/v1/webhooks/netid", deps.NetID.Handle)
	})

	// ===========================================================================
	// Recursos protegidos por bearer token (usuarios API)
	// ===========================================================================
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireBearerToken(deps.BearerConfig))
		r.Get("/v1/me", deps.Me.Me)
	})

	// ===========================================================================
	// Recursos protegidos por session JWT (login por código)
	// ===========================================================================
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireSession(deps.Sessions, deps.Store.Users()))
		r.Get("/v1/session/me", deps.Me.Me)
	})

	// ===========================================================================
	// Surface administrativo (X-Admin-API-Key)
	// ===========================================================================
	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(mw.RequireAdminKey(deps.AdminAPIKey))
		r.Post("/tokens", deps.Tokens.Create)
		r.Get("/tokens", deps.Tokens.List)
		r.Delete("/tokens/{id}", deps.Tokens.Revoke)
		r.Post("/users", deps.Users.Create)
	})

	return r
}
