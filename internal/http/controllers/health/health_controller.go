// Package health contiene los controllers de health check.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nu-its/authgate/internal/observability/logger"
	"github.com/nu-its/authgate/internal/store"
)

// readyTimeout acota el ping al backend para no colgar el probe.
const readyTimeout = 2 * time.Second

// HealthController maneja /healthz y /readyz.
type HealthController struct {
	store store.Store
}

// NewHealthController crea el controller.
func NewHealthController(s store.Store) *HealthController {
	return &HealthController{store: s}
}

// Healthz maneja GET /healthz (liveness: el proceso responde).
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz (readiness: el backend de datos responde).
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := c.store.Ping(ctx); err != nil {
		logger.From(r.Context()).Error("readiness ping failed", logger.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
