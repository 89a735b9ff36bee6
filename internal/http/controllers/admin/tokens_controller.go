// Package admin contiene los controllers del surface administrativo.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nu-its/authgate/internal/domain/repository"
	dto "github.com/nu-its/authgate/internal/http/dto/admin"
	"github.com/nu-its/authgate/internal/http/problem"
	svc "github.com/nu-its/authgate/internal/http/services/admin"
	"github.com/nu-its/authgate/internal/observability/logger"
)

const (
	maxBodySize     = 64 * 1024 // 64KB
	contentTypeJSON = "application/json; charset=utf-8"
)

// TokensController maneja los endpoints admin de access tokens.
type TokensController struct {
	service *svc.TokenService
}

// NewTokensController crea el controller.
func NewTokensController(service *svc.TokenService) *TokensController {
	return &TokensController{service: service}
}

// Create maneja POST /v1/admin/tokens
func (c *TokensController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokensController.Create"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.CreateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, problem.ErrInvalidJSON)
		return
	}

	result, err := c.service.IssueToken(ctx, req)
	if err != nil {
		log.Debug("issue token failed", logger.Err(err))
		writeAdminError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(result)
}

// List maneja GET /v1/admin/tokens?user_id=
func (c *TokensController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	views, err := c.service.ListTokens(ctx, r.URL.Query().Get("user_id"))
	if err != nil {
		writeAdminError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string][]dto.TokenView{"tokens": views})
}

// Revoke maneja DELETE /v1/admin/tokens/{id}
func (c *TokensController) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if err := c.service.RevokeToken(ctx, id); err != nil {
		writeAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Helpers ───

func writeAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrInvalidInput):
		problem.Write(w, problem.ErrValidation.WithDetail(err.Error()))

	case errors.Is(err, svc.ErrNotAPIUser):
		problem.Write(w, problem.ErrValidation.WithDetail("target user must have auth_type api"))

	case repository.IsNotFound(err):
		problem.Write(w, problem.ErrNotFound)

	case repository.IsConflict(err):
		problem.Write(w, problem.ErrConflict)

	default:
		problem.Write(w, err)
	}
}
