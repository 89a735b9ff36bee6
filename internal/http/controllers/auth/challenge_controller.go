// Package auth contiene los controllers del flujo de login por código.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	dto "github.com/nu-its/authgate/internal/http/dto/auth"
	"github.com/nu-its/authgate/internal/http/middlewares"
	"github.com/nu-its/authgate/internal/http/problem"
	svc "github.com/nu-its/authgate/internal/http/services/auth"
	"github.com/nu-its/authgate/internal/observability/logger"
)

const (
	maxBodySize     = 64 * 1024 // 64KB
	contentTypeJSON = "application/json; charset=utf-8"
)

// ChallengeController maneja los endpoints del login por código.
type ChallengeController struct {
	service svc.ChallengeService
}

// NewChallengeController crea el controller.
func NewChallengeController(service svc.ChallengeService) *ChallengeController {
	return &ChallengeController{service: service}
}

// RequestCode maneja POST /v1/auth/code
func (c *ChallengeController) RequestCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ChallengeController.RequestCode"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.RequestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, problem.ErrInvalidJSON)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		problem.Write(w, problem.ErrMissingFields.WithDetail("email is required"))
		return
	}

	result, err := c.service.RequestCode(ctx, dto.RequestCodeInput{
		Email: req.Email,
		IP:    middlewares.ClientIP(r),
	})
	if err != nil {
		log.Debug("request code failed", logger.Err(err))
		writeRequestCodeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(dto.RequestCodeResponse{
		ChallengeID: result.ChallengeID,
		ExpiresAt:   result.ExpiresAt,
	})
}

// VerifyCode maneja POST /v1/auth/code/verify
func (c *ChallengeController) VerifyCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ChallengeController.VerifyCode"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, problem.ErrInvalidJSON)
		return
	}
	if req.ChallengeID == "" || req.Code == "" {
		problem.Write(w, problem.ErrMissingFields.WithDetail("challenge_id and code are required"))
		return
	}

	result, err := c.service.VerifyCode(ctx, dto.VerifyCodeInput{
		ChallengeID: req.ChallengeID,
		Code:        req.Code,
		IP:          middlewares.ClientIP(r),
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		log.Error("verify code failed", logger.Err(err))
		problem.Write(w, err)
		return
	}
	if !result.Verified {
		// Respuesta única para código incorrecto, challenge inexistente,
		// expirado, bloqueado o ya consumido: no distinguir hacia afuera
		problem.Write(w, problem.ErrUnauthenticated)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.VerifyCodeResponse{
		SessionToken: result.SessionToken,
		TokenType:    "Bearer",
		ExpiresAt:    result.ExpiresAt,
	})
}

// ─── Helpers ───

func writeRequestCodeError(w http.ResponseWriter, err error) {
	var rl *svc.RateLimitedError
	switch {
	case errors.Is(err, svc.ErrInvalidEmail):
		problem.Write(w, problem.ErrValidation.WithDetail("email is not a valid address"))

	case errors.Is(err, svc.ErrUnknownUser):
		problem.Write(w, problem.ErrNotFound.WithDetail("no local account for that email"))

	case errors.As(err, &rl):
		if secs := int(rl.RetryAfter.Seconds()); secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
		problem.Write(w, problem.ErrRateLimited)

	case errors.Is(err, svc.ErrRateLimited):
		problem.Write(w, problem.ErrRateLimited)

	default:
		problem.Write(w, err)
	}
}
