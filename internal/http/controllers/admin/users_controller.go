package admin

import (
	"encoding/json"
	"net/http"

	dto "github.com/nu-its/authgate/internal/http/dto/admin"
	"github.com/nu-its/authgate/internal/http/problem"
	svc "github.com/nu-its/authgate/internal/http/services/admin"
	"github.com/nu-its/authgate/internal/observability/logger"
)

// UsersController maneja los endpoints admin de usuarios.
type UsersController struct {
	service *svc.TokenService
}

// NewUsersController crea el controller.
func NewUsersController(service *svc.TokenService) *UsersController {
	return &UsersController{service: service}
}

// Create maneja POST /v1/admin/users
func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.Create"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, problem.ErrInvalidJSON)
		return
	}

	view, err := c.service.CreateUser(ctx, req)
	if err != nil {
		log.Debug("create user failed", logger.Err(err))
		writeAdminError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(view)
}
