// Package webhook recibe notificaciones del directorio institucional de
// identidades (altas y bajas de NetID).
package webhook

import (
	"net/http"
	"strings"

	"github.com/nu-its/authgate/internal/domain/repository"
	"github.com/nu-its/authgate/internal/http/problem"
	"github.com/nu-its/authgate/internal/observability/logger"
)

const maxFormSize = 16 * 1024 // 16KB

// Acciones soportadas por el webhook de NetID.
const (
	actionDeactivate = "deactivate"
	actionReactivate = "reactivate"
)

// NetIDController maneja POST /v1/webhooks/netid.
// El directorio envía application/x-www-form-urlencoded con netid y action.
type NetIDController struct {
	users repository.UserRepository
}

// NewNetIDController crea el controller.
func NewNetIDController(users repository.UserRepository) *NetIDController {
	return &NetIDController{users: users}
}

// Handle maneja POST /v1/webhooks/netid
func (c *NetIDController) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("NetIDController.Handle"))

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	defer r.Body.Close()

	if err := r.ParseForm(); err != nil {
		problem.Write(w, problem.ErrBadRequest.WithDetail("invalid form"))
		return
	}

	netid := strings.TrimSpace(r.PostFormValue("netid"))
	action := strings.TrimSpace(r.PostFormValue("action"))
	if netid == "" || action == "" {
		problem.Write(w, problem.ErrMissingFields.WithDetail("netid and action are required"))
		return
	}

	var disabled bool
	switch action {
	case actionDeactivate:
		disabled = true
	case actionReactivate:
		disabled = false
	default:
		problem.Write(w, problem.ErrValidation.WithDetail("action must be deactivate or reactivate"))
		return
	}

	user, err := c.users.GetByNetID(ctx, netid)
	if err != nil {
		if repository.IsNotFound(err) {
			problem.Write(w, problem.ErrNotFound.WithDetail("unknown netid"))
			return
		}
		log.Error("netid lookup failed", logger.Err(err), logger.NetID(netid))
		problem.Write(w, err)
		return
	}

	if err := c.users.SetDisabled(ctx, user.ID, disabled); err != nil {
		log.Error("set disabled failed", logger.Err(err), logger.UserID(user.ID))
		problem.Write(w, err)
		return
	}

	log.Info("netid webhook applied",
		logger.NetID(netid),
		logger.UserID(user.ID),
		logger.String("action", action),
	)
	w.WriteHeader(http.StatusNoContent)
}
