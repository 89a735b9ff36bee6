// Package me expone el endpoint de identidad del principal autenticado.
package me

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nu-its/authgate/internal/http/middlewares"
	"github.com/nu-its/authgate/internal/http/problem"
)

// Response es el body de GET /v1/me.
type Response struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	NetID     string    `json:"netid,omitempty"`
	AuthType  string    `json:"auth_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Controller maneja GET /v1/me.
type Controller struct{}

// NewController crea el controller.
func NewController() *Controller { return &Controller{} }

// Me maneja GET /v1/me
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	user := middlewares.GetUser(r.Context())
	if user == nil {
		// Solo alcanzable si el router olvidó el middleware de auth
		problem.Write(w, problem.ErrUnauthenticated)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(Response{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		NetID:     user.NetID,
		AuthType:  string(user.AuthType),
		CreatedAt: user.CreatedAt,
	})
}
