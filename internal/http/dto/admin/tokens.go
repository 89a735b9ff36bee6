// Package admin contiene los DTOs del surface administrativo.
package admin

import "time"

// CreateTokenRequest es el body de POST /v1/admin/tokens.
type CreateTokenRequest struct {
	UserID     string   `json:"user_id"`
	Name       string   `json:"name"`
	AllowedIPs []string `json:"allowed_ips,omitempty"`
	TTLDays    int      `json:"ttl_days,omitempty"` // 0 = sin expiración
}

// CreateTokenResponse devuelve el token crudo UNA sola vez.
type CreateTokenResponse struct {
	ID          string     `json:"id"`
	Token       string     `json:"token"`
	TokenPrefix string     `json:"token_prefix"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// TokenView es la representación de listado (sin hash, sin token crudo).
type TokenView struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	TokenPrefix string     `json:"token_prefix"`
	AllowedIPs  []string   `json:"allowed_ips,omitempty"`
	Status      string     `json:"status"`
	UsageCount  int64      `json:"usage_count"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateUserRequest es el body de POST /v1/admin/users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	NetID    string `json:"netid,omitempty"`
	AuthType string `json:"auth_type"`
}

// UserView es la representación de un usuario en respuestas admin.
type UserView struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	NetID      string     `json:"netid,omitempty"`
	AuthType   string     `json:"auth_type"`
	DisabledAt *time.Time `json:"disabled_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
