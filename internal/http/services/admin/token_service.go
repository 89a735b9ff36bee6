// Package admin contiene los services del surface administrativo: emisión y
// revocación de access tokens, y alta de usuarios.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/nu-its/authgate/internal/domain/repository"
	dto "github.com/nu-its/authgate/internal/http/dto/admin"
	"github.com/nu-its/authgate/internal/observability/logger"
	"github.com/nu-its/authgate/internal/security/ipmatch"
	tokens "github.com/nu-its/authgate/internal/security/token"
	"github.com/nu-its/authgate/internal/validation"
)

// Errores de negocio del surface admin.
var (
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrNotAPIUser   = fmt.Errorf("tokens can only be issued to api users")
)

// TokenDeps contiene las dependencias del service.
type TokenDeps struct {
	Tokens repository.TokenRepository
	Users  repository.UserRepository
	// HMACKey firma los hashes de tokens (la misma key del middleware).
	HMACKey []byte
	// TokenBytes es el largo del token crudo en bytes aleatorios.
	TokenBytes int
}

// TokenService emite, lista y revoca access tokens, y crea usuarios.
type TokenService struct {
	deps TokenDeps
}

// NewTokenService crea el service administrativo.
func NewTokenService(deps TokenDeps) *TokenService {
	if deps.TokenBytes <= 0 {
		deps.TokenBytes = 32
	}
	return &TokenService{deps: deps}
}

// IssueToken genera un access token nuevo para un usuario API. El valor
// crudo se retorna una única vez; solo el hash queda persistido.
func (s *TokenService) IssueToken(ctx context.Context, in dto.CreateTokenRequest) (*dto.CreateTokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.tokens"),
		logger.Op("IssueToken"),
	)

	if in.UserID == "" || in.Name == "" {
		return nil, fmt.Errorf("%w: user_id and name are required", ErrInvalidInput)
	}

	// Validar entradas de la allow-list antes de persistir: una entrada
	// malformada denegaría todos los requests del token
	for _, e := range in.AllowedIPs {
		if err := ipmatch.ValidateEntry(e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	user, err := s.deps.Users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user.AuthType != repository.AuthAPI {
		return nil, ErrNotAPIUser
	}

	raw, err := tokens.GenerateOpaqueToken(s.deps.TokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	hash := tokens.HMACSHA256Base64URL(s.deps.HMACKey, raw)

	var ttl time.Duration
	if in.TTLDays > 0 {
		ttl = time.Duration(in.TTLDays) * 24 * time.Hour
	}

	rec, err := s.deps.Tokens.Create(ctx, repository.CreateTokenInput{
		UserID:      user.ID,
		Name:        in.Name,
		TokenHash:   hash,
		TokenPrefix: tokens.Prefix(raw),
		AllowedIPs:  in.AllowedIPs,
		TTL:         ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	log.Info("access token issued",
		logger.TokenID(rec.ID),
		logger.UserID(user.ID),
	)

	return &dto.CreateTokenResponse{
		ID:          rec.ID,
		Token:       raw,
		TokenPrefix: rec.TokenPrefix,
		ExpiresAt:   rec.ExpiresAt,
	}, nil
}

// ListTokens lista los tokens de un usuario.
func (s *TokenService) ListTokens(ctx context.Context, userID string) ([]dto.TokenView, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	recs, err := s.deps.Tokens.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	out := make([]dto.TokenView, 0, len(recs))
	for _, t := range recs {
		out = append(out, dto.TokenView{
			ID:          t.ID,
			UserID:      t.UserID,
			Name:        t.Name,
			TokenPrefix: t.TokenPrefix,
			AllowedIPs:  t.AllowedIPs,
			Status:      string(t.Status(now)),
			UsageCount:  t.UsageCount,
			LastUsedAt:  t.LastUsedAt,
			ExpiresAt:   t.ExpiresAt,
			CreatedAt:   t.CreatedAt,
		})
	}
	return out, nil
}

// RevokeToken revoca un token por ID. Idempotente.
func (s *TokenService) RevokeToken(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if err := s.deps.Tokens.Revoke(ctx, id); err != nil {
		return err
	}
	logger.From(ctx).Info("access token revoked",
		logger.Component("admin.tokens"),
		logger.TokenID(id),
	)
	return nil
}

// CreateUser da de alta un usuario local o API.
func (s *TokenService) CreateUser(ctx context.Context, in dto.CreateUserRequest) (*dto.UserView, error) {
	emailAddr := validation.NormalizeEmail(in.Email)
	if !validation.ValidEmail(emailAddr) {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	at := repository.AuthType(in.AuthType)
	switch at {
	case repository.AuthLocal, repository.AuthSSO, repository.AuthAPI:
	default:
		return nil, fmt.Errorf("%w: unknown auth_type %q", ErrInvalidInput, in.AuthType)
	}

	u, err := s.deps.Users.Create(ctx, repository.CreateUserInput{
		Email:    emailAddr,
		Name:     in.Name,
		NetID:    in.NetID,
		AuthType: at,
	})
	if err != nil {
		return nil, err
	}
	return &dto.UserView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		NetID:     u.NetID,
		AuthType:  string(u.AuthType),
		CreatedAt: u.CreatedAt,
	}, nil
}
