package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nu-its/authgate/internal/domain/repository"
)

type tokenRepo struct {
	pool *pgxpool.Pool
}

const tokenColumns = `t.id, t.user_id, t.name, t.token_hash, t.token_prefix,
	t.allowed_ips, t.usage_count, t.last_used_at, t.expires_at, t.revoked_at, t.created_at`

// tokenReturning son las mismas columnas sin alias, para INSERT ... RETURNING.
const tokenReturning = `id, user_id, name, token_hash, token_prefix,
	allowed_ips, usage_count, last_used_at, expires_at, revoked_at, created_at`

func scanToken(row pgx.Row, extra ...any) (*repository.AccessToken, error) {
	var t repository.AccessToken
	dest := []any{
		&t.ID, &t.UserID, &t.Name, &t.TokenHash, &t.TokenPrefix,
		&t.AllowedIPs, &t.UsageCount, &t.LastUsedAt, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepo) Create(ctx context.Context, input repository.CreateTokenInput) (*repository.AccessToken, error) {
	var expiresAt *time.Time
	if input.TTL > 0 {
		exp := time.Now().UTC().Add(input.TTL)
		expiresAt = &exp
	}
	var allowedIPs []string
	if len(input.AllowedIPs) > 0 {
		allowedIPs = input.AllowedIPs
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO access_token (user_id, name, token_hash, token_prefix, allowed_ips, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+tokenReturning,
		input.UserID, input.Name, input.TokenHash, input.TokenPrefix, allowedIPs, expiresAt,
	)
	return scanToken(row)
}

func (r *tokenRepo) GetActiveByHash(ctx context.Context, tokenHash string) (*repository.AccessToken, *repository.User, error) {
	// Join al dueño: solo usuarios API habilitados con token activo
	row := r.pool.QueryRow(ctx, `
		SELECT `+tokenColumns+`,
			u.id, u.email, u.name, u.netid, u.auth_type, u.disabled_at, u.created_at
		FROM access_token t
		JOIN app_user u ON u.id = t.user_id
		WHERE t.token_hash = $1
			AND t.revoked_at IS NULL
			AND (t.expires_at IS NULL OR t.expires_at > now())
			AND u.auth_type = 'api'
			AND u.disabled_at IS NULL`,
		tokenHash,
	)

	var u repository.User
	var netid *string
	t, err := scanToken(row,
		&u.ID, &u.Email, &u.Name, &netid, &u.AuthType, &u.DisabledAt, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if netid != nil {
		u.NetID = *netid
	}
	return t, &u, nil
}

func (r *tokenRepo) Touch(ctx context.Context, id string) error {
	// Increment atómico: sin lost updates bajo requests concurrentes
	tag, err := r.pool.Exec(ctx, `
		UPDATE access_token SET usage_count = usage_count + 1, last_used_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *tokenRepo) Revoke(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE access_token SET revoked_at = now()
		WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Puede no existir o ya estar revocado; distinguir para el caller
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM access_token WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
	}
	return nil
}

func (r *tokenRepo) ListByUser(ctx context.Context, userID string) ([]*repository.AccessToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+tokenColumns+` FROM access_token t
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*repository.AccessToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
