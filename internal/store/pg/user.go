package pg

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nu-its/authgate/internal/domain/repository"
)

type userRepo struct {
	pool *pgxpool.Pool
}

const userColumns = `id, email, name, netid, auth_type, disabled_at, created_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	var netid *string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &netid, &u.AuthType, &u.DisabledAt, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if netid != nil {
		u.NetID = *netid
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	row := r.pool.QueryRow(ctx, `
		INSERT INTO app_user (email, name, netid, auth_type)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		email, input.Name, nullIfEmpty(input.NetID), input.AuthType,
	)
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*repository.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE id = $1`, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE email = $1`, email))
}

func (r *userRepo) GetByNetID(ctx context.Context, netid string) (*repository.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE netid = $1`, netid))
}

func (r *userRepo) SetDisabled(ctx context.Context, id string, disabled bool) error {
	var tag pgconn.CommandTag
	var err error
	if disabled {
		tag, err = r.pool.Exec(ctx, `
			UPDATE app_user SET disabled_at = COALESCE(disabled_at, now())
			WHERE id = $1`, id)
	} else {
		tag, err = r.pool.Exec(ctx, `
			UPDATE app_user SET disabled_at = NULL WHERE id = $1`, id)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
