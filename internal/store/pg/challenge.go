package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nu-its/authgate/internal/domain/repository"
)

type challengeRepo struct {
	pool *pgxpool.Pool
}

const challengeColumns = `id, email, code_hash, attempts, locked_until, expires_at,
	consumed_at, consumed_ip, consumed_user_agent, requested_ip, email_sent_at, created_at`

// activePredicate es el predicado de actividad compartido por los updates
// condicionales: no consumido, no expirado, fuera de lockout. El fin del
// lockout es estricto (now > locked_until), igual que Active en memoria.
const activePredicate = `consumed_at IS NULL AND expires_at > now()
	AND (locked_until IS NULL OR locked_until < now())`

func scanChallenge(row pgx.Row) (*repository.LoginChallenge, error) {
	var c repository.LoginChallenge
	var consumedIP, consumedUA, requestedIP *string
	err := row.Scan(
		&c.ID, &c.Email, &c.CodeHash, &c.Attempts, &c.LockedUntil, &c.ExpiresAt,
		&c.ConsumedAt, &consumedIP, &consumedUA, &requestedIP, &c.EmailSentAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if consumedIP != nil {
		c.ConsumedIP = *consumedIP
	}
	if consumedUA != nil {
		c.ConsumedUserAgent = *consumedUA
	}
	if requestedIP != nil {
		c.RequestedIP = *requestedIP
	}
	return &c, nil
}

func (r *challengeRepo) Create(ctx context.Context, input repository.CreateChallengeInput) (*repository.LoginChallenge, error) {
	expiresAt := time.Now().UTC().Add(input.TTL)
	row := r.pool.QueryRow(ctx, `
		INSERT INTO login_challenge (email, code_hash, requested_ip, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+challengeColumns,
		input.Email, input.CodeHash, nullIfEmpty(input.RequestedIP), expiresAt,
	)
	return scanChallenge(row)
}

func (r *challengeRepo) Get(ctx context.Context, id string) (*repository.LoginChallenge, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM login_challenge WHERE id = $1`, id)
	c, err := scanChallenge(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return c, err
}

func (r *challengeRepo) RegisterFailure(ctx context.Context, id string, maxAttempts int, lockFor time.Duration) (*repository.LoginChallenge, error) {
	// Un único statement condicional: incrementa attempts y fija el lockout
	// en la misma pasada cuando se alcanza el umbral. Cierra la carrera del
	// read-increment-write clásico.
	lockedUntil := time.Now().UTC().Add(lockFor)
	row := r.pool.QueryRow(ctx, `
		UPDATE login_challenge SET
			attempts = attempts + 1,
			locked_until = CASE WHEN attempts + 1 >= $2 THEN $3 ELSE locked_until END
		WHERE id = $1 AND `+activePredicate+`
		RETURNING `+challengeColumns,
		id, maxAttempts, lockedUntil,
	)
	c, err := scanChallenge(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Challenge inactivo: no se mutó nada, devolver el estado actual
		return r.Get(ctx, id)
	}
	return c, err
}

func (r *challengeRepo) Consume(ctx context.Context, id, ip, userAgent string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE login_challenge SET
			consumed_at = now(),
			consumed_ip = $2,
			consumed_user_agent = $3
		WHERE id = $1 AND `+activePredicate,
		id, nullIfEmpty(ip), nullIfEmpty(repository.CapUserAgent(userAgent)),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *challengeRepo) MarkEmailSent(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE login_challenge SET email_sent_at = now()
		WHERE id = $1 AND email_sent_at IS NULL`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *challengeRepo) DeleteExpired(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM login_challenge
		WHERE expires_at < $1 OR consumed_at IS NOT NULL`, olderThan)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
