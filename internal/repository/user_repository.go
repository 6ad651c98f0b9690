package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

// ErrEmailTaken is returned when creating an account with an email that
// already has one.
var ErrEmailTaken = errors.New("an account with this email already exists")

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// User is an account row. SSHFingerprint is set for users who log in to the
// terminal dashboard with a public key.
type User struct {
	ID             int64
	Email          string
	PasswordHash   string
	SSHFingerprint *string
	CreatedAt      time.Time
	LastLoginAt    *time.Time
}

type UserRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewUserRepository(pool PgxPool, tracer trace.Tracer) *UserRepository {
	return &UserRepository{pool: pool, tracer: tracer}
}

func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) (*User, error) {
	_, span := r.tracer.Start(ctx, "user-repo.create")
	defer span.End()

	u := &User{Email: email, PasswordHash: passwordHash}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2)
		 RETURNING id, created_at`,
		email, passwordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	_, span := r.tracer.Start(ctx, "user-repo.find-by-email")
	defer span.End()

	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, ssh_fingerprint, created_at, last_login_at
		 FROM users WHERE email = $1`,
		email,
	))
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	_, span := r.tracer.Start(ctx, "user-repo.find-by-id")
	defer span.End()

	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, ssh_fingerprint, created_at, last_login_at
		 FROM users WHERE id = $1`,
		id,
	))
}

func (r *UserRepository) FindBySSHFingerprint(ctx context.Context, fingerprint string) (*User, error) {
	_, span := r.tracer.Start(ctx, "user-repo.find-by-ssh-fingerprint")
	defer span.End()

	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, ssh_fingerprint, created_at, last_login_at
		 FROM users WHERE ssh_fingerprint = $1`,
		fingerprint,
	))
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	_, span := r.tracer.Start(ctx, "user-repo.update-last-login")
	defer span.End()

	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *UserRepository) scanOne(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.SSHFingerprint, &u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
