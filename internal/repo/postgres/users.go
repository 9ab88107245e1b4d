package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/geocoder89/authhub/internal/observability"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Names of the unique constraints created by the users migration.
const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

// DB is the subset of *pgxpool.Pool the repo needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UsersRepo struct {
	db   DB
	prom *observability.Prom
}

func NewUsersRepo(db DB, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{db: db, prom: prom}
}

const userColumns = `id::text, username, email, password_hash, COALESCE(current_token, ''), created_at, updated_at`

func scanUser(row pgx.Row) (u user.User, err error) {
	err = row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.CurrentToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return
}

func (r *UsersRepo) FindByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.find_by_username", func() error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE username = $1`,
			username,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// FindByUsernameOrEmail prefers the row whose username matches when both exist.
func (r *UsersRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.find_by_username_or_email", func() error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE username = $1 OR email = $2
			 ORDER BY (username = $1) DESC
			 LIMIT 1`,
			username, email,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// Create relies on the table's unique constraints, not on a prior read,
// so two racing inserts resolve to one row and one ConflictError.
func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.create", func() error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx,
			`INSERT INTO users (username, email, password_hash)
			 VALUES ($1, $2, $3)
			 RETURNING `+userColumns,
			username, email, passwordHash,
		))
		return err
	})

	if err != nil {
		if field, ok := conflictField(err); ok {
			return user.User{}, user.NewConflict(field)
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) UpdateToken(ctx context.Context, id, token string) error {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB("users.update_token", func() error {
		var err error
		tag, err = r.db.Exec(ctx,
			`UPDATE users
			 SET current_token = $2, updated_at = now()
			 WHERE id = $1`,
			id, token,
		)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return nil
}

func conflictField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return "", false
	}

	switch pgErr.ConstraintName {
	case usernameConstraint:
		return user.FieldUsername, true
	case emailConstraint:
		return user.FieldEmail, true
	}

	// unknown constraint name, fall back to the detail text: Key (email)=(...) already exists.
	if strings.Contains(pgErr.Detail, "(email)") {
		return user.FieldEmail, true
	}

	return user.FieldUsername, true
}
