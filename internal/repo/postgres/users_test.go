package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "username", "email", "password_hash", "current_token", "created_at", "updated_at"}

func TestUsersRepo_FindByUsername(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantID    string
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userCols).
					AddRow("u-1", "someone1", "a@b.co", "hash", "", now, now)
				mock.ExpectQuery(`FROM users\s+WHERE username = \$1`).
					WithArgs("someone1").
					WillReturnRows(rows)
			},
			wantID: "u-1",
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM users\s+WHERE username = \$1`).
					WithArgs("someone1").
					WillReturnRows(pgxmock.NewRows(userCols))
			},
			wantErr: user.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewUsersRepo(mock, nil)
			got, err := repo.FindByUsername(context.Background(), "someone1")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, got.ID)
				assert.Equal(t, "hash", got.PasswordHash)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUsersRepo_FindByUsernameOrEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`WHERE username = \$1 OR email = \$2`).
		WithArgs("someone1", "a@b.co").
		WillReturnRows(pgxmock.NewRows(userCols).AddRow("u-9", "other999", "a@b.co", "hash", "tok", now, now))

	repo := NewUsersRepo(mock, nil)
	got, err := repo.FindByUsernameOrEmail(context.Background(), "someone1", "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, "u-9", got.ID)
	assert.Equal(t, "tok", got.CurrentToken)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersRepo_Create(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name      string
		insertErr error
		wantField string
		wantErr   bool
	}{
		{name: "success"},
		{
			name:      "username constraint",
			insertErr: &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"},
			wantField: user.FieldUsername,
			wantErr:   true,
		},
		{
			name:      "email constraint",
			insertErr: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"},
			wantField: user.FieldEmail,
			wantErr:   true,
		},
		{
			name:      "unnamed constraint falls back to detail",
			insertErr: &pgconn.PgError{Code: "23505", Detail: "Key (email)=(a@b.co) already exists."},
			wantField: user.FieldEmail,
			wantErr:   true,
		},
		{
			name:      "other db error",
			insertErr: errors.New("connection reset"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			exp := mock.ExpectQuery(`INSERT INTO users \(username, email, password_hash\)`).
				WithArgs("someone1", "a@b.co", "hash")
			if tt.insertErr != nil {
				exp.WillReturnError(tt.insertErr)
			} else {
				exp.WillReturnRows(pgxmock.NewRows(userCols).AddRow("u-1", "someone1", "a@b.co", "hash", "", now, now))
			}

			repo := NewUsersRepo(mock, nil)
			got, err := repo.Create(context.Background(), "someone1", "a@b.co", "hash")

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "u-1", got.ID)
				assert.Empty(t, got.CurrentToken)
			} else {
				require.Error(t, err)

				var conflict *user.ConflictError
				if tt.wantField != "" {
					require.ErrorAs(t, err, &conflict)
					assert.Equal(t, tt.wantField, conflict.Field)
					assert.ErrorIs(t, err, user.ErrConflict)
				} else {
					assert.False(t, errors.As(err, &conflict))
				}
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUsersRepo_UpdateToken(t *testing.T) {
	t.Run("updates row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE users\s+SET current_token = \$2`).
			WithArgs("u-1", "tok").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewUsersRepo(mock, nil)
		require.NoError(t, repo.UpdateToken(context.Background(), "u-1", "tok"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE users`).
			WithArgs("missing", "tok").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewUsersRepo(mock, nil)
		err = repo.UpdateToken(context.Background(), "missing", "tok")
		require.ErrorIs(t, err, user.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
