package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"money-transfer/internal/config"
	"money-transfer/internal/errors"
	"money-transfer/internal/repository"
)

func newTestUserService(t *testing.T) (*UserService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewStore(db, logger)
	return NewUserService(store, cfg, logger), mock
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and seeded account in one transaction", func(t *testing.T) {
		svc, mock := newTestUserService(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(sqlmock.AnyArg(), "alice", "Alice Doe", "alice@example.com",
				sqlmock.AnyArg(), "https://cdn.example.com/alice.png", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), InitialBalance, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		user, err := svc.Register(ctx, &RegisterRequest{
			Username:       "  Alice ",
			FullName:       "Alice Doe",
			Email:          "Alice@Example.com",
			Password:       "sekret1",
			ProfilePicture: "https://cdn.example.com/alice.png",
		})

		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("sekret1")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username rolls back the account", func(t *testing.T) {
		svc, mock := newTestUserService(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		_, err := svc.Register(ctx, &RegisterRequest{
			Username:       "alice",
			FullName:       "Alice Doe",
			Email:          "alice@example.com",
			Password:       "sekret1",
			ProfilePicture: "https://cdn.example.com/alice.png",
		})

		assert.ErrorIs(t, err, errors.ErrDuplicateUser)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()

	userID := uuid.New()
	accountID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("sekret1"), bcrypt.MinCost)
	require.NoError(t, err)

	loginRows := func() *sqlmock.Rows {
		now := time.Now()
		return sqlmock.NewRows([]string{"id", "username", "full_name", "email", "password_hash", "profile_picture", "refresh_token", "created_at", "updated_at"}).
			AddRow(userID, "alice", "Alice Doe", "alice@example.com", string(hash), "https://cdn.example.com/alice.png", nil, now, now)
	}

	t.Run("issues tokens carrying the account id", func(t *testing.T) {
		svc, mock := newTestUserService(t)

		mock.ExpectQuery(`FROM users WHERE username = \$1 OR email = \$1`).
			WithArgs("alice").
			WillReturnRows(loginRows())
		mock.ExpectQuery(`FROM accounts WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance", "created_at", "updated_at"}).
				AddRow(accountID, userID, int64(1000), time.Now(), time.Now()))
		mock.ExpectExec(`UPDATE users SET refresh_token = \$1`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		user, tokens, err := svc.Login(ctx, "Alice", "sekret1")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		require.NotEmpty(t, tokens.AccessToken)
		require.NotEmpty(t, tokens.RefreshToken)

		parsed, err := jwt.Parse(tokens.AccessToken, func(token *jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, userID.String(), claims["sub"])
		assert.Equal(t, accountID.String(), claims["account_id"])
		assert.Equal(t, "alice", claims["username"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, mock := newTestUserService(t)

		mock.ExpectQuery(`FROM users WHERE username = \$1 OR email = \$1`).
			WithArgs("alice").
			WillReturnRows(loginRows())

		_, _, err := svc.Login(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user looks like bad credentials", func(t *testing.T) {
		svc, mock := newTestUserService(t)

		mock.ExpectQuery(`FROM users WHERE username = \$1 OR email = \$1`).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, _, err := svc.Login(ctx, "ghost", "whatever")
		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	hash, err := bcrypt.GenerateFromPassword([]byte("old-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	svc, mock := newTestUserService(t)

	now := time.Now()
	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "full_name", "email", "password_hash", "profile_picture", "refresh_token", "created_at", "updated_at"}).
			AddRow(userID, "alice", "Alice Doe", "alice@example.com", string(hash), "pic", nil, now, now))
	mock.ExpectExec(`UPDATE users SET password_hash = \$1`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.ChangePassword(ctx, userID, "old-pass", "new-pass"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
