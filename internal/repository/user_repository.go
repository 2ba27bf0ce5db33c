package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"money-transfer/internal/domain"
	"money-transfer/internal/errors"
)

type userRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewUserRepository(db SQLExecutor, logger *slog.Logger) domain.UserRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, full_name, email, password_hash, profile_picture, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	now := time.Now()
	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Username,
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.ProfilePicture,
		now,
		now,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				r.logger.Warn("Duplicate user registration attempt", "username", user.Username)
				return errors.ErrDuplicateUser
			}
		}
		r.logger.Error("Failed to create user", "username", user.Username, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create user").WithDetails(err.Error())
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, username, full_name, email, password_hash, profile_picture, refresh_token, created_at, updated_at
		FROM users WHERE id = $1
	`

	return r.scanUser(ctx, query, id)
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, username, full_name, email, password_hash, profile_picture, refresh_token, created_at, updated_at
		FROM users WHERE username = $1
	`

	return r.scanUser(ctx, query, username)
}

func (r *userRepository) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	query := `
		SELECT id, username, full_name, email, password_hash, profile_picture, refresh_token, created_at, updated_at
		FROM users WHERE username = $1 OR email = $1
	`

	return r.scanUser(ctx, query, login)
}

func (r *userRepository) scanUser(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	var refreshToken sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.ProfilePicture,
		&refreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrUserNotFound
		}
		r.logger.Error("Failed to get user", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get user").WithDetails(err.Error())
	}

	user.RefreshToken = refreshToken.String
	return &user, nil
}

func (r *userRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	var value interface{}
	if token != "" {
		value = token
	}
	return r.updateColumn(ctx, `UPDATE users SET refresh_token = $1, updated_at = $2 WHERE id = $3`, id, value)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.updateColumn(ctx, `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, id, passwordHash)
}

func (r *userRepository) UpdateFullName(ctx context.Context, id uuid.UUID, fullName string) error {
	return r.updateColumn(ctx, `UPDATE users SET full_name = $1, updated_at = $2 WHERE id = $3`, id, fullName)
}

func (r *userRepository) UpdateProfilePicture(ctx context.Context, id uuid.UUID, profilePicture string) error {
	return r.updateColumn(ctx, `UPDATE users SET profile_picture = $1, updated_at = $2 WHERE id = $3`, id, profilePicture)
}

func (r *userRepository) updateColumn(ctx context.Context, query string, id uuid.UUID, value interface{}) error {
	result, err := r.db.ExecContext(ctx, query, value, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update user", "user_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update user").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		return errors.ErrUserNotFound
	}

	return nil
}
