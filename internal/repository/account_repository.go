package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"money-transfer/internal/domain"
	"money-transfer/internal/errors"
)

type accountRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewAccountRepository(db SQLExecutor, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	now := time.Now()
	_, err := r.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.UserID,
		account.Balance,
		now,
		now,
	)

	if err != nil {
		r.logger.Error("Failed to create account", "account_id", account.ID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create account").WithDetails(err.Error())
	}

	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

func (r *accountRepository) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts WHERE id = $1
	`

	return r.scanAccount(ctx, query, id)
}

func (r *accountRepository) GetAccountByUserID(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts WHERE user_id = $1
	`

	return r.scanAccount(ctx, query, userID)
}

func (r *accountRepository) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts WHERE id = $1 FOR UPDATE
	`

	return r.scanAccount(ctx, query, id)
}

func (r *accountRepository) scanAccount(ctx context.Context, query string, arg interface{}) (*domain.Account, error) {
	var account domain.Account

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID,
		&account.UserID,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get account").WithDetails(err.Error())
	}

	return &account, nil
}

// AdjustBalance is the only balance mutation. The predicate repeats the
// balance check against the current row, so a debit racing another debit
// can never drive the balance below zero even without an explicit
// re-read. The caller is expected to hold the row lock, making a zero
// rows-affected result unambiguously an insufficient-funds refusal.
func (r *accountRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) error {
	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = $2
		WHERE id = $3 AND balance + $1 >= 0
	`

	result, err := r.db.ExecContext(ctx, query, delta, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to adjust balance", "account_id", id, "delta", delta, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to adjust balance").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		return errors.ErrInsufficientFunds
	}

	return nil
}
