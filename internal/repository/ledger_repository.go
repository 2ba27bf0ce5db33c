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

type ledgerRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewLedgerRepository(db SQLExecutor, logger *slog.Logger) domain.LedgerRepository {
	return &ledgerRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts an immutable transfer record. It must run on a
// transaction-scoped store together with the two balance adjustments; a
// failure here aborts the whole unit, which is why the error is
// RecordingFailed rather than a bare internal error.
func (r *ledgerRepository) Append(ctx context.Context, record *domain.TransferRecord) error {
	query := `
		INSERT INTO transfers
		(id, from_account_id, to_account_id, amount, message,
		 sender_username, sender_profile_picture, receiver_username, receiver_profile_picture, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now()

	var message interface{}
	if record.Message != "" {
		message = record.Message
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.FromAccountID,
		record.ToAccountID,
		record.Amount,
		message,
		record.Participants.SenderUsername,
		record.Participants.SenderProfilePicture,
		record.Participants.ReceiverUsername,
		record.Participants.ReceiverProfilePicture,
		now,
	)

	if err != nil {
		r.logger.Error("Failed to append transfer record",
			"from_account_id", record.FromAccountID,
			"to_account_id", record.ToAccountID,
			"amount", record.Amount,
			"error", err)
		return errors.ErrRecordingFailed.WithDetails(err.Error())
	}

	record.CreatedAt = now
	return nil
}

func (r *ledgerRepository) QueryByAccount(ctx context.Context, accountID uuid.UUID, offset, limit int) ([]domain.TransferRecord, error) {
	query := `
		SELECT id, from_account_id, to_account_id, amount, message,
		       sender_username, sender_profile_picture, receiver_username, receiver_profile_picture, created_at
		FROM transfers
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to query transfers", "account_id", accountID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to query transfers").WithDetails(err.Error())
	}
	defer rows.Close()

	records := make([]domain.TransferRecord, 0, limit)
	for rows.Next() {
		var record domain.TransferRecord
		var message sql.NullString

		if err := rows.Scan(
			&record.ID,
			&record.FromAccountID,
			&record.ToAccountID,
			&record.Amount,
			&message,
			&record.Participants.SenderUsername,
			&record.Participants.SenderProfilePicture,
			&record.Participants.ReceiverUsername,
			&record.Participants.ReceiverProfilePicture,
			&record.CreatedAt,
		); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan transfer").WithDetails(err.Error())
		}

		record.Message = message.String
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to read transfers").WithDetails(err.Error())
	}

	return records, nil
}
