package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ParticipantDetails is the display snapshot captured when a transfer
// commits. It is a plain value, never a reference to the live user rows,
// so later profile edits do not rewrite history.
type ParticipantDetails struct {
	SenderUsername         string `json:"sender_username"`
	SenderProfilePicture   string `json:"sender_profile_picture"`
	ReceiverUsername       string `json:"receiver_username"`
	ReceiverProfilePicture string `json:"receiver_profile_picture"`
}

// TransferRecord is one committed ledger entry. Rows are append-only:
// created exactly once per successful transfer, never updated or deleted.
type TransferRecord struct {
	ID            uuid.UUID          `json:"id"`
	FromAccountID uuid.UUID          `json:"from_account_id"`
	ToAccountID   uuid.UUID          `json:"to_account_id"`
	Amount        int64              `json:"amount"`
	Message       string             `json:"message,omitempty"`
	Participants  ParticipantDetails `json:"participants_details"`
	CreatedAt     time.Time          `json:"created_at"`
}

type LedgerRepository interface {
	// Append inserts the record as part of the caller's transaction.
	Append(ctx context.Context, record *TransferRecord) error
	// QueryByAccount returns records where the account is sender or
	// receiver, newest first, ties broken by insertion order.
	QueryByAccount(ctx context.Context, accountID uuid.UUID, offset, limit int) ([]TransferRecord, error)
}
