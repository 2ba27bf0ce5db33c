package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Account holds a user's balance in the smallest currency unit.
// Balance is never negative; the only mutation path is AdjustBalance
// inside a transfer transaction.
type Account struct {
	ID        uuid.UUID `json:"account_id"`
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	GetAccountByUserID(ctx context.Context, userID uuid.UUID) (*Account, error)
	// GetAccountForUpdate locks the row (SELECT ... FOR UPDATE); only
	// meaningful on a transaction-scoped store.
	GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)
	// AdjustBalance applies balance += delta, refusing any change that
	// would leave the balance negative.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) error
}
