package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"money-transfer/internal/domain"
	"money-transfer/internal/errors"
	"money-transfer/internal/repository"
)

// MaxMessageLength bounds the optional note attached to a transfer.
// Longer messages are rejected, not truncated.
const MaxMessageLength = 256

type TransferService struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewTransferService(store *repository.Store, logger *slog.Logger) *TransferService {
	return &TransferService{
		store:  store,
		logger: logger,
	}
}

type TransferRequest struct {
	SenderAccountID  uuid.UUID
	ReceiverUsername string
	Amount           string
	Message          string
}

// Transfer debits the sender, credits the receiver and appends one ledger
// record, all inside a single database transaction. Both account rows are
// locked before the balance check, so the check always sees the true
// post-interleaving balance; when two transfers race for the same funds,
// one of them fails with InsufficientFunds instead of overdrawing.
//
// The operation is not idempotent: retrying a timed-out call moves money
// again. Callers must treat InsufficientFunds and the other validation
// failures as terminal; only TransferFailed is worth retrying.
func (s *TransferService) Transfer(ctx context.Context, req *TransferRequest) (*domain.TransferRecord, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	if utf8.RuneCountInString(req.Message) > MaxMessageLength {
		return nil, errors.ErrInvalidMessage
	}

	receiver, err := s.store.User().GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(req.ReceiverUsername)))
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.ErrReceiverNotFound
		}
		return nil, err
	}

	receiverAccount, err := s.store.Account().GetAccountByUserID(ctx, receiver.ID)
	if err != nil {
		if stderrors.Is(err, errors.ErrAccountNotFound) {
			return nil, errors.ErrReceiverNotFound
		}
		return nil, err
	}

	if receiverAccount.ID == req.SenderAccountID {
		return nil, errors.ErrSelfTransferNotAllowed
	}

	var record *domain.TransferRecord

	err = s.store.WithTransaction(ctx, func(tx *repository.Store) error {
		sender, receiverAcc, err := lockAccountPair(ctx, tx, req.SenderAccountID, receiverAccount.ID)
		if err != nil {
			return err
		}

		if sender.Balance < amount {
			return errors.ErrInsufficientFunds
		}

		if err := tx.Account().AdjustBalance(ctx, sender.ID, -amount); err != nil {
			return err
		}
		if err := tx.Account().AdjustBalance(ctx, receiverAcc.ID, amount); err != nil {
			return err
		}

		// Snapshot both parties' display fields as they are at commit
		// time; the record keeps these values even if the profiles
		// change later.
		senderUser, err := tx.User().GetUserByID(ctx, sender.UserID)
		if err != nil {
			return err
		}
		receiverUser, err := tx.User().GetUserByID(ctx, receiverAcc.UserID)
		if err != nil {
			return err
		}

		record = &domain.TransferRecord{
			ID:            uuid.New(),
			FromAccountID: sender.ID,
			ToAccountID:   receiverAcc.ID,
			Amount:        amount,
			Message:       req.Message,
			Participants: domain.ParticipantDetails{
				SenderUsername:         senderUser.Username,
				SenderProfilePicture:   senderUser.ProfilePicture,
				ReceiverUsername:       receiverUser.Username,
				ReceiverProfilePicture: receiverUser.ProfilePicture,
			},
		}

		return tx.Ledger().Append(ctx, record)
	})

	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, appErr
		}
		// Commit conflicts, deadlocks and driver failures all surface as
		// the generic retryable failure; the rollback already happened.
		s.logger.Error("Transfer aborted",
			"sender_account_id", req.SenderAccountID,
			"receiver_username", req.ReceiverUsername,
			"error", err)
		return nil, errors.ErrTransferFailed.WithDetails(err.Error())
	}

	s.logger.Info("Transfer completed",
		"transfer_id", record.ID,
		"from_account_id", record.FromAccountID,
		"to_account_id", record.ToAccountID,
		"amount", record.Amount)

	return record, nil
}

// lockAccountPair acquires both row locks in deterministic id order so two
// opposite-direction transfers between the same accounts cannot deadlock.
func lockAccountPair(ctx context.Context, tx *repository.Store, senderID, receiverID uuid.UUID) (sender, receiver *domain.Account, err error) {
	firstID, secondID := senderID, receiverID
	if secondID.String() < firstID.String() {
		firstID, secondID = secondID, firstID
	}

	first, err := tx.Account().GetAccountForUpdate(ctx, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := tx.Account().GetAccountForUpdate(ctx, secondID)
	if err != nil {
		return nil, nil, err
	}

	if first.ID == senderID {
		return first, second, nil
	}
	return second, first, nil
}

// parseAmount accepts the wire representation of an amount and requires a
// whole, positive number of currency units.
func parseAmount(raw string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.ErrInvalidAmount
	}
	if !d.IsInteger() || d.Sign() <= 0 {
		return 0, errors.ErrInvalidAmount
	}
	if !d.BigInt().IsInt64() {
		return 0, errors.ErrInvalidAmount
	}
	return d.IntPart(), nil
}
