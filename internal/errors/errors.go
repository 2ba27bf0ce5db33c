package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InvalidInput            ErrorCode = "invalid_input"
	InvalidAmount           ErrorCode = "invalid_amount"
	InvalidMessage          ErrorCode = "invalid_message"
	SelfTransferNotAllowed  ErrorCode = "self_transfer_not_allowed"
	ReceiverNotFound        ErrorCode = "receiver_not_found"
	AccountNotFound         ErrorCode = "account_not_found"
	UserNotFound            ErrorCode = "user_not_found"
	InsufficientFunds       ErrorCode = "insufficient_funds"
	TransferFailed          ErrorCode = "transfer_failed"
	RecordingFailed         ErrorCode = "recording_failed"
	Unauthorized            ErrorCode = "unauthorized"
	InvalidCredentials      ErrorCode = "invalid_credentials"
	DuplicateUser           ErrorCode = "duplicate_user"
	CannotBeginTransaction  ErrorCode = "cannot_begin_transaction"
	InternalError           ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches by code, so sentinel errors survive WithDetails copies.
// RecordingFailed additionally matches TransferFailed: a failed ledger
// append is one kind of failed atomic unit.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if e.Code == t.Code {
		return true
	}
	return e.Code == RecordingFailed && t.Code == TransferFailed
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetails returns a copy so the predefined sentinels stay immutable.
func (e *AppError) WithDetails(details string) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidInput, InvalidAmount, InvalidMessage, SelfTransferNotAllowed:
		return http.StatusBadRequest
	case Unauthorized, InvalidCredentials:
		return http.StatusUnauthorized
	case ReceiverNotFound, AccountNotFound, UserNotFound:
		return http.StatusNotFound
	case DuplicateUser:
		return http.StatusConflict
	case InsufficientFunds:
		return http.StatusUnprocessableEntity
	case TransferFailed:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrInvalidAmount          = NewAppError(InvalidAmount, "amount must be a positive integer")
	ErrInvalidMessage         = NewAppError(InvalidMessage, "message exceeds the maximum length")
	ErrSelfTransferNotAllowed = NewAppError(SelfTransferNotAllowed, "cannot send money to yourself")
	ErrReceiverNotFound       = NewAppError(ReceiverNotFound, "receiver not found")
	ErrAccountNotFound        = NewAppError(AccountNotFound, "account not found")
	ErrUserNotFound           = NewAppError(UserNotFound, "user not found")
	ErrInsufficientFunds      = NewAppError(InsufficientFunds, "insufficient funds")
	ErrTransferFailed         = NewAppError(TransferFailed, "transfer could not be completed")
	ErrRecordingFailed        = NewAppError(RecordingFailed, "transfer record could not be written")
	ErrUnauthorized           = NewAppError(Unauthorized, "authentication required")
	ErrInvalidCredentials     = NewAppError(InvalidCredentials, "invalid username or password")
	ErrDuplicateUser          = NewAppError(DuplicateUser, "username or email already taken")
	ErrCannotBeginTransaction = NewAppError(CannotBeginTransaction, "store is already transaction-scoped")
)
