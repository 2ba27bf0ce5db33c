package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"money-transfer/internal/domain"
	"money-transfer/internal/repository"
)

const DefaultPageSize = 10

type HistoryService struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewHistoryService(store *repository.Store, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		store:  store,
		logger: logger,
	}
}

// GetHistory pages through an account's ledger entries, newest first.
// Out-of-range pages and accounts with no transfers yield an empty slice,
// not an error.
func (s *HistoryService) GetHistory(ctx context.Context, accountID uuid.UUID, page, pageSize int) ([]domain.TransferRecord, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	offset := (page - 1) * pageSize

	return s.store.Ledger().QueryByAccount(ctx, accountID, offset, pageSize)
}
