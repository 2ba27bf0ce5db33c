package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"money-transfer/internal/domain"
	"money-transfer/internal/errors"
)

// Store is the unit of work over all repositories. A Store built by
// NewStore runs each call on the connection pool; the Store handed to a
// WithTransaction callback runs everything on one *sql.Tx, so balance
// updates and the ledger append commit together or not at all.
type Store struct {
	db       *sql.DB // nil on a transaction-scoped Store
	executor SQLExecutor
	logger   *slog.Logger
}

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		db:       db,
		executor: db,
		logger:   logger,
	}
}

func (s *Store) Account() domain.AccountRepository {
	return NewAccountRepository(s.executor, s.logger)
}

func (s *Store) Ledger() domain.LedgerRepository {
	return NewLedgerRepository(s.executor, s.logger)
}

func (s *Store) User() domain.UserRepository {
	return NewUserRepository(s.executor, s.logger)
}

// WithTransaction executes fn within a database transaction. Any error
// (or panic) from fn rolls the whole unit back.
func (s *Store) WithTransaction(ctx context.Context, fn func(*Store) error) error {
	if s.db == nil {
		return errors.ErrCannotBeginTransaction
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	txStore := &Store{
		executor: tx,
		logger:   s.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
