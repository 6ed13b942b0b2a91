package services

import (
	"context"

	"github.com/corebank/backend/internal/models"
	"github.com/corebank/backend/internal/store"
)

const defaultHistoryLimit = 100

// TransactionService answers read-only queries against the append-only
// transaction ledger, enforcing that callers only see history they own.
type TransactionService struct {
	transactions *store.TransactionStore
	accounts     *store.AccountStore
	users        *store.UserStore
}

func NewTransactionService(transactions *store.TransactionStore, accounts *store.AccountStore, users *store.UserStore) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		accounts:     accounts,
		users:        users,
	}
}

func (s *TransactionService) GetByID(ctx context.Context, callerID int64, id string) (*models.Transaction, error) {
	record, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.involvesUser(record, callerID) {
		return record, nil
	}
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return record, nil
}

// ListByAccount returns the history of one account, either leg. Owner or
// admin only.
func (s *TransactionService) ListByAccount(ctx context.Context, callerID int64, number string) ([]models.Transaction, error) {
	acc, err := s.accounts.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if acc.UserID != callerID {
		if err := s.requireAdmin(ctx, callerID); err != nil {
			return nil, err
		}
	}
	return s.transactions.ListByAccount(ctx, number)
}

// ListByUser returns all history touching any of the user's accounts.
// Self or admin only.
func (s *TransactionService) ListByUser(ctx context.Context, callerID, userID int64) ([]models.Transaction, error) {
	if callerID != userID {
		if err := s.requireAdmin(ctx, callerID); err != nil {
			return nil, err
		}
	}
	return s.transactions.ListByUser(ctx, userID)
}

// ListAll returns the most recent records across all accounts. Admin only.
func (s *TransactionService) ListAll(ctx context.Context, callerID int64, limit int) ([]models.Transaction, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.transactions.ListAll(ctx, limit)
}

func (s *TransactionService) involvesUser(record *models.Transaction, userID int64) bool {
	if record.FromUserID != nil && *record.FromUserID == userID {
		return true
	}
	return record.ToUserID != nil && *record.ToUserID == userID
}

func (s *TransactionService) requireAdmin(ctx context.Context, callerID int64) error {
	user, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return models.ErrAccessDenied
	}
	return nil
}
