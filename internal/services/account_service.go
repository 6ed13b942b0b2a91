package services

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebank/backend/internal/models"
	"github.com/corebank/backend/internal/store"
)

// AccountService carries the per-account ledger operations: deposits,
// withdrawals, account lifecycle and admin blocking. Credit-specific
// bookkeeping is dispatched through the account kind; the heavy credit
// administration lives in CreditService.
type AccountService struct {
	accounts     *store.AccountStore
	users        *store.UserStore
	transactions *store.TransactionStore
	allocator    *store.AccountNumberAllocator
	events       *EventPublisher
}

func NewAccountService(
	accounts *store.AccountStore,
	users *store.UserStore,
	transactions *store.TransactionStore,
	allocator *store.AccountNumberAllocator,
	events *EventPublisher,
) *AccountService {
	return &AccountService{
		accounts:     accounts,
		users:        users,
		transactions: transactions,
		allocator:    allocator,
		events:       events,
	}
}

// CreateDebitAccount opens a zero-balance debit account for the caller.
// The first account a user opens becomes their main account.
func (s *AccountService) CreateDebitAccount(ctx context.Context, callerID int64) (*models.Account, error) {
	user, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if user.Blocked {
		return nil, models.ErrUserBlocked
	}

	number, err := s.allocator.Allocate(ctx)
	if err != nil {
		return nil, err
	}

	acc := &models.Account{
		AccountNumber: number,
		UserID:        callerID,
		Kind:          models.KindDebit,
		Balance:       decimal.Zero,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}

	if user.MainAccountNumber == nil {
		if err := s.users.SetMainAccount(ctx, callerID, number); err != nil {
			log.Printf("[ACCOUNT] Failed to set main account %s for user %d: %v", number, callerID, err)
		}
	}

	log.Printf("[ACCOUNT] Created debit account %s for user %d", number, callerID)
	return acc, nil
}

// Deposit credits an account. For credit accounts the amount pays down
// accrued interest first, then restores capacity.
func (s *AccountService) Deposit(ctx context.Context, number string, amount decimal.Decimal, comment string) (*models.Account, error) {
	if amount.Sign() <= 0 {
		return nil, models.ErrInvalidAmount
	}

	tx, err := s.accounts.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	acc, err := s.accounts.LockByNumberTx(tx, number)
	if err != nil {
		return nil, err
	}
	if acc.Blocked {
		return nil, models.ErrAccountBlocked
	}

	if err := acc.ApplyDeposit(amount); err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateTx(tx, acc); err != nil {
		return nil, err
	}

	record := &models.Transaction{
		ID:            uuid.New().String(),
		OperationType: models.OpDeposit,
		Amount:        amount,
		ToAccount:     &acc.AccountNumber,
		ToUserID:      &acc.UserID,
		Comment:       comment,
	}
	if err := s.transactions.InsertTx(tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, record)
	log.Printf("[LEDGER] Deposit of %s to account %s", amount, number)
	return acc, nil
}

// Withdraw debits an account owned by the caller. Debit accounts are capped
// at the balance, credit accounts at the available capacity.
func (s *AccountService) Withdraw(ctx context.Context, callerID int64, number string, amount decimal.Decimal, comment string) (*models.Account, error) {
	if amount.Sign() <= 0 {
		return nil, models.ErrInvalidAmount
	}

	tx, err := s.accounts.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	acc, err := s.accounts.LockByNumberTx(tx, number)
	if err != nil {
		return nil, err
	}
	if acc.UserID != callerID {
		return nil, models.ErrAccessDenied
	}
	if acc.Blocked {
		return nil, models.ErrAccountBlocked
	}

	if err := acc.ApplyWithdraw(amount); err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateTx(tx, acc); err != nil {
		return nil, err
	}

	record := &models.Transaction{
		ID:            uuid.New().String(),
		OperationType: models.OpWithdraw,
		Amount:        amount,
		FromAccount:   &acc.AccountNumber,
		FromUserID:    &acc.UserID,
		Comment:       comment,
	}
	if err := s.transactions.InsertTx(tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, record)
	log.Printf("[LEDGER] Withdrawal of %s from account %s", amount, number)
	return acc, nil
}

// DeleteAccount closes an account. Only the owner may close it, only when the
// balance (debit) or total debt (credit) is exactly zero, and never while it
// is the owner's designated main account. The row is locked FOR UPDATE so a
// deposit or transfer-in cannot land between the zero check and the delete.
func (s *AccountService) DeleteAccount(ctx context.Context, callerID int64, number string) error {
	user, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return err
	}
	if user.Blocked {
		return models.ErrUserBlocked
	}
	if user.MainAccountNumber != nil && *user.MainAccountNumber == number {
		return models.ErrInvalidOperation
	}

	tx, err := s.accounts.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	acc, err := s.accounts.LockByNumberTx(tx, number)
	if err != nil {
		return err
	}
	if acc.Blocked {
		return models.ErrAccountBlocked
	}
	if acc.UserID != callerID {
		return models.ErrAccessDenied
	}
	if !acc.Deletable() {
		return models.ErrInvalidOperation
	}

	if err := s.accounts.DeleteByNumberTx(tx, number); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Printf("[ACCOUNT] Deleted account %s for user %d", number, callerID)
	return nil
}

// GetAccount returns an account visible to the caller: owners see their own
// accounts, admins see any.
func (s *AccountService) GetAccount(ctx context.Context, callerID int64, number string) (*models.Account, error) {
	acc, err := s.accounts.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if acc.UserID != callerID {
		if err := s.requireAdmin(ctx, callerID); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// ListAccounts returns the caller's accounts, or every account for admins.
func (s *AccountService) ListAccounts(ctx context.Context, callerID int64) ([]models.Account, error) {
	user, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return s.accounts.ListAll(ctx)
	}
	return s.accounts.ListByUser(ctx, callerID)
}

// BlockAccount suspends all operations on an account. Admin only.
func (s *AccountService) BlockAccount(ctx context.Context, callerID int64, number string) (*models.Account, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	acc, err := s.accounts.SetBlocked(ctx, number, true)
	if err != nil {
		return nil, err
	}
	log.Printf("[ACCOUNT] Admin %d blocked account %s", callerID, number)
	return acc, nil
}

// UnblockAccount lifts a block. Admin only.
func (s *AccountService) UnblockAccount(ctx context.Context, callerID int64, number string) (*models.Account, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	acc, err := s.accounts.SetBlocked(ctx, number, false)
	if err != nil {
		return nil, err
	}
	log.Printf("[ACCOUNT] Admin %d unblocked account %s", callerID, number)
	return acc, nil
}

func (s *AccountService) requireAdmin(ctx context.Context, callerID int64) error {
	user, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return models.ErrAccessDenied
	}
	return nil
}
