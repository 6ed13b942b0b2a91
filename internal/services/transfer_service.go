package services

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebank/backend/internal/models"
	"github.com/corebank/backend/internal/store"
)

// TransferService moves funds between two accounts, possibly of different
// kinds. Both legs, and the transfer record, commit as a single database
// transaction; the accounts are locked in ascending account-number order so
// two opposing transfers over the same pair cannot deadlock.
type TransferService struct {
	accounts     *store.AccountStore
	users        *store.UserStore
	transactions *store.TransactionStore
	events       *EventPublisher
}

func NewTransferService(
	accounts *store.AccountStore,
	users *store.UserStore,
	transactions *store.TransactionStore,
	events *EventPublisher,
) *TransferService {
	return &TransferService{
		accounts:     accounts,
		users:        users,
		transactions: transactions,
		events:       events,
	}
}

// Transfer withdraws amount from the caller's account and deposits it into
// the destination, each leg under its own account-kind rules. An empty
// fromNumber falls back to the caller's main account. Returns the transfer
// record and the updated source account.
func (s *TransferService) Transfer(ctx context.Context, callerID int64, fromNumber, toNumber string, amount decimal.Decimal, comment string) (*models.Transaction, *models.Account, error) {
	user, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return nil, nil, err
	}
	if user.Blocked {
		return nil, nil, models.ErrUserBlocked
	}

	if fromNumber == "" {
		if user.MainAccountNumber == nil {
			return nil, nil, models.ErrInvalidOperation
		}
		fromNumber = *user.MainAccountNumber
	}

	if amount.Sign() <= 0 {
		return nil, nil, models.ErrInvalidAmount
	}
	if fromNumber == toNumber {
		return nil, nil, models.ErrInvalidOperation
	}

	tx, err := s.accounts.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	// Lock both rows in ascending number order to prevent deadlocks between
	// opposing transfers.
	firstLock, secondLock := fromNumber, toNumber
	if fromNumber > toNumber {
		firstLock, secondLock = toNumber, fromNumber
	}

	first, err := s.accounts.LockByNumberTx(tx, firstLock)
	if err != nil {
		return nil, nil, err
	}
	second, err := s.accounts.LockByNumberTx(tx, secondLock)
	if err != nil {
		return nil, nil, err
	}

	from, to := first, second
	if firstLock != fromNumber {
		from, to = second, first
	}

	if from.UserID != callerID && !user.IsAdmin() {
		return nil, nil, models.ErrAccessDenied
	}
	if from.Blocked {
		return nil, nil, models.ErrAccountBlocked
	}

	// The withdraw-side check runs before any mutation is persisted, so a
	// failed validation never leaves one leg applied.
	if err := from.ApplyWithdraw(amount); err != nil {
		return nil, nil, err
	}
	if err := to.ApplyDeposit(amount); err != nil {
		return nil, nil, err
	}

	if err := s.accounts.UpdateTx(tx, from); err != nil {
		return nil, nil, err
	}
	if err := s.accounts.UpdateTx(tx, to); err != nil {
		return nil, nil, err
	}

	record := &models.Transaction{
		ID:            uuid.New().String(),
		OperationType: models.OpTransfer,
		Amount:        amount,
		FromAccount:   &from.AccountNumber,
		ToAccount:     &to.AccountNumber,
		FromUserID:    &from.UserID,
		ToUserID:      &to.UserID,
		Comment:       comment,
	}
	if err := s.transactions.InsertTx(tx, record); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	s.events.Publish(ctx, record)
	log.Printf("[TRANSFER] %s -> %s amount %s", from.AccountNumber, to.AccountNumber, amount)
	return record, from, nil
}
