package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebank/backend/internal/models"
	"github.com/corebank/backend/internal/store"
)

func newAccountService(t *testing.T) (*AccountService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	accounts := store.NewAccountStore(db)
	users := store.NewUserStore(db)
	transactions := store.NewTransactionStore(db)
	allocator := store.NewAccountNumberAllocator(accounts)
	events := NewEventPublisher(nil)

	return NewAccountService(accounts, users, transactions, allocator, events), mock
}

func TestAccountService_Deposit(t *testing.T) {
	t.Run("debit deposit adds to balance", func(t *testing.T) {
		svc, mock := newAccountService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountPattern).
			WithArgs("1111111111").
			WillReturnRows(accountRows(debitAccount(1, "1111111111", 7, "100")))
		mock.ExpectExec(updateAccountPattern).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertTransactionPattern).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		acc, err := svc.Deposit(context.Background(), "1111111111", dec("50"), "salary")
		require.NoError(t, err)
		assert.True(t, acc.Balance.Equal(dec("150")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("credit deposit pays interest then principal", func(t *testing.T) {
		svc, mock := newAccountService(t)

		acc := creditAccount(2, "2222222222", 7, "1000", "500", "50")
		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountPattern).
			WithArgs("2222222222").
			WillReturnRows(accountRows(acc))
		mock.ExpectExec(updateAccountPattern).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertTransactionPattern).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		updated, err := svc.Deposit(context.Background(), "2222222222", dec("60"), "")
		require.NoError(t, err)
		assert.True(t, updated.AccruedInterest.IsZero())
		assert.True(t, updated.Balance.Equal(dec("510")))
		assert.True(t, updated.Debt.Equal(dec("490")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-positive amount before touching the database", func(t *testing.T) {
		svc, mock := newAccountService(t)

		_, err := svc.Deposit(context.Background(), "1111111111", decimal.Zero, "")
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("blocked account", func(t *testing.T) {
		svc, mock := newAccountService(t)

		blocked := debitAccount(1, "1111111111", 7, "100")
		blocked.Blocked = true
		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountPattern).
			WithArgs("1111111111").
			WillReturnRows(accountRows(blocked))
		mock.ExpectRollback()

		_, err := svc.Deposit(context.Background(), "1111111111", dec("50"), "")
		assert.ErrorIs(t, err, models.ErrAccountBlocked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("account not found", func(t *testing.T) {
		svc, mock := newAccountService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountPattern).
			WithArgs("0000000000").
			WillReturnRows(accountRows())
		mock.ExpectRollback()

		_, err := svc.Deposit(context.Background(), "0000000000", dec("50"), "")
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("credit overpayment rejected", func(t *testing.T) {
		svc, mock := newAccountService(t)

		acc := creditAccount(2, "2222222222", 7, "1000", "950", "0")
		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountPattern).
			WithArgs("2222222222").
			WillReturnRows(accountRows(acc))
		mock.ExpectRollback()

		_, err := svc.Deposit(context.Background(), "2222222222", dec("100"), "")
		assert.ErrorIs(t, err, models.ErrInvalidOperation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountService_Withdraw(t *testing.T) {
	t.Run("successful withdrawal", func(t *testing.T) {
		svc, mock := newAccountService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountPattern).
			WithArgs("1111111111").
			WillReturnRows(accountRows(debitAccount(1, "1111111111", 7, "1000")))
		mock.ExpectExec(updateAccountPattern).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertTransactionPattern).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		acc, err := svc.Withdraw(context.Background(), 7, "1111111111", dec("600"), "")
		require.NoError(t, err)
		assert.True(t, acc.Balance.Equal(dec("400")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient funds", func(t *testing.T) {
		svc, mock := newAccountService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountPattern).
			WithArgs("1111111111").
			WillReturnRows(accountRows(debitAccount(1, "1111111111", 7, "1000")))
		mock.ExpectRollback()

		_, err := svc.Withdraw(context.Background(), 7, "1111111111", dec("1000.01"), "")
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("caller must own the account", func(t *testing.T) {
		svc, mock := newAccountService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountPattern).
			WithArgs("1111111111").
			WillReturnRows(accountRows(debitAccount(1, "1111111111", 7, "1000")))
		mock.ExpectRollback()

		_, err := svc.Withdraw(context.Background(), 99, "1111111111", dec("10"), "")
		assert.ErrorIs(t, err, models.ErrAccessDenied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("credit withdrawal beyond capacity", func(t *testing.T) {
		svc, mock := newAccountService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountPattern).
			WithArgs("2222222222").
			WillReturnRows(accountRows(creditAccount(2, "2222222222", 7, "1000", "1000", "0")))
		mock.ExpectRollback()

		_, err := svc.Withdraw(context.Background(), 7, "2222222222", dec("2000"), "")
		assert.ErrorIs(t, err, models.ErrCreditLimitExceeded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent writer wins version race", func(t *testing.T) {
		// A second withdrawal racing the same account bumps the version
		// between our read and write; the update must fail, not double-spend.
		svc, mock := newAccountService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountPattern).
			WithArgs("1111111111").
			WillReturnRows(accountRows(debitAccount(1, "1111111111", 7, "1000")))
		mock.ExpectExec(updateAccountPattern).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := svc.Withdraw(context.Background(), 7, "1111111111", dec("600"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "optimistic lock failed")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountService_CreateDebitAccount(t *testing.T) {
	t.Run("first account becomes main", func(t *testing.T) {
		svc, mock := newAccountService(t)

		mock.ExpectQuery(selectUserPattern).
			WithArgs(int64(7)).
			WillReturnRows(userRows(&models.User{ID: 7, Username: "ivan", Role: models.RoleUser}))
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(`INSERT INTO accounts`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
		mock.ExpectExec(`UPDATE users SET main_account_number`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		acc, err := svc.CreateDebitAccount(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, models.KindDebit, acc.Kind)
		assert.True(t, acc.Balance.IsZero())
		assert.Len(t, acc.AccountNumber, 10)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("blocked user cannot open accounts", func(t *testing.T) {
		svc, mock := newAccountService(t)

		mock.ExpectQuery(selectUserPattern).
			WithArgs(int64(7)).
			WillReturnRows(userRows(&models.User{ID: 7, Username: "ivan", Role: models.RoleUser, Blocked: true}))

		_, err := svc.CreateDebitAccount(context.Background(), 7)
		assert.ErrorIs(t, err, models.ErrUserBlocked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountService_DeleteAccount(t *testing.T) {
	main := "1111111111"

	t.Run("cannot delete main account", func(t *testing.T) {
		svc, mock := newAccountService(t)

		mock.ExpectQuery(selectUserPattern).
			WithArgs(int64(7)).
			WillReturnRows(userRows(&models.User{ID: 7, Username: "ivan", Role: models.RoleUser, MainAccountNumber: &main}))

		err := svc.DeleteAccount(context.Background(), 7, main)
		assert.ErrorIs(t, err, models.ErrInvalidOperation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes empty secondary account under lock", func(t *testing.T) {
		svc, mock := newAccountService(t)

		mock.ExpectQuery(selectUserPattern).
			WithArgs(int64(7)).
			WillReturnRows(userRows(&models.User{ID: 7, Username: "ivan", Role: models.RoleUser, MainAccountNumber: &main}))
		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountPattern).
			WithArgs("3333333333").
			WillReturnRows(accountRows(debitAccount(3, "3333333333", 7, "0")))
		mock.ExpectExec(`DELETE FROM accounts WHERE account_number = \$1`).
			WithArgs("3333333333").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, svc.DeleteAccount(context.Background(), 7, "3333333333"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("balance credited before the close is seen under the lock", func(t *testing.T) {
		// A deposit committing just before the close must be visible to the
		// FOR UPDATE read and abort the deletion, not vanish with the row.
		svc, mock := newAccountService(t)

		mock.ExpectQuery(selectUserPattern).
			WithArgs(int64(7)).
			WillReturnRows(userRows(&models.User{ID: 7, Username: "ivan", Role: models.RoleUser, MainAccountNumber: &main}))
		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountPattern).
			WithArgs("3333333333").
			WillReturnRows(accountRows(debitAccount(3, "3333333333", 7, "25")))
		mock.ExpectRollback()

		err := svc.DeleteAccount(context.Background(), 7, "3333333333")
		assert.ErrorIs(t, err, models.ErrInvalidOperation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("only the owner may delete", func(t *testing.T) {
		svc, mock := newAccountService(t)

		mock.ExpectQuery(selectUserPattern).
			WithArgs(int64(9)).
			WillReturnRows(userRows(&models.User{ID: 9, Username: "petr", Role: models.RoleUser}))
		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountPattern).
			WithArgs("3333333333").
			WillReturnRows(accountRows(debitAccount(3, "3333333333", 7, "0")))
		mock.ExpectRollback()

		err := svc.DeleteAccount(context.Background(), 9, "3333333333")
		assert.ErrorIs(t, err, models.ErrAccessDenied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
