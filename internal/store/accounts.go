package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/corebank/backend/internal/models"
)

// AccountStore is the single source of truth for account state. Mutating
// callers lock rows FOR UPDATE inside a transaction and write back through
// UpdateTx, which asserts the version column.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `id, account_number, user_id, kind, balance, blocked,
	       credit_limit, interest_rate, minimum_payment_rate, grace_period_days,
	       debt, accrued_interest, total_debt, payment_due_date,
	       version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var acc models.Account
	var dueDate sql.NullTime
	err := row.Scan(
		&acc.ID, &acc.AccountNumber, &acc.UserID, &acc.Kind, &acc.Balance, &acc.Blocked,
		&acc.CreditLimit, &acc.InterestRate, &acc.MinimumPaymentRate, &acc.GracePeriodDays,
		&acc.Debt, &acc.AccruedInterest, &acc.TotalDebt, &dueDate,
		&acc.Version, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		acc.PaymentDueDate = &dueDate.Time
	}
	return &acc, nil
}

func (s *AccountStore) Begin(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

func (s *AccountStore) FindByNumber(ctx context.Context, number string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE account_number = $1`, number)

	acc, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrAccountNotFound
	}
	return acc, err
}

func (s *AccountStore) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1`, id)

	acc, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrAccountNotFound
	}
	return acc, err
}

func (s *AccountStore) ExistsNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM accounts WHERE account_number = $1)`, number).Scan(&exists)
	return exists, err
}

func (s *AccountStore) ListByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = $1
		ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func (s *AccountStore) ListAll(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// CreditAccountsPage returns credit accounts with id greater than afterID,
// up to limit rows, in id order. Keyset pagination keeps the accrual batch
// memory-bounded.
func (s *AccountStore) CreditAccountsPage(ctx context.Context, afterID int64, limit int) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE kind = $1 AND id > $2
		ORDER BY id
		LIMIT $3`, models.KindCredit, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func collectAccounts(rows *sql.Rows) ([]models.Account, error) {
	accounts := []models.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acc)
	}
	return accounts, rows.Err()
}

func (s *AccountStore) Create(ctx context.Context, acc *models.Account) error {
	now := time.Now()
	acc.CreatedAt = now
	acc.UpdatedAt = now
	acc.Version = 1

	var dueDate sql.NullTime
	if acc.PaymentDueDate != nil {
		dueDate = sql.NullTime{Time: *acc.PaymentDueDate, Valid: true}
	}

	return s.db.QueryRowContext(ctx, `
		INSERT INTO accounts
		(account_number, user_id, kind, balance, blocked,
		 credit_limit, interest_rate, minimum_payment_rate, grace_period_days,
		 debt, accrued_interest, total_debt, payment_due_date,
		 version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`,
		acc.AccountNumber, acc.UserID, acc.Kind, acc.Balance, acc.Blocked,
		acc.CreditLimit, acc.InterestRate, acc.MinimumPaymentRate, acc.GracePeriodDays,
		acc.Debt, acc.AccruedInterest, acc.TotalDebt, dueDate,
		acc.Version, acc.CreatedAt, acc.UpdatedAt,
	).Scan(&acc.ID)
}

// DeleteByNumberTx removes an account within an open transaction. Callers
// lock the row FOR UPDATE first so the closing preconditions hold until
// commit.
func (s *AccountStore) DeleteByNumberTx(tx *sql.Tx, number string) error {
	result, err := tx.Exec(`
		DELETE FROM accounts WHERE account_number = $1`, number)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

func (s *AccountStore) SetBlocked(ctx context.Context, number string, blocked bool) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE accounts
		SET blocked = $1, updated_at = $2
		WHERE account_number = $3
		RETURNING `+accountColumns,
		blocked, time.Now(), number)

	acc, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrAccountNotFound
	}
	return acc, err
}

// LockByNumberTx loads an account FOR UPDATE inside the given transaction.
// Callers that touch two accounts must lock them in ascending account-number
// order to avoid deadlocks.
func (s *AccountStore) LockByNumberTx(tx *sql.Tx, number string) (*models.Account, error) {
	row := tx.QueryRow(`
		SELECT `+accountColumns+`
		FROM accounts
		WHERE account_number = $1
		FOR UPDATE`, number)

	acc, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrAccountNotFound
	}
	return acc, err
}

// UpdateTx writes the mutable account state back, asserting the version the
// account was read at. Zero rows affected means a concurrent writer won:
// of two withdrawals racing on one account, the loser's assertion fails and
// its transaction rolls back, so the balance can never be spent twice.
func (s *AccountStore) UpdateTx(tx *sql.Tx, acc *models.Account) error {
	result, err := tx.Exec(`
		UPDATE accounts
		SET balance = $1, credit_limit = $2, interest_rate = $3,
		    debt = $4, accrued_interest = $5, total_debt = $6,
		    version = version + 1, updated_at = $7
		WHERE id = $8 AND version = $9`,
		acc.Balance, acc.CreditLimit, acc.InterestRate,
		acc.Debt, acc.AccruedInterest, acc.TotalDebt,
		time.Now(), acc.ID, acc.Version)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("optimistic lock failed for account %s", acc.AccountNumber)
	}

	acc.Version++
	return nil
}
