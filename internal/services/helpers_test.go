package services

import (
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/corebank/backend/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var accountRowColumns = []string{
	"id", "account_number", "user_id", "kind", "balance", "blocked",
	"credit_limit", "interest_rate", "minimum_payment_rate", "grace_period_days",
	"debt", "accrued_interest", "total_debt", "payment_due_date",
	"version", "created_at", "updated_at",
}

var userRowColumns = []string{
	"id", "username", "role", "blocked", "main_account_number", "created_at", "last_login",
}

func accountRows(accs ...*models.Account) *sqlmock.Rows {
	rows := sqlmock.NewRows(accountRowColumns)
	for _, acc := range accs {
		var due any
		if acc.PaymentDueDate != nil {
			due = *acc.PaymentDueDate
		}
		rows.AddRow(
			acc.ID, acc.AccountNumber, acc.UserID, string(acc.Kind), acc.Balance.String(), acc.Blocked,
			acc.CreditLimit.String(), acc.InterestRate.String(), acc.MinimumPaymentRate.String(), acc.GracePeriodDays,
			acc.Debt.String(), acc.AccruedInterest.String(), acc.TotalDebt.String(), due,
			acc.Version, time.Now(), time.Now(),
		)
	}
	return rows
}

func userRows(users ...*models.User) *sqlmock.Rows {
	rows := sqlmock.NewRows(userRowColumns)
	for _, u := range users {
		var main any
		if u.MainAccountNumber != nil {
			main = *u.MainAccountNumber
		}
		rows.AddRow(u.ID, u.Username, u.Role, u.Blocked, main, time.Now(), nil)
	}
	return rows
}

func debitAccount(id int64, number string, userID int64, balance string) *models.Account {
	return &models.Account{
		ID:            id,
		AccountNumber: number,
		UserID:        userID,
		Kind:          models.KindDebit,
		Balance:       dec(balance),
		Version:       1,
	}
}

func creditAccount(id int64, number string, userID int64, limit, balance, accrued string) *models.Account {
	acc := &models.Account{
		ID:            id,
		AccountNumber: number,
		UserID:        userID,
		Kind:          models.KindCredit,
		Balance:       dec(balance),
		CreditLimit:   dec(limit),
		InterestRate:  dec("24"),

		MinimumPaymentRate: dec("5"),
		AccruedInterest:    dec(accrued),
		Version:            1,
	}
	acc.UpdateDebt()
	return acc
}

const (
	selectUserPattern        = `SELECT id, username, role, blocked, main_account_number, created_at, last_login FROM users WHERE id = \$1`
	lockAccountPattern       = `SELECT (.+) FROM accounts WHERE account_number = \$1 FOR UPDATE`
	updateAccountPattern     = `UPDATE accounts SET balance = (.+) WHERE id = (.+) AND version = (.+)`
	insertTransactionPattern = `INSERT INTO transactions`
)
