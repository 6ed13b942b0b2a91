package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind distinguishes the two account variants carried in one row.
type AccountKind string

const (
	KindDebit  AccountKind = "debit"
	KindCredit AccountKind = "credit"
)

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// Account is a bank account. Debit accounts use only the common fields.
// For credit accounts Balance is the remaining spendable capacity
// (credit limit minus consumed principal), never cash on hand.
type Account struct {
	ID            int64           `json:"id" db:"id"`
	AccountNumber string          `json:"account_number" db:"account_number"`
	UserID        int64           `json:"user_id" db:"user_id"`
	Kind          AccountKind     `json:"kind" db:"kind"`
	Balance       decimal.Decimal `json:"balance" db:"balance"`
	Blocked       bool            `json:"blocked" db:"blocked"`

	// Credit-only fields, zero-valued for debit accounts.
	CreditLimit        decimal.Decimal `json:"credit_limit,omitempty" db:"credit_limit"`
	InterestRate       decimal.Decimal `json:"interest_rate,omitempty" db:"interest_rate"` // annual, percent
	MinimumPaymentRate decimal.Decimal `json:"minimum_payment_rate,omitempty" db:"minimum_payment_rate"`
	GracePeriodDays    int             `json:"grace_period_days,omitempty" db:"grace_period_days"`
	Debt               decimal.Decimal `json:"debt,omitempty" db:"debt"`
	AccruedInterest    decimal.Decimal `json:"accrued_interest,omitempty" db:"accrued_interest"`
	TotalDebt          decimal.Decimal `json:"total_debt,omitempty" db:"total_debt"`
	PaymentDueDate     *time.Time      `json:"payment_due_date,omitempty" db:"payment_due_date"`

	Version   int       `json:"version" db:"version"` // for optimistic locking
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UpdateDebt recomputes debt and total debt from the canonical relation
// debt = max(0, creditLimit - balance). Call after every balance mutation.
func (a *Account) UpdateDebt() {
	if a.Kind != KindCredit {
		return
	}
	debt := a.CreditLimit.Sub(a.Balance)
	if debt.IsNegative() {
		debt = decimal.Zero
	}
	a.Debt = debt
	a.TotalDebt = debt.Add(a.AccruedInterest)
}

// AccrueInterest adds one month of interest on the outstanding debt.
// Accounts with no debt are left untouched.
func (a *Account) AccrueInterest() {
	if a.Kind != KindCredit || a.Debt.Sign() <= 0 {
		return
	}
	monthlyRate := a.InterestRate.DivRound(twelve, 10)
	interest := a.Debt.Mul(monthlyRate).DivRound(hundred, 2)
	a.AccruedInterest = a.AccruedInterest.Add(interest)
	a.TotalDebt = a.Debt.Add(a.AccruedInterest)
}

// ApplyDeposit mutates the balance per the account kind. For credit accounts
// the amount first pays down accrued interest, then restores capacity up to
// the credit limit; any excess rejects the whole payment.
func (a *Account) ApplyDeposit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	switch a.Kind {
	case KindDebit:
		a.Balance = a.Balance.Add(amount)
		return nil
	case KindCredit:
		toInterest := decimal.Min(a.AccruedInterest, amount)
		toPrincipal := amount.Sub(toInterest)
		maxIncrease := a.CreditLimit.Sub(a.Balance)
		if toPrincipal.GreaterThan(maxIncrease) {
			return fmt.Errorf("%w: payment exceeds required amount", ErrInvalidOperation)
		}

		a.AccruedInterest = a.AccruedInterest.Sub(toInterest)
		a.Balance = a.Balance.Add(toPrincipal)
		a.UpdateDebt()
		return nil
	default:
		return fmt.Errorf("%w: unsupported account kind %q", ErrInvalidOperation, a.Kind)
	}
}

// ApplyWithdraw mutates the balance per the account kind. Debit withdrawals
// are capped at the balance; credit withdrawals at the available capacity.
func (a *Account) ApplyWithdraw(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	switch a.Kind {
	case KindDebit:
		if amount.GreaterThan(a.Balance) {
			return ErrInsufficientFunds
		}
		a.Balance = a.Balance.Sub(amount)
		return nil
	case KindCredit:
		if amount.GreaterThan(a.Balance) {
			return ErrCreditLimitExceeded
		}
		a.Balance = a.Balance.Sub(amount)
		a.UpdateDebt()
		return nil
	default:
		return fmt.Errorf("%w: unsupported account kind %q", ErrInvalidOperation, a.Kind)
	}
}

// Deletable reports whether the account may be closed: zero balance for
// debit, fully repaid for credit.
func (a *Account) Deletable() bool {
	if a.Kind == KindCredit {
		return a.TotalDebt.IsZero()
	}
	return a.Balance.IsZero()
}

// FirstOfNextMonth is the initial payment due date for new credit accounts.
func FirstOfNextMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
}
