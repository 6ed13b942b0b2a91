package services

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/backend/internal/models"
	"github.com/corebank/backend/internal/store"
)

const accrualPageSize = 500

var defaultMinimumPaymentRate = decimal.NewFromInt(5)

// CreditService owns the credit-account bookkeeping: account creation,
// limit and rate administration, and the monthly interest accrual batch.
type CreditService struct {
	accounts  *store.AccountStore
	users     *store.UserStore
	allocator *store.AccountNumberAllocator
	pageSize  int
	now       func() time.Time
}

func NewCreditService(accounts *store.AccountStore, users *store.UserStore, allocator *store.AccountNumberAllocator) *CreditService {
	return &CreditService{
		accounts:  accounts,
		users:     users,
		allocator: allocator,
		pageSize:  accrualPageSize,
		now:       time.Now,
	}
}

// CreateCreditAccount opens a credit account with the full limit available.
// Admins may open accounts for other users; everyone else only for
// themselves.
func (s *CreditService) CreateCreditAccount(ctx context.Context, callerID, ownerID int64, creditLimit, interestRate decimal.Decimal, gracePeriodDays int) (*models.Account, error) {
	caller, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.Blocked {
		return nil, models.ErrUserBlocked
	}
	if ownerID != callerID && !caller.IsAdmin() {
		return nil, models.ErrAccessDenied
	}
	if ownerID != callerID {
		if _, err := s.users.FindByID(ctx, ownerID); err != nil {
			return nil, err
		}
	}

	if creditLimit.Sign() <= 0 {
		return nil, models.ErrInvalidOperation
	}
	if interestRate.IsNegative() {
		return nil, models.ErrInvalidOperation
	}
	if gracePeriodDays < 0 {
		return nil, models.ErrInvalidOperation
	}

	number, err := s.allocator.Allocate(ctx)
	if err != nil {
		return nil, err
	}

	dueDate := models.FirstOfNextMonth(s.now())
	acc := &models.Account{
		AccountNumber:      number,
		UserID:             ownerID,
		Kind:               models.KindCredit,
		Balance:            creditLimit,
		CreditLimit:        creditLimit,
		InterestRate:       interestRate,
		MinimumPaymentRate: defaultMinimumPaymentRate,
		GracePeriodDays:    gracePeriodDays,
		Debt:               decimal.Zero,
		AccruedInterest:    decimal.Zero,
		TotalDebt:          decimal.Zero,
		PaymentDueDate:     &dueDate,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}

	log.Printf("[CREDIT] Created credit account %s for user %d, limit %s, rate %s%%",
		number, ownerID, creditLimit, interestRate)
	return acc, nil
}

// AccrueMonthlyInterest runs the monthly accrual over every credit account,
// one page at a time, one database transaction per account. A failure on a
// single account is logged and the batch moves on; only a page fetch failure
// stops the run. Returns the number of accounts that had interest charged.
func (s *CreditService) AccrueMonthlyInterest(ctx context.Context) (int, error) {
	log.Printf("[ACCRUAL] Monthly interest accrual started")
	var afterID int64
	accrued := 0
	failed := 0

	for {
		page, err := s.accounts.CreditAccountsPage(ctx, afterID, s.pageSize)
		if err != nil {
			log.Printf("[ACCRUAL] Failed to fetch credit accounts page after id %d: %v", afterID, err)
			return accrued, err
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			afterID = page[i].ID
			charged, err := s.accrueOne(ctx, page[i].AccountNumber)
			if err != nil {
				failed++
				log.Printf("[ACCRUAL] Skipping account %s: %v", page[i].AccountNumber, err)
				continue
			}
			if charged {
				accrued++
			}
		}

		if len(page) < s.pageSize {
			break
		}
	}

	log.Printf("[ACCRUAL] Monthly interest accrual finished: %d charged, %d failed", accrued, failed)
	return accrued, nil
}

// accrueOne charges one month of interest on a single account under the same
// locking discipline as interactive operations. Reports whether interest was
// actually charged.
func (s *CreditService) accrueOne(ctx context.Context, number string) (bool, error) {
	tx, err := s.accounts.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	acc, err := s.accounts.LockByNumberTx(tx, number)
	if err != nil {
		return false, err
	}

	acc.UpdateDebt()
	if acc.Debt.Sign() <= 0 {
		return false, nil
	}

	acc.AccrueInterest()
	if err := s.accounts.UpdateTx(tx, acc); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// IncreaseCreditLimit raises the limit and grants the delta as fresh
// spendable capacity. Admin only.
func (s *CreditService) IncreaseCreditLimit(ctx context.Context, callerID int64, number string, newLimit decimal.Decimal) (*models.Account, error) {
	if err := s.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	tx, err := s.accounts.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	acc, err := s.lockCreditAccount(tx, number)
	if err != nil {
		return nil, err
	}
	if newLimit.LessThanOrEqual(acc.CreditLimit) {
		return nil, models.ErrInvalidOperation
	}

	delta := newLimit.Sub(acc.CreditLimit)
	acc.CreditLimit = newLimit
	acc.Balance = acc.Balance.Add(delta)
	acc.UpdateDebt()

	if err := s.accounts.UpdateTx(tx, acc); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[CREDIT] Raised limit on account %s to %s", number, newLimit)
	return acc, nil
}

// DecreaseCreditLimit lowers the limit. The new limit may not undercut the
// capacity currently available to the holder. Admin only.
func (s *CreditService) DecreaseCreditLimit(ctx context.Context, callerID int64, number string, newLimit decimal.Decimal) (*models.Account, error) {
	if err := s.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if newLimit.Sign() <= 0 {
		return nil, models.ErrInvalidOperation
	}

	tx, err := s.accounts.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	acc, err := s.lockCreditAccount(tx, number)
	if err != nil {
		return nil, err
	}
	if newLimit.LessThan(acc.Balance) {
		return nil, models.ErrInvalidOperation
	}

	acc.CreditLimit = newLimit
	acc.UpdateDebt()

	if err := s.accounts.UpdateTx(tx, acc); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[CREDIT] Lowered limit on account %s to %s", number, newLimit)
	return acc, nil
}

// SetInterestRate replaces the annual interest rate. Admin only.
func (s *CreditService) SetInterestRate(ctx context.Context, callerID int64, number string, newRate decimal.Decimal) (*models.Account, error) {
	if err := s.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if newRate.IsNegative() {
		return nil, models.ErrInvalidOperation
	}

	tx, err := s.accounts.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	acc, err := s.lockCreditAccount(tx, number)
	if err != nil {
		return nil, err
	}

	acc.InterestRate = newRate
	if err := s.accounts.UpdateTx(tx, acc); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[CREDIT] Set interest rate on account %s to %s%%", number, newRate)
	return acc, nil
}

func (s *CreditService) lockCreditAccount(tx *sql.Tx, number string) (*models.Account, error) {
	acc, err := s.accounts.LockByNumberTx(tx, number)
	if err != nil {
		return nil, err
	}
	if acc.Kind != models.KindCredit {
		return nil, models.ErrAccountNotFound
	}
	return acc, nil
}

// RequireAdmin verifies the caller holds the admin role.
func (s *CreditService) RequireAdmin(ctx context.Context, callerID int64) error {
	user, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return models.ErrAccessDenied
	}
	return nil
}
