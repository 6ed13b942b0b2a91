package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	accountNumberDigits   = 10
	maxAllocationAttempts = 20
)

var accountNumberBound = new(big.Int).Exp(big.NewInt(10), big.NewInt(accountNumberDigits), nil)

type numberChecker interface {
	ExistsNumber(ctx context.Context, number string) (bool, error)
}

// AccountNumberAllocator hands out collision-free 10-digit account numbers.
type AccountNumberAllocator struct {
	accounts numberChecker
}

func NewAccountNumberAllocator(accounts numberChecker) *AccountNumberAllocator {
	return &AccountNumberAllocator{accounts: accounts}
}

// Allocate draws random numbers until one is unused. The keyspace holds 10^10
// numbers, so collisions are rare; the attempt cap guards against a broken
// uniqueness check looping forever.
func (a *AccountNumberAllocator) Allocate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, accountNumberBound)
		if err != nil {
			return "", fmt.Errorf("generating account number: %w", err)
		}
		number := fmt.Sprintf("%010d", n)

		exists, err := a.accounts.ExistsNumber(ctx, number)
		if err != nil {
			return "", fmt.Errorf("checking account number uniqueness: %w", err)
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique account number after %d attempts", maxAllocationAttempts)
}
