package models

import "errors"

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrCreditLimitExceeded = errors.New("exceeds available credit")
	ErrAccountBlocked      = errors.New("account is blocked")
	ErrUserBlocked         = errors.New("user is blocked")
	ErrAccessDenied        = errors.New("access denied")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrUnauthenticated     = errors.New("not authenticated")
)
