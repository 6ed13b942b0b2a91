package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType classifies a ledger record.
type OperationType string

const (
	OpDeposit  OperationType = "deposit"
	OpWithdraw OperationType = "withdraw"
	OpTransfer OperationType = "transfer"
	OpPayment  OperationType = "payment"
)

// Transaction is an append-only record of a completed operation.
// Records are never updated or deleted.
type Transaction struct {
	ID            string          `json:"transaction_id" db:"transaction_id"`
	OperationType OperationType   `json:"operation_type" db:"operation_type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	FromAccount   *string         `json:"from_account,omitempty" db:"from_account"`
	ToAccount     *string         `json:"to_account,omitempty" db:"to_account"`
	FromUserID    *int64          `json:"from_user_id,omitempty" db:"from_user_id"`
	ToUserID      *int64          `json:"to_user_id,omitempty" db:"to_user_id"`
	Comment       string          `json:"comment,omitempty" db:"comment"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// TransactionEvent is the fire-and-forget notification payload pushed to
// downstream consumers after a transaction record is committed.
type TransactionEvent struct {
	TransactionID string          `json:"transaction_id"`
	OperationType OperationType   `json:"operation_type"`
	Amount        decimal.Decimal `json:"amount"`
	FromAccount   *string         `json:"from_account,omitempty"`
	ToAccount     *string         `json:"to_account,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
