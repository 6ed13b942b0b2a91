package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/corebank/backend/internal/models"
)

// TransactionStore is the append-only ledger. Records are inserted once,
// inside the same transaction as the balance mutation they describe, and are
// never updated or deleted.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const transactionColumns = `transaction_id, operation_type, amount,
	       from_account, to_account, from_user_id, to_user_id, comment, created_at`

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.OperationType, &t.Amount,
		&t.FromAccount, &t.ToAccount, &t.FromUserID, &t.ToUserID, &t.Comment, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// InsertTx appends a record within an open database transaction so the
// balance change and its ledger entry commit as one unit.
func (s *TransactionStore) InsertTx(tx *sql.Tx, t *models.Transaction) error {
	t.CreatedAt = time.Now()
	_, err := tx.Exec(`
		INSERT INTO transactions
		(transaction_id, operation_type, amount, from_account, to_account, from_user_id, to_user_id, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.OperationType, t.Amount,
		t.FromAccount, t.ToAccount, t.FromUserID, t.ToUserID, t.Comment, t.CreatedAt)
	return err
}

func (s *TransactionStore) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE transaction_id = $1`, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrTransactionNotFound
	}
	return t, err
}

// ListByAccount returns records where the account appears on either leg.
func (s *TransactionStore) ListByAccount(ctx context.Context, number string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE from_account = $1 OR to_account = $1
		ORDER BY created_at DESC`, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListByUser returns records touching any account the user owns, on either
// leg, including accounts that have since been deleted.
func (s *TransactionStore) ListByUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (s *TransactionStore) ListAll(ctx context.Context, limit int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}
