package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebank/backend/internal/models"
)

func TestEventPublisher_Publish(t *testing.T) {
	from := "1111111111"
	to := "2222222222"
	record := &models.Transaction{
		ID:            "f8e7d6c5-0000-0000-0000-000000000001",
		OperationType: models.OpTransfer,
		Amount:        dec("300"),
		FromAccount:   &from,
		ToAccount:     &to,
		Comment:       "rent",
		CreatedAt:     time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC),
	}

	t.Run("pushes the event onto the queue", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		publisher := NewEventPublisher(rdb)

		expected, err := json.Marshal(models.TransactionEvent{
			TransactionID: record.ID,
			OperationType: record.OperationType,
			Amount:        record.Amount,
			FromAccount:   record.FromAccount,
			ToAccount:     record.ToAccount,
			CreatedAt:     record.CreatedAt,
		})
		require.NoError(t, err)

		mock.ExpectRPush("transaction_events", expected).SetVal(1)

		publisher.Publish(context.Background(), record)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("publishing never fails the operation", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		publisher := NewEventPublisher(rdb)

		expected, err := json.Marshal(models.TransactionEvent{
			TransactionID: record.ID,
			OperationType: record.OperationType,
			Amount:        record.Amount,
			FromAccount:   record.FromAccount,
			ToAccount:     record.ToAccount,
			CreatedAt:     record.CreatedAt,
		})
		require.NoError(t, err)

		mock.ExpectRPush("transaction_events", expected).SetErr(context.DeadlineExceeded)

		// a broken queue is logged, not propagated
		assert.NotPanics(t, func() { publisher.Publish(context.Background(), record) })
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil client is a no-op", func(t *testing.T) {
		publisher := NewEventPublisher(nil)
		assert.NotPanics(t, func() { publisher.Publish(context.Background(), record) })
	})
}
