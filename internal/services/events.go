package services

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/go-redis/redis/v8"

	"github.com/corebank/backend/internal/models"
)

// EventPublisher pushes transaction events to a Redis queue for downstream
// consumers (notifications, analytics). Publishing is fire-and-forget: a
// failed or missing queue never fails the ledger operation that produced
// the event.
type EventPublisher struct {
	redis *redis.Client
	queue string
}

func NewEventPublisher(rdb *redis.Client) *EventPublisher {
	queue := "transaction_events"
	if envQueue := os.Getenv("TRANSACTION_EVENT_QUEUE"); envQueue != "" {
		queue = envQueue
	}
	return &EventPublisher{redis: rdb, queue: queue}
}

func (p *EventPublisher) Publish(ctx context.Context, record *models.Transaction) {
	if p.redis == nil {
		return
	}

	event := models.TransactionEvent{
		TransactionID: record.ID,
		OperationType: record.OperationType,
		Amount:        record.Amount,
		FromAccount:   record.FromAccount,
		ToAccount:     record.ToAccount,
		CreatedAt:     record.CreatedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[EVENT] Failed to marshal event for transaction %s: %v", record.ID, err)
		return
	}

	if err := p.redis.RPush(ctx, p.queue, data).Err(); err != nil {
		log.Printf("[EVENT] Failed to publish event for transaction %s: %v", record.ID, err)
	}
}
