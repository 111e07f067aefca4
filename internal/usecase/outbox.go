package usecase

import (
	"time"

	"github.com/google/uuid"
)

// OutboxStatus: состояние события в таблице outbox_events.
type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
	// Failed: событие больше не отправляется, нужен ручной разбор.
	Failed OutboxStatus = "failed"
)

// OutboxEventType: тип события изменения категории.
type OutboxEventType string

const (
	CategoryCreated     OutboxEventType = "category.created"
	CategoryUpdated     OutboxEventType = "category.updated"
	CategoryActivated   OutboxEventType = "category.activated"
	CategoryDeactivated OutboxEventType = "category.deactivated"
)

// OutboxEvent: запись transactional outbox.
type OutboxEvent struct {
	ID          int64
	EventID     uuid.UUID
	EventType   OutboxEventType
	CategoryID  uuid.UUID
	Payload     []byte
	Status      OutboxStatus
	Attempts    int
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func NewOutboxEvent(eventID uuid.UUID, eventType OutboxEventType, categoryID uuid.UUID, payload []byte, createdAt time.Time) *OutboxEvent {
	return &OutboxEvent{
		EventID:    eventID,
		EventType:  eventType,
		CategoryID: categoryID,
		Payload:    payload,
		Status:     Pending,
		CreatedAt:  createdAt,
	}
}
