package kafka

import (
	"fmt"
	"time"

	"github.com/DRSN-tech/catalog-categories/internal/usecase"
	"github.com/DRSN-tech/catalog-categories/pkg/e"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// EventEncoder сериализует события категорий в protobuf (google.protobuf.Struct).
type EventEncoder struct{}

func NewEventEncoder() *EventEncoder {
	return &EventEncoder{}
}

func (EventEncoder) Encode(event *usecase.CategoryEvent) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"event_id":    event.EventID.String(),
		"event_type":  string(event.Type),
		"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339Nano),
		"category": map[string]any{
			"id":          event.Category.ID.String(),
			"name":        event.Category.Name,
			"description": event.Category.Description,
			"is_active":   event.Category.IsActive,
			"created_at":  event.Category.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return proto.Marshal(s)
}

// DecodeEvent разбирает событие, записанное EventEncoder.
func DecodeEvent(data []byte) (*usecase.CategoryEvent, error) {
	const op = "kafka.DecodeEvent"

	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, e.Wrap(op, err)
	}

	category := s.GetFields()["category"].GetStructValue()
	if category == nil {
		return nil, e.Wrap(op, fmt.Errorf("missing category in payload"))
	}

	eventID, err := uuid.Parse(stringField(&s, "event_id"))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	occurredAt, err := time.Parse(time.RFC3339Nano, stringField(&s, "occurred_at"))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	categoryID, err := uuid.Parse(stringField(category, "id"))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, stringField(category, "created_at"))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &usecase.CategoryEvent{
		EventID:    eventID,
		Type:       usecase.OutboxEventType(stringField(&s, "event_type")),
		OccurredAt: occurredAt,
		Category: usecase.CategoryInfo{
			ID:          categoryID,
			Name:        stringField(category, "name"),
			Description: stringField(category, "description"),
			IsActive:    category.GetFields()["is_active"].GetBoolValue(),
			CreatedAt:   createdAt,
		},
	}, nil
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}
