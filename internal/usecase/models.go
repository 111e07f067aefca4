package usecase

import (
	"time"

	"github.com/DRSN-tech/catalog-categories/internal/domain"
	"github.com/google/uuid"
)

// CATEGORY USECASE

// CreateCategoryReq: запрос на создание категории.
// IsActive == nil означает активную категорию.
type CreateCategoryReq struct {
	Name        string
	Description *string
	IsActive    *bool
}

// UpdateCategoryReq: запрос на изменение категории.
// Description == nil оставляет описание без изменений.
type UpdateCategoryReq struct {
	ID          uuid.UUID
	Name        string
	Description *string
}

// ListCategoriesReq: параметры постраничной выборки категорий.
type ListCategoriesReq struct {
	Limit      int
	Offset     int
	OnlyActive bool
}

// ListCategoriesRes: страница категорий и общее их количество.
type ListCategoriesRes struct {
	Categories []CategoryInfo
	Total      int64
}

// CategoryInfo: DTO с информацией о категории для внешнего использования.
type CategoryInfo struct {
	ID          uuid.UUID
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// INFRASTUCTURE

// CategoryEvent: событие изменения категории, публикуемое через outbox.
type CategoryEvent struct {
	EventID    uuid.UUID
	Type       OutboxEventType
	OccurredAt time.Time
	Category   CategoryInfo
}

// WriteRawMessageReq: уже сериализованное сообщение для брокера.
type WriteRawMessageReq struct {
	Key       string
	EventType OutboxEventType
	Payload   []byte
}

// MAPPERS

func NewCreateCategoryReq(name string, description *string, isActive *bool) *CreateCategoryReq {
	return &CreateCategoryReq{
		Name:        name,
		Description: description,
		IsActive:    isActive,
	}
}

func NewUpdateCategoryReq(id uuid.UUID, name string, description *string) *UpdateCategoryReq {
	return &UpdateCategoryReq{
		ID:          id,
		Name:        name,
		Description: description,
	}
}

func NewListCategoriesReq(limit, offset int, onlyActive bool) *ListCategoriesReq {
	return &ListCategoriesReq{
		Limit:      limit,
		Offset:     offset,
		OnlyActive: onlyActive,
	}
}

func NewListCategoriesRes(categories []CategoryInfo, total int64) *ListCategoriesRes {
	return &ListCategoriesRes{
		Categories: categories,
		Total:      total,
	}
}

func NewCategoryInfo(c *domain.Category) CategoryInfo {
	return CategoryInfo{
		ID:          c.ID(),
		Name:        c.Name(),
		Description: c.Description(),
		IsActive:    c.IsActive(),
		CreatedAt:   c.CreatedAt(),
	}
}

func NewWriteRawMessageReq(key string, eventType OutboxEventType, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:       key,
		EventType: eventType,
		Payload:   payload,
	}
}
