package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/catalog-categories/internal/domain"
	"github.com/google/uuid"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context, req *ListCategoriesReq) ([]*domain.Category, int64, error)
	Update(ctx context.Context, category *domain.Category) error
}

// CacheRepository возвращает (nil, nil) при промахе кэша.
type CacheRepository interface {
	GetCategory(ctx context.Context, id uuid.UUID) (*CategoryInfo, error)
	SetCategory(ctx context.Context, category CategoryInfo) error
	// SetCategoryIfAbsent не перезаписывает уже лежащее в кэше значение.
	SetCategoryIfAbsent(ctx context.Context, category CategoryInfo) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	// ReleaseToPending возвращает событие в очередь не раньше чем через delay.
	ReleaseToPending(ctx context.Context, id int64, delay time.Duration) error
	// MarkAsFailed снимает событие с отправки и сохраняет причину.
	MarkAsFailed(ctx context.Context, id int64, reason string) error
}
