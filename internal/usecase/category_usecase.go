package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/catalog-categories/internal/domain"
	"github.com/DRSN-tech/catalog-categories/pkg/clock"
	"github.com/DRSN-tech/catalog-categories/pkg/e"
	"github.com/DRSN-tech/catalog-categories/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// CategoryUseCase реализует бизнес-логику управления категориями каталога.
type CategoryUseCase struct {
	categoryRepo CategoryRepository
	outboxRepo   OutboxRepository
	txManager    TxManager
	cacheRepo    CacheRepository
	encoder      EventEncoder
	clock        clock.Clock
	logger       logger.Logger
}

func NewCategoryUC(
	categoryRepo CategoryRepository,
	outboxRepo OutboxRepository,
	txManager TxManager,
	cacheRepo CacheRepository,
	encoder EventEncoder,
	clock clock.Clock,
	logger logger.Logger,
) *CategoryUseCase {
	return &CategoryUseCase{
		categoryRepo: categoryRepo,
		outboxRepo:   outboxRepo,
		txManager:    txManager,
		cacheRepo:    cacheRepo,
		encoder:      encoder,
		clock:        clock,
		logger:       logger,
	}
}

// CreateCategory создаёт категорию и событие category.created в одной транзакции.
func (c *CategoryUseCase) CreateCategory(ctx context.Context, req *CreateCategoryReq) (*CategoryInfo, error) {
	const op = "CategoryUseCase.CreateCategory"

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	category, err := domain.NewCategoryWithStatus(req.Name, req.Description, isActive, domain.WithClock(c.clock))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	err = c.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := c.categoryRepo.Create(ctx, category); err != nil {
			return err
		}

		return c.publish(ctx, CategoryCreated, category)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	info := NewCategoryInfo(category)
	return &info, nil
}

// GetCategory возвращает категорию по идентификатору, сначала из кэша, затем из БД.
func (c *CategoryUseCase) GetCategory(ctx context.Context, id uuid.UUID) (*CategoryInfo, error) {
	const op = "CategoryUseCase.GetCategory"

	if id == uuid.Nil {
		return nil, e.Wrap(op, e.ErrInvalidCategoryID)
	}

	cached, err := c.cacheRepo.GetCategory(ctx, id)
	if err != nil {
		c.logger.Warnf("Failed to read category from cache: %v", e.Wrap(op, err))
	}
	if cached != nil {
		return cached, nil
	}

	category, err := c.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	info := NewCategoryInfo(category)

	// Фоновое добавление категории в кэш. Только если ключа нет:
	// значение, записанное mutate после коммита, новее прочитанного здесь.
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := c.cacheRepo.SetCategoryIfAbsent(bgCtx, info); err != nil {
			c.logger.Warnf("Failed to cache category in background: %v", e.Wrap(op, err))
		}
	}()

	return &info, nil
}

// ListCategories возвращает страницу категорий.
func (c *CategoryUseCase) ListCategories(ctx context.Context, req *ListCategoriesReq) (*ListCategoriesRes, error) {
	const op = "CategoryUseCase.ListCategories"

	if req.Limit == 0 {
		req.Limit = defaultListLimit
	}
	if req.Limit < 0 || req.Limit > maxListLimit || req.Offset < 0 {
		return nil, e.Wrap(op, e.ErrInvalidPagination)
	}

	categories, total, err := c.categoryRepo.List(ctx, req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	infos := make([]CategoryInfo, 0, len(categories))
	for _, category := range categories {
		infos = append(infos, NewCategoryInfo(category))
	}

	return NewListCategoriesRes(infos, total), nil
}

// UpdateCategory меняет имя и (опционально) описание категории.
func (c *CategoryUseCase) UpdateCategory(ctx context.Context, req *UpdateCategoryReq) (*CategoryInfo, error) {
	const op = "CategoryUseCase.UpdateCategory"

	info, err := c.mutate(ctx, req.ID, CategoryUpdated, func(category *domain.Category) error {
		return category.Update(req.Name, req.Description)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return info, nil
}

// ActivateCategory делает категорию активной.
func (c *CategoryUseCase) ActivateCategory(ctx context.Context, id uuid.UUID) (*CategoryInfo, error) {
	const op = "CategoryUseCase.ActivateCategory"

	info, err := c.mutate(ctx, id, CategoryActivated, func(category *domain.Category) error {
		category.Activate()
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return info, nil
}

// DeactivateCategory делает категорию неактивной.
func (c *CategoryUseCase) DeactivateCategory(ctx context.Context, id uuid.UUID) (*CategoryInfo, error) {
	const op = "CategoryUseCase.DeactivateCategory"

	info, err := c.mutate(ctx, id, CategoryDeactivated, func(category *domain.Category) error {
		category.Deactivate()
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return info, nil
}

// mutate загружает категорию с блокировкой строки, применяет fn, сохраняет результат
// и пишет событие в outbox. После коммита в кэш записывается новое значение.
func (c *CategoryUseCase) mutate(ctx context.Context, id uuid.UUID, eventType OutboxEventType, fn func(*domain.Category) error) (*CategoryInfo, error) {
	if id == uuid.Nil {
		return nil, e.ErrInvalidCategoryID
	}

	var category *domain.Category
	err := c.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		category, err = c.categoryRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := fn(category); err != nil {
			return err
		}

		if err := c.categoryRepo.Update(ctx, category); err != nil {
			return err
		}

		return c.publish(ctx, eventType, category)
	})
	if err != nil {
		return nil, err
	}

	info := NewCategoryInfo(category)

	if err := c.cacheRepo.SetCategory(ctx, info); err != nil {
		c.logger.Warnf("Failed to refresh category in cache: %v", err)
		// Старое значение не должно пережить неудачную запись
		if err := c.cacheRepo.DeleteCategory(ctx, id); err != nil {
			c.logger.Warnf("Failed to delete category from cache: %v", err)
		}
	}

	return &info, nil
}

// publish сериализует событие и сохраняет его в outbox в текущей транзакции.
func (c *CategoryUseCase) publish(ctx context.Context, eventType OutboxEventType, category *domain.Category) error {
	event := &CategoryEvent{
		EventID:    uuid.New(),
		Type:       eventType,
		OccurredAt: c.clock.Now(),
		Category:   NewCategoryInfo(category),
	}

	payload, err := c.encoder.Encode(event)
	if err != nil {
		return err
	}

	_, err = c.outboxRepo.Create(ctx, NewOutboxEvent(event.EventID, eventType, category.ID(), payload, event.OccurredAt))
	return err
}
