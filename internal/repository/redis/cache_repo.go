package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DRSN-tech/catalog-categories/internal/cfg"
	"github.com/DRSN-tech/catalog-categories/internal/repository/redis/converter"
	"github.com/DRSN-tech/catalog-categories/internal/usecase"
	"github.com/DRSN-tech/catalog-categories/pkg/clients"
	"github.com/DRSN-tech/catalog-categories/pkg/e"
	"github.com/DRSN-tech/catalog-categories/pkg/logger"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.CategoryInfoConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.CategoryInfoConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetCategory возвращает закэшированную категорию или (nil, nil) при промахе.
// Повреждённые записи удаляются и считаются промахом.
func (c *CacheRepo) GetCategory(ctx context.Context, id uuid.UUID) (*usecase.CategoryInfo, error) {
	key := c.categoryKey(id)

	data, err := c.client.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil // cache miss
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.CategoryInfoRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		c.drop(ctx, key)
		return nil, nil
	}

	if model.ID != id {
		c.logger.Warnf("Cache ID mismatch: key_id: %s, model_id: %s", id, model.ID)
		c.drop(ctx, key)
		return nil, nil
	}

	return c.conv.ToUseCase(&model), nil
}

// SetCategory кэширует категорию с TTL из конфигурации.
func (c *CacheRepo) SetCategory(ctx context.Context, category usecase.CategoryInfo) error {
	data, err := json.Marshal(c.conv.ToRedisModel(&category))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, c.categoryKey(category.ID), data, c.cfg.CategoryTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// SetCategoryIfAbsent кэширует категорию через SET NX: существующая запись не перезаписывается.
func (c *CacheRepo) SetCategoryIfAbsent(ctx context.Context, category usecase.CategoryInfo) error {
	data, err := json.Marshal(c.conv.ToRedisModel(&category))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.SetNX(ctx, c.categoryKey(category.ID), data, c.cfg.CategoryTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteCategory удаляет категорию из кэша.
func (c *CacheRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Client.Del(ctx, c.categoryKey(id)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *CacheRepo) drop(ctx context.Context, key string) {
	if err := c.client.Client.Del(ctx, key).Err(); err != nil {
		c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}

// categoryKey возвращает Redis-ключ для одной категории
func (c *CacheRepo) categoryKey(id uuid.UUID) string {
	return fmt.Sprintf("category:%s", id)
}
