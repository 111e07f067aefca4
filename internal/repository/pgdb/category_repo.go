package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/catalog-categories/internal/domain"
	"github.com/DRSN-tech/catalog-categories/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-categories/internal/usecase"
	"github.com/DRSN-tech/catalog-categories/pkg/e"
	"github.com/DRSN-tech/catalog-categories/pkg/tr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const categoryColumns = `id, name, description, is_active, created_at, updated_at`

// CategoryRepo реализует репозиторий категорий поверх PostgreSQL.
type CategoryRepo struct {
	pool *pgxpool.Pool
	conv converter.CategoryConverter
}

func NewCategoryRepo(pool *pgxpool.Pool, conv converter.CategoryConverter) *CategoryRepo {
	return &CategoryRepo{pool: pool, conv: conv}
}

// Create сохраняет новую категорию. Требует транзакцию в контексте.
func (c *CategoryRepo) Create(ctx context.Context, category *domain.Category) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	model := c.conv.ToModel(category)
	query := `
		INSERT INTO categories (id, name, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`

	if _, err := tx.Exec(ctx, query,
		model.ID, model.Name, model.Description, model.IsActive, model.CreatedAt,
	); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// GetByID возвращает категорию по идентификатору.
func (c *CategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1;`
	return c.getOne(ctx, querierFromCtx(ctx, c.pool), query, id)
}

// GetByIDForUpdate читает категорию с блокировкой строки до конца транзакции.
func (c *CategoryRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1 FOR UPDATE;`
	return c.getOne(ctx, tx, query, id)
}

// List возвращает страницу категорий, упорядоченных по имени, и их общее количество.
func (c *CategoryRepo) List(ctx context.Context, req *usecase.ListCategoriesReq) ([]*domain.Category, int64, error) {
	q := querierFromCtx(ctx, c.pool)

	var total int64
	countQuery := `SELECT count(*) FROM categories WHERE ($1 = false OR is_active);`
	if err := q.QueryRow(ctx, countQuery, req.OnlyActive).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE ($1 = false OR is_active)
		ORDER BY name, id
		LIMIT $2 OFFSET $3;
	`

	rows, err := q.Query(ctx, query, req.OnlyActive, req.Limit, req.Offset)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0, req.Limit)
	for rows.Next() {
		var model converter.CategoryModel
		if err := scanCategory(rows, &model); err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}

		category, err := c.conv.ToEntity(&model)
		if err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return categories, total, nil
}

// Update сохраняет изменяемые поля категории. Требует транзакцию в контексте.
func (c *CategoryRepo) Update(ctx context.Context, category *domain.Category) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	model := c.conv.ToModel(category)
	query := `
		UPDATE categories
		SET name = $2, description = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1;
	`

	tag, err := tx.Exec(ctx, query, model.ID, model.Name, model.Description, model.IsActive)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrCategoryNotFound)
	}

	return nil
}

func (c *CategoryRepo) getOne(ctx context.Context, q querier, query string, id uuid.UUID) (*domain.Category, error) {
	var model converter.CategoryModel
	if err := scanCategory(q.QueryRow(ctx, query, id), &model); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrCategoryNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	category, err := c.conv.ToEntity(&model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return category, nil
}

func scanCategory(row pgx.Row, model *converter.CategoryModel) error {
	return row.Scan(
		&model.ID, &model.Name, &model.Description, &model.IsActive, &model.CreatedAt, &model.UpdatedAt,
	)
}
