package http

import (
	"context"
	"net/http"

	"github.com/DRSN-tech/catalog-categories/internal/usecase"
	"github.com/DRSN-tech/catalog-categories/pkg/logger"
	"github.com/google/uuid"
)

type CategoryHandler struct {
	categoryUsecase usecase.CategoryUC
	logger          logger.Logger
}

func NewCategoryHandler(categoryUsecase usecase.CategoryUC, logger logger.Logger) *CategoryHandler {
	return &CategoryHandler{categoryUsecase: categoryUsecase, logger: logger}
}

// createCategory
//
//	@Summary		Создание категории
//	@Description	Создаёт категорию каталога. description обязателен, но может быть пустой строкой
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateCategoryRequest	true	"Категория"
//	@Success		201		{object}	CategoryResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/categories [post]
func (h *CategoryHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, err)
		return
	}

	info, err := h.categoryUsecase.CreateCategory(r.Context(), usecase.NewCreateCategoryReq(req.Name, req.Description, req.IsActive))
	if err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, NewCategoryResponse(info))
}

// getCategory
//
//	@Summary	Получение категории
//	@Tags		categories
//	@Produce	json
//	@Param		id	path		string	true	"ID категории (UUID)"
//	@Success	200	{object}	CategoryResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/categories/{id} [get]
func (h *CategoryHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseCategoryID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	info, err := h.categoryUsecase.GetCategory(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewCategoryResponse(info))
}

// listCategories
//
//	@Summary	Список категорий
//	@Tags		categories
//	@Produce	json
//	@Param		limit	query		int		false	"Размер страницы (1..100, по умолчанию 20)"
//	@Param		offset	query		int		false	"Смещение"
//	@Param		active	query		bool	false	"Только активные"
//	@Success	200		{object}	ListCategoriesResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/categories [get]
func (h *CategoryHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	req, err := parseListQuery(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	res, err := h.categoryUsecase.ListCategories(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	categories := make([]CategoryResponse, 0, len(res.Categories))
	for i := range res.Categories {
		categories = append(categories, NewCategoryResponse(&res.Categories[i]))
	}

	WriteSuccess(w, http.StatusOK, ListCategoriesResponse{
		Categories: categories,
		Total:      res.Total,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
}

// updateCategory
//
//	@Summary		Изменение категории
//	@Description	Меняет имя и, если передано, описание категории
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"ID категории (UUID)"
//	@Param			request	body		UpdateCategoryRequest	true	"Новые значения"
//	@Success		200		{object}	CategoryResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/categories/{id} [put]
func (h *CategoryHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseCategoryID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var req UpdateCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, err)
		return
	}

	info, err := h.categoryUsecase.UpdateCategory(r.Context(), usecase.NewUpdateCategoryReq(id, req.Name, req.Description))
	if err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewCategoryResponse(info))
}

// activateCategory
//
//	@Summary	Активация категории
//	@Tags		categories
//	@Produce	json
//	@Param		id	path		string	true	"ID категории (UUID)"
//	@Success	200	{object}	CategoryResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/categories/{id}/activate [post]
func (h *CategoryHandler) activateCategory(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.categoryUsecase.ActivateCategory)
}

// deactivateCategory
//
//	@Summary	Деактивация категории
//	@Tags		categories
//	@Produce	json
//	@Param		id	path		string	true	"ID категории (UUID)"
//	@Success	200	{object}	CategoryResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/categories/{id}/deactivate [post]
func (h *CategoryHandler) deactivateCategory(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.categoryUsecase.DeactivateCategory)
}

func (h *CategoryHandler) toggle(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (*usecase.CategoryInfo, error)) {
	id, err := parseCategoryID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	info, err := fn(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewCategoryResponse(info))
}

// fail логирует ошибку с уровнем по коду ответа и пишет ответ.
func (h *CategoryHandler) fail(w http.ResponseWriter, err error) {
	code, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		h.logger.Errorf(err, "%d request failed", code)
	} else {
		h.logger.Warnf("%d %s", code, err.Error())
	}

	WriteError(w, err)
}
