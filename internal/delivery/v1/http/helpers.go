package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/DRSN-tech/catalog-categories/internal/usecase"
	"github.com/DRSN-tech/catalog-categories/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodySize = 1 << 20

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CreateCategoryRequest: тело запроса на создание категории.
type CreateCategoryRequest struct {
	Name        string  `json:"name" example:"Books"`
	Description *string `json:"description" example:"Paper and electronic books"`
	IsActive    *bool   `json:"is_active,omitempty" example:"true"`
}

// UpdateCategoryRequest: тело запроса на изменение категории.
// Отсутствующее description оставляет описание без изменений.
type UpdateCategoryRequest struct {
	Name        string  `json:"name" example:"E-books"`
	Description *string `json:"description,omitempty"`
}

type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListCategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
	Total      int64              `json:"total"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func NewCategoryResponse(info *usecase.CategoryInfo) CategoryResponse {
	return CategoryResponse{
		ID:          info.ID,
		Name:        info.Name,
		Description: info.Description,
		IsActive:    info.IsActive,
		CreatedAt:   info.CreatedAt,
	}
}

func ToHTTPResponse(err error) (int, string) {
	if msg, ok := e.ValidationMessage(err); ok {
		return http.StatusBadRequest, msg
	}

	switch {
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrInvalidCategoryID):
		return http.StatusBadRequest, e.ErrInvalidCategoryID.Error()
	case errors.Is(err, e.ErrInvalidPagination):
		return http.StatusBadRequest, e.ErrInvalidPagination.Error()
	case errors.Is(err, e.ErrCategoryNotFound):
		return http.StatusNotFound, e.ErrCategoryNotFound.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	WriteSuccess(w, code, NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса, отклоняя неизвестные поля и лишние данные.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}

	if dec.More() {
		return e.Wrap("unexpected data after JSON body", e.ErrStatusBadRequest)
	}

	return nil
}

func parseCategoryID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, e.ErrInvalidCategoryID
	}

	return id, nil
}

// parseListQuery разбирает limit, offset и active из query string.
func parseListQuery(r *http.Request) (*usecase.ListCategoriesReq, error) {
	q := r.URL.Query()

	limit, err := parseIntQuery(q.Get("limit"))
	if err != nil {
		return nil, e.ErrInvalidPagination
	}

	offset, err := parseIntQuery(q.Get("offset"))
	if err != nil {
		return nil, e.ErrInvalidPagination
	}

	onlyActive := false
	if v := q.Get("active"); v != "" {
		onlyActive, err = strconv.ParseBool(v)
		if err != nil {
			return nil, e.Wrap("active", e.ErrStatusBadRequest)
		}
	}

	return usecase.NewListCategoriesReq(limit, offset, onlyActive), nil
}

func parseIntQuery(v string) (int, error) {
	if v == "" {
		return 0, nil
	}

	return strconv.Atoi(v)
}
