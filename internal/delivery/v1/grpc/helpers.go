package grpc

import (
	"errors"
	"time"

	"github.com/DRSN-tech/catalog-categories/internal/usecase"
	"github.com/DRSN-tech/catalog-categories/pkg/e"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func GRPCErrorResponse(err error) error {
	if msg, ok := e.ValidationMessage(err); ok {
		return status.Error(codes.InvalidArgument, msg)
	}

	switch {
	case errors.Is(err, e.ErrStatusBadRequest):
		return status.Error(codes.InvalidArgument, e.ErrStatusBadRequest.Error())
	case errors.Is(err, e.ErrInvalidCategoryID):
		return status.Error(codes.InvalidArgument, e.ErrInvalidCategoryID.Error())
	case errors.Is(err, e.ErrInvalidPagination):
		return status.Error(codes.InvalidArgument, e.ErrInvalidPagination.Error())
	case errors.Is(err, e.ErrCategoryNotFound):
		return status.Error(codes.NotFound, e.ErrCategoryNotFound.Error())
	default:
		return status.Error(codes.Internal, e.ErrInternalServerError.Error())
	}
}

func toGRPCCategory(info *usecase.CategoryInfo) map[string]any {
	return map[string]any{
		"id":          info.ID.String(),
		"name":        info.Name,
		"description": info.Description,
		"is_active":   info.IsActive,
		"created_at":  info.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toGRPCCategoryStruct(info *usecase.CategoryInfo) (*structpb.Struct, error) {
	return structpb.NewStruct(toGRPCCategory(info))
}

func toGRPCCategoryList(res *usecase.ListCategoriesRes) (*structpb.Struct, error) {
	categories := make([]any, len(res.Categories))
	for i := range res.Categories {
		categories[i] = toGRPCCategory(&res.Categories[i])
	}

	return structpb.NewStruct(map[string]any{
		"categories": categories,
		"total":      res.Total,
	})
}

// categoryID достаёт поле id; пустое или некорректное значение даёт ErrInvalidCategoryID.
func categoryID(req *structpb.Struct) (uuid.UUID, error) {
	id, err := uuid.Parse(req.GetFields()["id"].GetStringValue())
	if err != nil || id == uuid.Nil {
		return uuid.Nil, e.ErrInvalidCategoryID
	}

	return id, nil
}

// optionalString возвращает nil, если поле отсутствует или равно null.
func optionalString(req *structpb.Struct, key string) (*string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StringValue:
		return &kind.StringValue, nil
	default:
		return nil, e.Wrap(key+" must be a string", e.ErrStatusBadRequest)
	}
}

func requiredString(req *structpb.Struct, key string) (string, error) {
	s, err := optionalString(req, key)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}

	return *s, nil
}

func optionalBool(req *structpb.Struct, key string) (*bool, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_BoolValue:
		return &kind.BoolValue, nil
	default:
		return nil, e.Wrap(key+" must be a bool", e.ErrStatusBadRequest)
	}
}

// intField читает целое из number-поля; дробные значения отклоняются.
func intField(req *structpb.Struct, key string) (int, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, nil
	}

	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber || n.NumberValue != float64(int(n.NumberValue)) {
		return 0, e.ErrInvalidPagination
	}

	return int(n.NumberValue), nil
}
