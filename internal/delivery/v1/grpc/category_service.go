package grpc

import (
	"context"

	"github.com/DRSN-tech/catalog-categories/internal/usecase"
	"github.com/DRSN-tech/catalog-categories/pkg/e"
	"github.com/DRSN-tech/catalog-categories/pkg/logger"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const categoryServiceName = "catalog.v1.CategoryService"

// CategoryServiceServer описывает сервис catalog.v1.CategoryService.
// Запросы и ответы передаются как google.protobuf.Struct.
type CategoryServiceServer interface {
	GetCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCategories(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ActivateCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeactivateCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var CategoryServiceDesc = grpc.ServiceDesc{
	ServiceName: categoryServiceName,
	HandlerType: (*CategoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCategory", Handler: unaryHandler("GetCategory", CategoryServiceServer.GetCategory)},
		{MethodName: "CreateCategory", Handler: unaryHandler("CreateCategory", CategoryServiceServer.CreateCategory)},
		{MethodName: "ListCategories", Handler: unaryHandler("ListCategories", CategoryServiceServer.ListCategories)},
		{MethodName: "UpdateCategory", Handler: unaryHandler("UpdateCategory", CategoryServiceServer.UpdateCategory)},
		{MethodName: "ActivateCategory", Handler: unaryHandler("ActivateCategory", CategoryServiceServer.ActivateCategory)},
		{MethodName: "DeactivateCategory", Handler: unaryHandler("DeactivateCategory", CategoryServiceServer.DeactivateCategory)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/category.proto",
}

type structMethod func(CategoryServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call structMethod) grpc.MethodHandler {
	fullMethod := "/" + categoryServiceName + "/" + method

	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CategoryServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CategoryServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type CategoryService struct {
	catUC  usecase.CategoryUC
	logger logger.Logger
}

func NewCategoryService(catUC usecase.CategoryUC, logger logger.Logger) *CategoryService {
	return &CategoryService{catUC: catUC, logger: logger}
}

func (g *CategoryService) GetCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.GetCategory"

	id, err := categoryID(req)
	if err != nil {
		return nil, g.fail(op, err)
	}

	info, err := g.catUC.GetCategory(ctx, id)
	if err != nil {
		return nil, g.fail(op, err)
	}

	return g.respond(op, info)
}

func (g *CategoryService) CreateCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.CreateCategory"

	name, err := requiredString(req, "name")
	if err != nil {
		return nil, g.fail(op, err)
	}

	description, err := optionalString(req, "description")
	if err != nil {
		return nil, g.fail(op, err)
	}

	isActive, err := optionalBool(req, "is_active")
	if err != nil {
		return nil, g.fail(op, err)
	}

	info, err := g.catUC.CreateCategory(ctx, usecase.NewCreateCategoryReq(name, description, isActive))
	if err != nil {
		return nil, g.fail(op, err)
	}

	return g.respond(op, info)
}

func (g *CategoryService) ListCategories(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.ListCategories"

	limit, err := intField(req, "limit")
	if err != nil {
		return nil, g.fail(op, err)
	}

	offset, err := intField(req, "offset")
	if err != nil {
		return nil, g.fail(op, err)
	}

	onlyActive, err := optionalBool(req, "only_active")
	if err != nil {
		return nil, g.fail(op, err)
	}

	res, err := g.catUC.ListCategories(ctx, usecase.NewListCategoriesReq(limit, offset, onlyActive != nil && *onlyActive))
	if err != nil {
		return nil, g.fail(op, err)
	}

	out, err := toGRPCCategoryList(res)
	if err != nil {
		return nil, g.fail(op, err)
	}

	return out, nil
}

func (g *CategoryService) UpdateCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.UpdateCategory"

	id, err := categoryID(req)
	if err != nil {
		return nil, g.fail(op, err)
	}

	name, err := requiredString(req, "name")
	if err != nil {
		return nil, g.fail(op, err)
	}

	description, err := optionalString(req, "description")
	if err != nil {
		return nil, g.fail(op, err)
	}

	info, err := g.catUC.UpdateCategory(ctx, usecase.NewUpdateCategoryReq(id, name, description))
	if err != nil {
		return nil, g.fail(op, err)
	}

	return g.respond(op, info)
}

func (g *CategoryService) ActivateCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return g.toggle(ctx, "grpc.ActivateCategory", req, g.catUC.ActivateCategory)
}

func (g *CategoryService) DeactivateCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return g.toggle(ctx, "grpc.DeactivateCategory", req, g.catUC.DeactivateCategory)
}

func (g *CategoryService) toggle(
	ctx context.Context,
	op string,
	req *structpb.Struct,
	fn func(context.Context, uuid.UUID) (*usecase.CategoryInfo, error),
) (*structpb.Struct, error) {
	id, err := categoryID(req)
	if err != nil {
		return nil, g.fail(op, err)
	}

	info, err := fn(ctx, id)
	if err != nil {
		return nil, g.fail(op, err)
	}

	return g.respond(op, info)
}

func (g *CategoryService) respond(op string, info *usecase.CategoryInfo) (*structpb.Struct, error) {
	out, err := toGRPCCategoryStruct(info)
	if err != nil {
		return nil, g.fail(op, err)
	}

	return out, nil
}

// fail логирует ошибку с уровнем по gRPC-коду и возвращает статус.
func (g *CategoryService) fail(op string, err error) error {
	st := GRPCErrorResponse(err)
	if status.Code(st) == codes.Internal {
		g.logger.Errorf(e.Wrap(op, err), "%s failed", op)
	} else {
		g.logger.Warnf("%s: %v", op, e.Wrap(op, err))
	}
	return st
}
