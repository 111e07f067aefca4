package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-categories/internal/cfg"
	"github.com/DRSN-tech/catalog-categories/internal/usecase"
	"github.com/DRSN-tech/catalog-categories/pkg/e"
	"github.com/DRSN-tech/catalog-categories/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeCategoryUC struct {
	info      *usecase.CategoryInfo
	err       error
	createReq *usecase.CreateCategoryReq
	updateReq *usecase.UpdateCategoryReq
	listReq   *usecase.ListCategoriesReq
	lastID    uuid.UUID
}

func (f *fakeCategoryUC) CreateCategory(_ context.Context, req *usecase.CreateCategoryReq) (*usecase.CategoryInfo, error) {
	f.createReq = req
	return f.info, f.err
}

func (f *fakeCategoryUC) GetCategory(_ context.Context, id uuid.UUID) (*usecase.CategoryInfo, error) {
	f.lastID = id
	return f.info, f.err
}

func (f *fakeCategoryUC) ListCategories(_ context.Context, req *usecase.ListCategoriesReq) (*usecase.ListCategoriesRes, error) {
	f.listReq = req
	if f.err != nil {
		return nil, f.err
	}
	return usecase.NewListCategoriesRes([]usecase.CategoryInfo{*f.info}, 7), nil
}

func (f *fakeCategoryUC) UpdateCategory(_ context.Context, req *usecase.UpdateCategoryReq) (*usecase.CategoryInfo, error) {
	f.updateReq = req
	return f.info, f.err
}

func (f *fakeCategoryUC) ActivateCategory(_ context.Context, id uuid.UUID) (*usecase.CategoryInfo, error) {
	f.lastID = id
	return f.info, f.err
}

func (f *fakeCategoryUC) DeactivateCategory(_ context.Context, id uuid.UUID) (*usecase.CategoryInfo, error) {
	f.lastID = id
	return f.info, f.err
}

func startServer(t *testing.T, uc usecase.CategoryUC) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(&cfg.GRPCConfig{}, logger.Nop{})
	srv.RegisterServices(uc)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	return conn
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, req map[string]any) (*structpb.Struct, error) {
	t.Helper()

	in, err := structpb.NewStruct(req)
	require.NoError(t, err)

	out := new(structpb.Struct)
	err = conn.Invoke(context.Background(), "/"+categoryServiceName+"/"+method, in, out)
	return out, err
}

func testInfo() *usecase.CategoryInfo {
	return &usecase.CategoryInfo{
		ID:          uuid.New(),
		Name:        "Books",
		Description: "Paper books",
		IsActive:    true,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGetCategory(t *testing.T) {
	uc := &fakeCategoryUC{info: testInfo()}
	conn := startServer(t, uc)

	out, err := invoke(t, conn, "GetCategory", map[string]any{"id": uc.info.ID.String()})

	require.NoError(t, err)
	assert.Equal(t, uc.info.ID, uc.lastID)
	assert.Equal(t, uc.info.ID.String(), out.GetFields()["id"].GetStringValue())
	assert.Equal(t, "Books", out.GetFields()["name"].GetStringValue())
	assert.True(t, out.GetFields()["is_active"].GetBoolValue())
	assert.Equal(t, "2024-01-01T00:00:00Z", out.GetFields()["created_at"].GetStringValue())
}

func TestGetCategoryErrorCodes(t *testing.T) {
	conn := startServer(t, &fakeCategoryUC{err: e.Wrap("op", e.ErrCategoryNotFound)})

	_, err := invoke(t, conn, "GetCategory", map[string]any{"id": uuid.NewString()})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = invoke(t, conn, "GetCategory", map[string]any{"id": "nope"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCreateCategory(t *testing.T) {
	uc := &fakeCategoryUC{info: testInfo()}
	conn := startServer(t, uc)

	_, err := invoke(t, conn, "CreateCategory", map[string]any{
		"name":        "Books",
		"description": "",
		"is_active":   false,
	})

	require.NoError(t, err)
	assert.Equal(t, "Books", uc.createReq.Name)
	require.NotNil(t, uc.createReq.Description)
	assert.Empty(t, *uc.createReq.Description)
	require.NotNil(t, uc.createReq.IsActive)
	assert.False(t, *uc.createReq.IsActive)
}

func TestCreateCategoryNullDescription(t *testing.T) {
	msg := e.ShouldNotBeNullMessage("Description")
	uc := &fakeCategoryUC{err: e.Wrap("op", e.NewEntityValidationError(msg))}
	conn := startServer(t, uc)

	_, err := invoke(t, conn, "CreateCategory", map[string]any{"name": "Books", "description": nil})

	require.Error(t, err)
	assert.Nil(t, uc.createReq.Description)
	st, _ := status.FromError(err)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, msg, st.Message())
}

func TestCreateCategoryWrongFieldType(t *testing.T) {
	uc := &fakeCategoryUC{info: testInfo()}
	conn := startServer(t, uc)

	_, err := invoke(t, conn, "CreateCategory", map[string]any{"name": "Books", "description": 42.0})

	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Nil(t, uc.createReq)
}

func TestListCategories(t *testing.T) {
	uc := &fakeCategoryUC{info: testInfo()}
	conn := startServer(t, uc)

	out, err := invoke(t, conn, "ListCategories", map[string]any{"limit": 5, "offset": 2, "only_active": true})

	require.NoError(t, err)
	assert.Equal(t, usecase.ListCategoriesReq{Limit: 5, Offset: 2, OnlyActive: true}, *uc.listReq)
	assert.Equal(t, float64(7), out.GetFields()["total"].GetNumberValue())
	require.Len(t, out.GetFields()["categories"].GetListValue().GetValues(), 1)

	_, err = invoke(t, conn, "ListCategories", map[string]any{"limit": 1.5})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestUpdateAndToggle(t *testing.T) {
	uc := &fakeCategoryUC{info: testInfo()}
	conn := startServer(t, uc)
	id := uuid.New()

	_, err := invoke(t, conn, "UpdateCategory", map[string]any{"id": id.String(), "name": "E-books"})
	require.NoError(t, err)
	assert.Equal(t, id, uc.updateReq.ID)
	assert.Nil(t, uc.updateReq.Description)

	_, err = invoke(t, conn, "DeactivateCategory", map[string]any{"id": id.String()})
	require.NoError(t, err)
	assert.Equal(t, id, uc.lastID)

	_, err = invoke(t, conn, "ActivateCategory", map[string]any{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCErrorResponseHidesInternals(t *testing.T) {
	err := GRPCErrorResponse(assert.AnError)

	st, _ := status.FromError(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, e.ErrInternalServerError.Error(), st.Message())
}

type recordingLogger struct {
	logger.Nop
	mu     sync.Mutex
	warns  []string
	errors []error
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Errorf(err error, _ string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, err)
}

func TestFailLogLevelFollowsCode(t *testing.T) {
	errDB := errors.New("pq: connection refused")
	log := &recordingLogger{}
	svc := NewCategoryService(&fakeCategoryUC{err: errDB}, log)
	req, err := structpb.NewStruct(map[string]any{"id": uuid.NewString()})
	require.NoError(t, err)

	_, err = svc.GetCategory(context.Background(), req)

	assert.Equal(t, codes.Internal, status.Code(err))
	require.Len(t, log.errors, 1)
	assert.ErrorIs(t, log.errors[0], errDB)
	assert.Empty(t, log.warns)

	log = &recordingLogger{}
	svc = NewCategoryService(&fakeCategoryUC{err: e.Wrap("op", e.ErrCategoryNotFound)}, log)

	_, err = svc.GetCategory(context.Background(), req)

	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Len(t, log.warns, 1)
	assert.Empty(t, log.errors)
}
