package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/catalog-categories/internal/cfg"
	v1Grpc "github.com/DRSN-tech/catalog-categories/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/catalog-categories/internal/delivery/v1/http"
	"github.com/DRSN-tech/catalog-categories/internal/infrastructure/kafka"
	"github.com/DRSN-tech/catalog-categories/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/catalog-categories/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-categories/internal/repository/redis"
	redisConv "github.com/DRSN-tech/catalog-categories/internal/repository/redis/converter"
	"github.com/DRSN-tech/catalog-categories/internal/usecase"
	"github.com/DRSN-tech/catalog-categories/pkg/clients"
	"github.com/DRSN-tech/catalog-categories/pkg/clock"
	"github.com/DRSN-tech/catalog-categories/pkg/closer"
	"github.com/DRSN-tech/catalog-categories/pkg/e"
	"github.com/DRSN-tech/catalog-categories/pkg/logger"
	"github.com/DRSN-tech/catalog-categories/pkg/postgres"
	"github.com/DRSN-tech/catalog-categories/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	startupTimeout     = 10 * time.Second
	forcedCloseTimeout = 2 * time.Second
)

type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
	worker  *kafka.OutboxWorker
}

// NewApp поднимает зависимости. При ошибке уже открытые ресурсы закрываются.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(forcedCloseTimeout),
	}

	if err := a.init(); err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if cerr := a.closer.Close(ctx); cerr != nil {
			log.Warnf("cleanup after failed start: %v", cerr)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init() error {
	db, err := initPGDB(a.logger, a.cfg)
	if err != nil {
		return err
	}
	a.closer.Add("postgres", func(context.Context) error {
		db.Close()
		return nil
	})

	redisClient := clients.NewRedisClient(a.cfg.Redis)
	a.closer.Add("redis", redisClient.Close)

	redisCtx, redisCancel := context.WithTimeout(context.Background(), startupTimeout)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		a.logger.Errorf(err, "failed to connect to redis")
		return err
	}

	producer, err := kafka.NewProducer(a.logger, a.cfg.Kafka)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize kafka producer")
		return err
	}
	a.closer.Add("kafka producer", producer.Close)

	if err := producer.EnsureTopic(startupTimeout); err != nil {
		a.logger.Errorf(err, "failed to ensure kafka topic")
		return err
	}

	categoryRepo := pgdb.NewCategoryRepo(db.Pool, pgdbConv.NewCategoryConverterImpl())
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.NewOutboxEventConverterImpl())
	cacheRepo := redis.NewCacheRepo(redisClient, redisConv.NewCategoryInfoConverterImpl(), a.cfg.Redis, a.logger)

	categoryUC := usecase.NewCategoryUC(
		categoryRepo,
		outboxRepo,
		tr.NewManager(db.Pool),
		cacheRepo,
		kafka.NewEventEncoder(),
		clock.System{},
		a.logger,
	)

	a.worker = kafka.NewOutboxWorker(outboxRepo, a.logger, producer, db.Dsn, pgdb.OutboxChannel, a.cfg.Kafka.BatchLimit)
	a.closer.Add("outbox worker", a.worker.Stop)

	a.grpcSrv = v1Grpc.NewGRPCServer(a.cfg.Grpc, a.logger)
	a.grpcSrv.RegisterServices(categoryUC)
	a.closer.Add("grpc server", a.grpcSrv.Stop)

	r := chi.NewRouter()
	v1Http.NewRouter(r, a.logger, a.cfg.Http.SwaggerURL).Init(categoryUC)
	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)
	a.closer.Add("http server", a.httpSrv.Stop)

	return nil
}

// Run запускает воркер и серверы и блокируется до сигнала или падения сервера.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.worker.Start(ctx)

	errCh := make(chan error, 2)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- e.Wrap("grpc server", err)
		}
	}()

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- e.Wrap("http server", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server fatal error")
	case sig := <-shutdown:
		a.logger.Infof("Received %s, stopping gracefully...", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "shutdown")
		if appErr == nil {
			appErr = err
		}
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		db.Close()
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
