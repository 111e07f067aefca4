package http

import (
	_ "github.com/DRSN-tech/catalog-categories/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/catalog-categories/internal/usecase"
	"github.com/DRSN-tech/catalog-categories/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router     *chi.Mux
	logger     logger.Logger
	swaggerURL string
}

func NewRouter(router *chi.Mux, logger logger.Logger, swaggerURL string) *Router {
	return &Router{router: router, logger: logger, swaggerURL: swaggerURL}
}

func (r *Router) Init(catUC usecase.CategoryUC) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.Recoverer)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(r.swaggerURL), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		catHandler := NewCategoryHandler(catUC, r.logger)
		registerCategoryRoutes(v1, catHandler)
	})
}

func registerCategoryRoutes(router chi.Router, catHandler *CategoryHandler) {
	router.Route("/categories", func(cat chi.Router) {
		cat.Post("/", catHandler.createCategory)
		cat.Get("/", catHandler.listCategories)
		cat.Route("/{id}", func(one chi.Router) {
			one.Get("/", catHandler.getCategory)
			one.Put("/", catHandler.updateCategory)
			one.Post("/activate", catHandler.activateCategory)
			one.Post("/deactivate", catHandler.deactivateCategory)
		})
	})
}
