package http

import (
	"net/http"

	_ "github.com/DRSN-tech/catalog-backend/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/catalog-backend/internal/auth"
	"github.com/DRSN-tech/catalog-backend/internal/cfg"
	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(prUC usecase.ProductUC, catUC usecase.CategoryUC, authSvc *auth.Service, catalogCfg *cfg.CatalogCfg) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	assembler := NewAssembler(catalogCfg.Currency)
	requireAuth := AuthMiddleware(authSvc, r.logger)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		prHandler := NewProductHandler(prUC, assembler, r.logger, catalogCfg)
		catHandler := NewCategoryHandler(catUC, assembler, r.logger)

		registerProductRoutes(v1, prHandler, requireAuth)
		registerCategoryRoutes(v1, catHandler, requireAuth)
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler, requireAuth func(http.Handler) http.Handler) {
	router.Route("/products", func(pr chi.Router) {
		// Чтения публичны
		pr.Get("/", prHandler.listProducts)
		pr.Get("/find", prHandler.findProducts)
		pr.Get("/{productID}", prHandler.getProduct)
		pr.Get("/{productID}/images", prHandler.listImages)

		// Мутации требуют аутентификации
		pr.Group(func(mut chi.Router) {
			mut.Use(requireAuth)
			mut.Post("/", prHandler.createProduct)
			mut.Put("/{productID}", prHandler.updateProduct)
			mut.Delete("/{productID}", prHandler.deleteProduct)
			mut.Put("/{productID}/categories/{categoryID}", prHandler.attachCategory)
			mut.Delete("/{productID}/categories/{categoryID}", prHandler.detachCategory)
			mut.Post("/{productID}/images", prHandler.uploadImages)
			mut.Delete("/{productID}/images/{imageID}", prHandler.deleteImage)
		})
	})
}

func registerCategoryRoutes(router chi.Router, catHandler *CategoryHandler, requireAuth func(http.Handler) http.Handler) {
	router.Route("/categories", func(cat chi.Router) {
		cat.Get("/", catHandler.listCategories)
		cat.Get("/{categoryID}", catHandler.getCategory)

		cat.Group(func(mut chi.Router) {
			mut.Use(requireAuth)
			mut.Post("/", catHandler.createCategory)
		})
	})
}
