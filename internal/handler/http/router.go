package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/catalog/internal/service"
	"github.com/utafrali/catalog/pkg/health"
	"github.com/utafrali/catalog/pkg/httputil"
	"github.com/utafrali/catalog/pkg/middleware"
)

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	ServiceName    string
	ProductService *service.ProductService
	ReviewService  *service.ReviewService
	Health         *health.Handler
	Metrics        *middleware.HTTPMetrics
	// Gatherer backs GET /metrics; nil leaves the endpoint unmounted.
	Gatherer prometheus.Gatherer

	// ImagesDir is served read-only under /img/products/.
	ImagesDir        string
	ImageCacheMaxAge int

	CORSAllowedOrigins []string
	PprofAllowedCIDRs  []string
	Logger             *slog.Logger
}

// NewRouter creates a chi router with all catalog routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins}))
	r.Use(chimw.StripSlashes)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorCode(w, r, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorCode(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	// Operational endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.LivenessHandler())
		r.Get("/health/ready", cfg.Health.ReadinessHandler())
	}
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	// Product images
	if cfg.ImagesDir != "" {
		images := http.StripPrefix("/img/products/", http.FileServer(http.Dir(cfg.ImagesDir)))
		r.With(middleware.CacheControl(cfg.ImageCacheMaxAge)).Get("/img/products/*", images.ServeHTTP)
	}

	productHandler := NewProductHandler(cfg.ProductService, logger)
	imageHandler := NewImageHandler(cfg.ProductService, logger)
	reviewHandler := NewReviewHandler(cfg.ReviewService, logger)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", productHandler.ListProducts)
		r.Post("/", productHandler.CreateProduct)

		r.Route("/{productId}", func(r chi.Router) {
			r.Use(scopeProduct(logger))

			r.Get("/", productHandler.GetProduct)
			r.Put("/", productHandler.UpdateProduct)
			r.Delete("/", productHandler.DeleteProduct)

			r.Post("/img", imageHandler.UploadImage)

			r.Get("/reviews", reviewHandler.ListReviews)
			r.Post("/reviews", reviewHandler.CreateReview)
			r.Get("/reviews/{reviewId}", reviewHandler.GetReview)
			r.Put("/reviews/{reviewId}", reviewHandler.UpdateReview)
			r.Delete("/reviews/{reviewId}", reviewHandler.DeleteReview)
		})
	})

	return r
}

// scopeProduct tags every log line of a product-scoped request with its id.
func scopeProduct(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, middleware.ScopeProduct(r, logger, chi.URLParam(r, "productId")))
		})
	}
}

// Routes lists "METHOD pattern" for every route registered on h, in walk
// order. h must be a router built by NewRouter.
func Routes(h http.Handler) []string {
	routes, ok := h.(chi.Routes)
	if !ok {
		return nil
	}
	var out []string
	_ = chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, method+" "+route)
		return nil
	})
	return out
}
