package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/utafrali/catalog/internal/config"
	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/event"
	handler "github.com/utafrali/catalog/internal/handler/http"
	"github.com/utafrali/catalog/internal/repository/jsonfile"
	"github.com/utafrali/catalog/internal/service"
	"github.com/utafrali/catalog/internal/storage/disk"
	"github.com/utafrali/catalog/pkg/breaker"
	"github.com/utafrali/catalog/pkg/health"
	pkgkafka "github.com/utafrali/catalog/pkg/kafka"
	"github.com/utafrali/catalog/pkg/middleware"
	"github.com/utafrali/catalog/pkg/tracing"
)

// ServiceName identifies the catalog in logs, metrics, traces and events.
const ServiceName = "catalog"

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	handler        http.Handler
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Flat-file collections.
	storeOpts := jsonfile.Options{
		Metrics:       jsonfile.NewMetrics(reg),
		Logger:        logger,
		SlowThreshold: cfg.SlowStorageThreshold(),
	}
	products := jsonfile.NewCollection[domain.Product]("products", cfg.ProductsPath(), storeOpts)
	reviews := jsonfile.NewCollection[domain.Review]("reviews", cfg.ReviewsPath(), storeOpts)
	for _, initColl := range []func(context.Context) error{products.Init, reviews.Init} {
		if err := initColl(ctx); err != nil {
			return nil, fmt.Errorf("init collection: %w", err)
		}
	}
	logger.Info("collections ready",
		slog.String("products", products.Path()),
		slog.String("reviews", reviews.Path()),
	)

	images := disk.New(cfg.ProductImagesDir(), cfg.ProductImagesBaseURL(), logger)
	if err := images.Init(); err != nil {
		return nil, fmt.Errorf("init image store: %w", err)
	}

	// Event publishing.
	var (
		publisher event.Publisher = event.NopPublisher{}
		producer  *pkgkafka.Producer
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), pkgkafka.NewMetrics(reg), logger)
		cb := breaker.New(breaker.DefaultConfig("kafka"), breaker.NewMetrics(reg), logger)
		publisher = event.WithBreaker(producer, cb)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("kafka disabled, domain events are dropped")
	}

	// Build the dependency graph.
	productRepo := jsonfile.NewProductRepository(products)
	reviewRepo := jsonfile.NewReviewRepository(reviews)
	eventProducer := event.NewProducer(publisher, logger)
	productService := service.NewProductService(productRepo, reviewRepo, images, eventProducer, logger)
	reviewService := service.NewReviewService(reviewRepo, productService, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("products", productRepo.Ping)
	healthHandler.Register("reviews", reviewRepo.Ping)
	healthHandler.Register("images", health.DirWritable(images.Dir()))
	if producer != nil {
		healthHandler.Register("kafka", producer.Ping)
	}

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:        ServiceName,
		ProductService:     productService,
		ReviewService:      reviewService,
		Health:             healthHandler,
		Metrics:            middleware.NewHTTPMetrics(reg, ServiceName),
		Gatherer:           reg,
		ImagesDir:          images.Dir(),
		ImageCacheMaxAge:   cfg.ImageCacheMaxAgeSec,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PprofAllowedCIDRs:  cfg.PprofAllowedCIDRs,
		Logger:             logger,
	})

	for _, route := range handler.Routes(router) {
		logger.Debug("route registered", slog.String("route", route))
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		handler:        router,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("public_base_url", a.cfg.PublicBaseURL),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, tracer,
// Kafka producer.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// Flush spans after the drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
