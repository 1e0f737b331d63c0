package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/erp/procurement/internal/application/catalog"
	purchasingapp "github.com/erp/procurement/internal/application/purchasing"
	"github.com/erp/procurement/internal/infrastructure/cache"
	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/erp/procurement/internal/infrastructure/ecommerce"
	"github.com/erp/procurement/internal/infrastructure/event"
	"github.com/erp/procurement/internal/infrastructure/logger"
	"github.com/erp/procurement/internal/infrastructure/persistence"
	"github.com/erp/procurement/internal/infrastructure/storage"
	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/erp/procurement/internal/interfaces/http/handler"
	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/erp/procurement/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//	@title			Procurement API
//	@version		1.0
//	@description	Purchase order reconciliation: items, receiving, vendor payments and catalog lookups

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting procurement service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	metrics := telemetry.NewMetrics()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		if err := metrics.RegisterDBStats(sqlDB, cfg.Database.DBName); err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		}
	}

	// Domain events: audit log always, Kafka when brokers are configured
	eventBus := event.NewInMemoryEventBus(log)
	defer eventBus.Close()

	auditHandler := event.NewAuditLogHandler(log)
	eventBus.Subscribe(auditHandler, auditHandler.EventTypes()...)

	if cfg.Kafka.Enabled() {
		forwarder := event.NewKafkaForwarder(event.NewKafkaWriter(event.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		}), event.NewEventSerializer(), log)
		defer func() {
			if err := forwarder.Close(); err != nil {
				log.Warn("Failed to close Kafka writer", zap.Error(err))
			}
		}()
		eventBus.Subscribe(forwarder, forwarder.EventTypes()...)
		log.Info("Forwarding domain events to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	// Attachments
	var attachments purchasingapp.AttachmentStorage
	var memoryStorage *storage.MemoryAttachmentStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3AttachmentStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to configure attachment storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare attachment bucket", zap.Error(err), zap.String("bucket", s3Storage.Bucket()))
		}
		attachments = s3Storage
	} else {
		memoryStorage = storage.NewMemoryAttachmentStorage("http://localhost:" + cfg.App.Port + "/attachments")
		attachments = memoryStorage
		log.Warn("Object storage disabled, attachments are kept in memory",
			zap.String("download_path", memoryStorage.BasePath()),
		)
	}

	// Application services
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	orderService := purchasingapp.NewPurchaseOrderService(orderRepo)
	orderService.SetEventPublisher(eventBus)
	orderService.SetAttachmentStorage(attachments)
	orderService.SetBusinessMetrics(metrics.Business())
	orderService.SetLogger(log)

	var catalogHandler *handler.CatalogHandler
	shopify, err := ecommerce.NewShopifyAdapter(&ecommerce.ShopifyConfig{
		ShopDomain:     cfg.Shopify.ShopDomain,
		AccessToken:    cfg.Shopify.AccessToken,
		APIVersion:     cfg.Shopify.APIVersion,
		Endpoint:       cfg.Shopify.Endpoint,
		TimeoutSeconds: cfg.Shopify.TimeoutSeconds,
	}, log)
	if err != nil {
		log.Warn("Catalog routes disabled", zap.Error(err))
	} else {
		catalogHandler = handler.NewCatalogHandler(catalogapp.NewCatalogService(shopify))
	}

	// Idempotency store for payment submissions
	var idempotencyConfig middleware.IdempotencyConfig
	if cfg.Idempotency.Enabled {
		store, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
			cache.WithLogger(log),
			cache.WithKeyPrefix(cfg.Idempotency.Prefix),
		).CreateStore(ctx)
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		defer store.Close()
		idempotencyConfig = middleware.IdempotencyConfig{Store: store, TTL: cfg.Idempotency.TTL}
	}

	// HTTP
	middleware.SetupValidator()
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	tenantConfig := middleware.DefaultTenantConfig()
	if cfg.App.DefaultTenantID != "" {
		tenantConfig.DefaultTenantID = uuid.MustParse(cfg.App.DefaultTenantID)
	}
	if memoryStorage != nil {
		tenantConfig.SkipPaths = append(tenantConfig.SkipPaths, memoryStorage.BasePath())
	}
	tracingConfig := middleware.DefaultTracingConfig()
	tracingConfig.ServiceName = cfg.Telemetry.ServiceName
	tracingConfig.Enabled = cfg.Telemetry.Enabled
	metricsConfig := middleware.DefaultHTTPMetricsConfig(metrics)
	metricsConfig.Enabled = cfg.Telemetry.MetricsEnabled

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(tracingConfig))
	engine.Use(middleware.Tenant(tenantConfig))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(metricsConfig))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(bodyLimitExcept(cfg.HTTP.MaxBodySize, "/attachment"))

	systemHandler := handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion)
	systemHandler.AddCheck("database", func(ctx context.Context) error {
		sqlDB, err := db.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	engine.GET("/health", systemHandler.Health)
	if cfg.Telemetry.MetricsEnabled {
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	if memoryStorage != nil {
		engine.GET(memoryStorage.BasePath()+"/*key", gin.WrapH(memoryStorage.Handler()))
	}

	r := router.NewRouter(engine)
	orderRoutes := router.NewPurchaseOrderRoutes(
		handler.NewPurchaseOrderHandler(orderService, cfg.HTTP.MaxAttachmentSize),
		router.PurchaseOrderRoutesConfig{
			PaymentGuard:    middleware.Idempotency(idempotencyConfig),
			AttachmentLimit: middleware.BodyLimit(cfg.HTTP.MaxAttachmentSize),
		},
	)
	r.Register(orderRoutes)
	if catalogHandler != nil {
		r.Register(router.NewCatalogRoutes(catalogHandler))
	}
	r.Register(router.NewDomainGroup("system", "/system").GET("/info", systemHandler.GetSystemInfo))
	r.Setup()

	for _, route := range orderRoutes.Routes() {
		log.Debug("Route registered", zap.String("method", route.Method), zap.String("path", r.BasePath()+route.Path))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// bodyLimitExcept applies the global body limit to every request except
// uploads, whose route carries its own larger limit
func bodyLimitExcept(maxBytes int64, suffix string) gin.HandlerFunc {
	limit := middleware.BodyLimit(maxBytes)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost && len(c.Request.URL.Path) >= len(suffix) &&
			c.Request.URL.Path[len(c.Request.URL.Path)-len(suffix):] == suffix {
			c.Next()
			return
		}
		limit(c)
	}
}
