package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogapp "github.com/retailcore/backend/internal/application/catalog"
	financeapp "github.com/retailcore/backend/internal/application/finance"
	inventoryapp "github.com/retailcore/backend/internal/application/inventory"
	reportapp "github.com/retailcore/backend/internal/application/report"
	salesapp "github.com/retailcore/backend/internal/application/sales"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/cache"
	"github.com/retailcore/backend/internal/infrastructure/config"
	"github.com/retailcore/backend/internal/infrastructure/event"
	"github.com/retailcore/backend/internal/infrastructure/logger"
	"github.com/retailcore/backend/internal/infrastructure/persistence"
	"github.com/retailcore/backend/internal/interfaces/http/handler"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
	"github.com/retailcore/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting RetailCore Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	lotRepo := persistence.NewGormLotRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	debtRepo := persistence.NewGormDebtRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	sequences := persistence.NewGormSequenceGenerator(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	clock := shared.SystemClock{}

	// Revenue cache: Redis in production, in-memory fallback
	var revenueCache reportapp.RevenueCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisRevenueCache(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		revenueCache = redisCache
		log.Info("Redis revenue cache enabled", zap.String("addr", cfg.Redis.Addr()))
	} else {
		memCache := cache.NewInMemoryRevenueCache()
		defer memCache.Close()
		revenueCache = memCache
		log.Info("In-memory revenue cache enabled")
	}

	// Initialize application services
	productService := catalogapp.NewProductService(productRepo)
	lotService := inventoryapp.NewLotService(lotRepo, productRepo, clock)
	settlementService := salesapp.NewSettlementService(txScope, saleRepo, sequences, clock)
	debtService := financeapp.NewDebtService(txScope, debtRepo, clock)
	invoiceService := financeapp.NewInvoiceService(txScope, invoiceRepo, sequences, clock)
	revenueService := reportapp.NewRevenueService(saleRepo, revenueCache, clock)
	revenueService.SetTTL(cfg.Report.RevenueCacheTTL)

	// The debt notifier runs inside the settlement transaction so a sale and
	// its debt commit or roll back together
	debtNotifier := financeapp.NewDebtNotifier()
	settlementService.SetNotifier(debtNotifier)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Sale lifecycle events drop the shop's cached revenue reports
	cacheInvalidator := reportapp.NewRevenueCacheInvalidator(revenueService)
	eventBus.Subscribe(cacheInvalidator)
	log.Info("Event handlers registered",
		zap.Strings("revenue_cache_events", cacheInvalidator.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Inject event bus into services that publish events
	lotService.SetEventPublisher(eventBus)
	settlementService.SetEventPublisher(eventBus)
	debtService.SetEventPublisher(eventBus)
	invoiceService.SetEventPublisher(eventBus)
	debtNotifier.SetEventPublisher(eventBus)

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService)
	lotHandler := handler.NewLotHandler(lotService)
	saleHandler := handler.NewSaleHandler(settlementService)
	debtHandler := handler.NewDebtHandler(debtService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	reportHandler := handler.NewReportHandler(revenueService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID first so every later log line carries it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig()))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Tenant())

	// Readiness probe checks the database; the router's /health stays static
	engine.GET("/ready", readyHandler(db))

	// Register domain routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(productHandler).
		Register(lotHandler).
		Register(saleHandler).
		Register(debtHandler).
		Register(invoiceHandler).
		Register(reportHandler).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// readyHandler reports readiness, including database connectivity
func readyHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		resp := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		}
		if stats, err := db.Stats(); err == nil {
			resp["pool"] = stats
		}
		c.JSON(http.StatusOK, resp)
	}
}
