package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hazina/sacco-engine/internal/config"
	"github.com/hazina/sacco-engine/internal/handler"
	"github.com/hazina/sacco-engine/internal/logger"
	"github.com/hazina/sacco-engine/internal/repository"
	"github.com/hazina/sacco-engine/internal/service"
	"github.com/hazina/sacco-engine/pkg/response"
)

func main() {
	// .env is optional; containers inject real environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()

	db, err := initDB(cfg)
	if err != nil {
		zap.S().Fatalw("initialize database", "error", err)
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Repositories
	appRepo := repository.NewLoanApplicationRepository(db)
	guaranteeRepo := repository.NewGuaranteeRequestRepository(db)
	guarantorRepo := repository.NewGuarantorProfileRepository(db)
	savingsRepo := repository.NewSavingsRepository(db)
	productRepo := repository.NewLoanProductRepository(db)
	uow := repository.NewUnitOfWork(db)

	// Services
	applicationService := service.NewLoanApplicationService(uow, appRepo, guaranteeRepo, productRepo, savingsRepo, redisClient, cfg)
	guaranteeService := service.NewGuaranteeService(uow, guaranteeRepo, guarantorRepo, redisClient, cfg)
	catalogService := service.NewCatalogService(productRepo)

	// Handlers
	applicationHandler := handler.NewLoanApplicationHandler(applicationService)
	guaranteeHandler := handler.NewGuaranteeHandler(guaranteeService)
	productHandler := handler.NewLoanProductHandler(catalogService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	router := setupRoutes(applicationHandler, guaranteeHandler, productHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zap.S().Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.S().Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zap.S().Fatalw("server forced to shutdown", "error", err)
	}

	zap.S().Info("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	applicationHandler *handler.LoanApplicationHandler,
	guaranteeHandler *handler.GuaranteeHandler,
	productHandler *handler.LoanProductHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware, response.CORSMiddleware)

	// Health checks sit outside the identity boundary
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(handler.IdentityMiddleware)

	applicationHandler.RegisterRoutes(api)
	guaranteeHandler.RegisterRoutes(api)
	productHandler.RegisterRoutes(api)

	return router
}
