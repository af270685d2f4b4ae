package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hazina/sacco-engine/internal/config"
	"github.com/hazina/sacco-engine/internal/logger"
	"github.com/hazina/sacco-engine/internal/repository"
	"github.com/hazina/sacco-engine/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		zap.S().Fatalw("initialize database", "error", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	appRepo := repository.NewLoanApplicationRepository(db)
	guaranteeRepo := repository.NewGuaranteeRequestRepository(db)
	uow := repository.NewUnitOfWork(db)

	maintenance := service.NewMaintenanceService(uow, appRepo, guaranteeRepo, redisClient, cfg)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		zap.S().Fatalw("load scheduler timezone", "timezone", cfg.Scheduler.Timezone, "error", err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	if _, err := c.AddFunc(cfg.Scheduler.ReminderSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := maintenance.RemindStaleGuaranteeRequests(ctx); err != nil {
			zap.S().Errorw("guarantee reminder job", "error", err)
		}
	}); err != nil {
		zap.S().Fatalw("schedule guarantee reminder job", "error", err)
	}

	if _, err := c.AddFunc(cfg.Scheduler.SnapshotSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := maintenance.RefreshCoverageSnapshots(ctx); err != nil {
			zap.S().Errorw("coverage snapshot job", "error", err)
		}
	}); err != nil {
		zap.S().Fatalw("schedule coverage snapshot job", "error", err)
	}

	c.Start()
	zap.S().Info("scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.S().Info("shutting down scheduler")
	<-c.Stop().Done()
	zap.S().Info("scheduler stopped")
}
