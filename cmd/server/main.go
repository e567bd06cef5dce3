package main

import (
	"context"
	"database/sql"
	"fmt"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/quality-monitor/internal/aggregate"
	"github.com/ignite/quality-monitor/internal/alert"
	"github.com/ignite/quality-monitor/internal/api"
	"github.com/ignite/quality-monitor/internal/config"
	"github.com/ignite/quality-monitor/internal/expectation"
	"github.com/ignite/quality-monitor/internal/notifier"
	"github.com/ignite/quality-monitor/internal/pkg/distlock"
	"github.com/ignite/quality-monitor/internal/pkg/logger"
	"github.com/ignite/quality-monitor/internal/repository/memory"
	"github.com/ignite/quality-monitor/internal/repository/postgres"
	"github.com/ignite/quality-monitor/internal/scheduler"
	"github.com/ignite/quality-monitor/internal/service/history"
	"github.com/ignite/quality-monitor/internal/service/trend"
	"github.com/ignite/quality-monitor/internal/snapshot"
)

// checkPortAvailable verifies that the target port is not already in use,
// so a stale process never silently swallows the pipeline traffic.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		logger.Info("DATABASE_URL env override active")
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check failed: %v", err)
	}

	registry, err := expectation.NewRegistry(cfg.Suites)
	if err != nil {
		log.Fatalf("Invalid expectation suite config: %v", err)
	}
	if registry.Len() == 0 {
		log.Fatalf("No expectation suites configured")
	}
	logger.Info("expectation suites loaded", "datasets", registry.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		db        *sql.DB
		trendRepo trend.Repository
		histRepo  history.Repository
		auditRepo alert.AuditRepository
	)
	if cfg.Database.URL != "" {
		db, err = postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer db.Close()
		trendRepo = postgres.NewTrendRepo(db)
		histRepo = postgres.NewHistoryRepo(db)
		auditRepo = postgres.NewAuditRepo(db)
		logger.Info("storage: postgres", "dsn", logger.RedactDSN(cfg.Database.URL))
	} else {
		trendRepo = memory.NewTrendRepo()
		histRepo = memory.NewHistoryRepo()
		auditRepo = memory.NewAuditRepo()
		logger.Warn("storage: in-memory (no database.url configured, state is lost on restart)")
	}

	// Redis backs the distributed run lock when available.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis at %s: %v", cfg.Redis.Addr, err)
		}
		pingCancel()
		defer redisClient.Close()
		logger.Info("run lock: redis", "addr", cfg.Redis.Addr)
	} else if db != nil {
		logger.Info("run lock: postgres advisory locks")
	} else {
		logger.Warn("run lock: process-local (single node only)")
	}

	provider, closeProvider, err := snapshot.NewProvider(ctx, cfg.Snapshots)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot provider: %v", err)
	}
	defer closeProvider()

	renderer, err := alert.NewMessageRenderer()
	if err != nil {
		log.Fatalf("Failed to parse alert templates: %v", err)
	}
	var sink notifier.Notifier = notifier.LogNotifier{}
	if cfg.Alerting.SlackWebhookURL != "" {
		sink = notifier.NewSlackNotifier(cfg.Alerting.SlackWebhookURL, nil)
		logger.Info("alerts: slack webhook")
	} else {
		logger.Info("alerts: log only (no slack_webhook_url configured)")
	}
	dispatcher := alert.NewDispatcher(sink, auditRepo, renderer,
		alert.Policy{InfoOnSuccess: cfg.Alerting.InfoOnSuccess},
		cfg.Alerting.MaxAttempts)

	trends := trend.NewService(trendRepo)
	hist := history.NewService(histRepo, cfg.Pipeline.RetentionDays)
	agg := aggregate.New(aggregate.Thresholds{CriticalBelow: cfg.Thresholds.CriticalBelow})

	sched := scheduler.New(registry, provider, agg, trends, hist, dispatcher,
		func(key string, ttl time.Duration) distlock.DistLock {
			return distlock.NewLock(redisClient, db, key, ttl)
		},
		scheduler.Options{
			PipelineName:   cfg.Pipeline.Name,
			DailyAt:        cfg.Pipeline.DailyAt,
			Interval:       cfg.Pipeline.Interval(),
			DatasetTimeout: cfg.Pipeline.DatasetTimeout(),
			MaxParallel:    cfg.Pipeline.MaxParallelDatasets,
			LockTTL:        cfg.Pipeline.LockTTL(),
		})
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	handlers := api.NewHandlers(sched, trends, hist, auditRepo, registry)
	server := api.NewServer(handlers)

	addr := fmt.Sprintf("%s:%d", host, port)
	go func() {
		logger.Info("api server listening", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", "error", err.Error())
	}
	sched.Stop()
	logger.Info("shutdown complete")
}
