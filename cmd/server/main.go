package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/Manas2412/8Byte/internal/portfolio"
	"github.com/Manas2412/8Byte/internal/queue"
	"github.com/Manas2412/8Byte/internal/quotes"
	"github.com/Manas2412/8Byte/internal/repository"
	"github.com/Manas2412/8Byte/internal/scheduler"
	"github.com/Manas2412/8Byte/internal/server"
	"github.com/Manas2412/8Byte/internal/worker"
	"github.com/Manas2412/8Byte/pkg/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Shared handles, created once and passed into every component
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStartup()

	if err := rdb.Ping(startupCtx).Err(); err != nil {
		// Cache and queue degrade gracefully; only log here
		logger.Warn("Redis unreachable at startup, cache and queue features degraded", zap.Error(err))
	}

	mongoClient, err := mongo.Connect(startupCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := mongoClient.Ping(startupCtx, readpref.Primary()); err != nil {
		logger.Fatal("MongoDB unreachable", zap.Error(err))
	}
	db := mongoClient.Database(cfg.Mongo.Database)

	holdings := repository.NewMongoHoldingsStore(db)
	snapshots := repository.NewRedisSnapshotStore(rdb, cfg.Cache.PortfolioTTL)
	refreshQueue := queue.NewRedisQueue(rdb, cfg.Queue.Stream, cfg.Queue.Group)
	fetcher := quotes.NewFetcher(cfg.Providers, cfg.Cache, rdb, logger)

	// Queue availability gates the background refresh features, never the
	// serving path.
	queueReady := true
	if err := refreshQueue.EnsureGroup(startupCtx); err != nil {
		logger.Warn("Refresh queue unavailable, background refresh disabled", zap.Error(err))
		queueReady = false
	}

	var enqueuer portfolio.Enqueuer
	if queueReady {
		enqueuer = refreshQueue
	}
	svc := portfolio.NewService(holdings, snapshots, fetcher, enqueuer, logger)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	var sched *scheduler.Scheduler
	if queueReady {
		w := worker.New(refreshQueue, holdings, svc, logger,
			cfg.Worker.BatchSize, cfg.Worker.BlockTimeout, cfg.Worker.BatchDelay, cfg.Worker.MessageTimeout)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()

		sched = scheduler.New(holdings, refreshQueue, logger, cfg.Scheduler.TickTimeout)
		if err := sched.Start(cfg.Scheduler.Interval); err != nil {
			logger.Error("Failed to start scheduler", zap.Error(err))
			sched = nil
		}
	}

	checks := map[string]server.HealthCheck{
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) },
	}
	handler := server.NewHandler(svc, logger, cfg.App.RequestTimeout, checks)

	srv := &http.Server{Addr: cfg.App.Port, Handler: handler.Router()}
	go func() {
		logger.Info("Server Started", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	if sched != nil {
		sched.Stop()
	}

	// Let the in-flight worker batch finish acknowledging
	cancel()
	wg.Wait()

	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Error("Mongo disconnect error", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		logger.Error("Redis close error", zap.Error(err))
	}
	logger.Info("Shutdown Complete")
}
