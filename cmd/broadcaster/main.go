package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/hub"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/ingest"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/normalizer"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/server"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/store"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/pkg/config"
)

const connectTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	startedAt := time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := newLogger(cfg.App.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	st, err := newStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store", zap.Error(err))
		return 1
	}
	defer st.Close()

	h := hub.NewHub(st, logger, clockwork.NewRealClock(), cfg.Hub.HeartbeatInterval, cfg.Hub.SessionBuffer)

	groupID := cfg.Kafka.GroupIDOrDerived(startedAt)
	reader := ingest.NewReader(cfg.Kafka, groupID)
	consumer := ingest.NewConsumer(cfg.Kafka, reader, normalizer.New(), st, h, logger)

	// Kafka unreachable at startup is fatal: no half-alive serving-only mode.
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), connectTimeout)
	err = consumer.Connect(connectCtx)
	cancelConnect()
	if err != nil {
		logger.Error("Kafka connection failed at startup", zap.Error(err))
		return 1
	}

	srv := &http.Server{
		Addr:    cfg.App.Port,
		Handler: server.New(st, h, consumer, logger).Routes(),
	}

	consumeCtx, cancelConsume := context.WithCancel(context.Background())
	defer cancelConsume()
	consumeDone := make(chan struct{})
	go func() {
		defer close(consumeDone)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Consumer panic recovered", zap.Any("panic", r))
			}
		}()
		if err := consumer.Run(consumeCtx); err != nil {
			logger.Error("Consumer stopped", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("Server Started",
			zap.String("port", cfg.App.Port),
			zap.String("topic", cfg.Kafka.Topic),
			zap.String("group_id", groupID),
			zap.Bool("replay", cfg.Kafka.Replay),
			zap.String("store_backend", cfg.Store.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")

	graceCtx, cancelGrace := context.WithTimeout(context.Background(), cfg.App.ShutdownGrace)
	defer cancelGrace()

	// Order matters: reject new sessions and close open ones, then stop the
	// listener, then release the bus connection.
	h.Shutdown()
	if err := srv.Shutdown(graceCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}

	cancelConsume()
	logger.Info("Closing Kafka Reader...")
	if err := reader.Close(); err != nil {
		logger.Error("Error closing reader", zap.Error(err))
	}

	select {
	case <-consumeDone:
	case <-graceCtx.Done():
		logger.Warn("Consumer did not stop within grace period")
	}

	logger.Info("Broadcaster exited cleanly")
	return 0
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return store.NewRedisStore(rdb, logger), nil
	default:
		return store.NewMemoryStore(), nil
	}
}
