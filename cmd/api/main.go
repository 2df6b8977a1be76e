package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gameapi/internal/api"
	"gameapi/internal/game"
	"gameapi/pkg/cache"
	"gameapi/pkg/config"
	"gameapi/pkg/events"
	"gameapi/pkg/logger"
	"gameapi/pkg/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	l, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	l.Info("api service initializing", zap.String("env", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Progress store
	var st store.Store
	switch cfg.Store.Driver {
	case "memory":
		l.Warn("using in-memory store, progress will not survive restarts")
		st = store.NewMemoryStore()
	default:
		mongoStore, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:            cfg.MongoDB.URI,
			Database:       cfg.MongoDB.Database,
			Collection:     cfg.MongoDB.Collection,
			ConnectTimeout: cfg.MongoDB.ConnectTimeout,
		})
		if err != nil {
			l.Fatal("failed to connect to mongodb", err)
		}
		defer mongoStore.Close(context.Background())
		st = mongoStore
	}

	// Query cache
	var queryCache cache.Cache = cache.Disabled{}
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer redisClient.Close()
		queryCache = cache.NewRedisCache(redisClient)
		l.Info("query cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// Session event feed
	var publisher events.Publisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		l.Info("session event feed enabled", zap.String("topic", cfg.Kafka.Topic))
	}

	svc := game.NewService(l, st, queryCache, publisher, cfg.Redis.CacheTTL)
	server := api.NewServer(cfg.HTTP.Addr, api.NewHandler(svc, l), l)

	go func() {
		if err := server.Start(); err != nil {
			l.Error("http server failed", err)
			stop()
		}
	}()

	l.Info("api service started", zap.String("addr", cfg.HTTP.Addr))
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error("shutdown incomplete", err)
	}
	l.Info("api service stopped")
}
