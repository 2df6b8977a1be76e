package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gameapi/internal/archiver"
	"gameapi/pkg/archive"
	"gameapi/pkg/config"
	"gameapi/pkg/consumer"
	"gameapi/pkg/logger"
	"gameapi/pkg/worker"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateArchiver(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid archiver config: %v\n", err)
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

	l.Info("archiver service initializing", zap.String("env", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgArchive, err := archive.NewPGArchive(ctx, archive.PostgresConfig{
		URI:      cfg.Postgres.URI,
		MinConns: int32(cfg.Postgres.MinConns),
		MaxConns: int32(cfg.Postgres.MaxConns),
	}, l)
	if err != nil {
		l.Fatal("failed to connect to postgres", err)
	}
	defer pgArchive.Close()

	kafkaConsumer := consumer.NewKafkaConsumer(consumer.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()

	pool := worker.NewPool(
		l,
		pgArchive,
		kafkaConsumer,
		cfg.Archiver.WorkerCount,
		cfg.Archiver.BatchSize,
		cfg.Archiver.FlushInterval,
	)

	svc := archiver.NewService(l, kafkaConsumer, pool)

	l.Info("archiver service starting", zap.String("topic", cfg.Kafka.Topic))
	if err := svc.Start(ctx); err != nil && ctx.Err() == nil {
		l.Error("archiver service failed", err)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := svc.Shutdown(shutdownCtx); err != nil {
			l.Error("shutdown incomplete", err)
		}
	}
	l.Info("archiver service stopped")
}
