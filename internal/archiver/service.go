package archiver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gameapi/pkg/archive"
	"gameapi/pkg/consumer"
	"gameapi/pkg/events"
	"gameapi/pkg/logger"
	"gameapi/pkg/metrics"
)

// Submitter is the slice of the worker pool the service depends on
type Submitter interface {
	Start(ctx context.Context)
	Submit(ctx context.Context, pending archive.Pending) error
	Shutdown(ctx context.Context) error
}

// Service drains the session event topic into the Postgres archive
type Service struct {
	logger   *logger.Logger
	consumer consumer.Consumer
	pool     Submitter
}

// NewService creates a new archiver Service instance
func NewService(l *logger.Logger, c consumer.Consumer, p Submitter) *Service {
	return &Service{
		logger:   l,
		consumer: c,
		pool:     p,
	}
}

// Start begins the consumption and archiving loop
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting archiver service")

	s.pool.Start(ctx)

	msgChan, errChan := s.consumer.Consume(ctx)

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				return nil
			}
			if err := s.handleMessage(ctx, msg); err != nil {
				s.logger.Error("failed to handle message", err, zap.Int64("offset", msg.Offset))
			}

		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("consumer error: %w", err)
			}

		case <-ctx.Done():
			return s.Shutdown(context.Background())
		}
	}
}

func (s *Service) handleMessage(ctx context.Context, msg consumer.Message) error {
	metrics.ArchiverEventsConsumedTotal.Inc()

	evt, err := events.ParseSessionEvent(msg.Value)
	if err != nil {
		// Malformed payloads are skipped; committing keeps the group moving
		s.logger.Warn("skipping malformed session event",
			zap.Error(err),
			zap.Int64("offset", msg.Offset),
			zap.ByteString("payload", msg.Value))
		return s.consumer.Commit(ctx, msg)
	}

	// The pool commits the offset after the row is written
	return s.pool.Submit(ctx, archive.Pending{
		Row:     archive.RowFromEvent(evt),
		Message: msg,
	})
}

// Shutdown stops the service gracefully
func (s *Service) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down archiver service")

	errPool := s.pool.Shutdown(ctx)
	errCons := s.consumer.Close()

	if errPool != nil || errCons != nil {
		return fmt.Errorf("shutdown errors: pool=%v, consumer=%v", errPool, errCons)
	}
	return nil
}
