package worker

import (
	"context"
	"sync"
	"time"

	"gameapi/pkg/archive"
	"gameapi/pkg/consumer"
	"gameapi/pkg/logger"
	"gameapi/pkg/metrics"
	"gameapi/pkg/retry"

	"go.uber.org/zap"
)

// Pool fans session rows out to batching workers. Each worker flushes its
// batch to the archive writer when full or stale, and commits the covered
// offsets only after a successful write.
type Pool struct {
	logger        *logger.Logger
	writer        archive.Writer
	consumer      consumer.Consumer
	retryOpts     retry.Options
	numWorkers    int
	batchSize     int
	flushInterval time.Duration
	jobs          chan archive.Pending
	wg            sync.WaitGroup
}

// NewPool creates a new Pool instance
func NewPool(l *logger.Logger, w archive.Writer, c consumer.Consumer, numWorkers, batchSize int, flushInterval time.Duration) *Pool {
	return &Pool{
		logger:        l,
		writer:        w,
		consumer:      c,
		retryOpts:     retry.DefaultOptions(),
		numWorkers:    numWorkers,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		jobs:          make(chan archive.Pending, numWorkers*2),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Submit hands a pending row to the pool
func (p *Pool) Submit(ctx context.Context, pending archive.Pending) error {
	select {
	case p.jobs <- pending:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("archive worker started", zap.Int("worker_id", id))

	buffer := archive.NewBuffer(p.batchSize)
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case pending, ok := <-p.jobs:
			if !ok {
				p.flush(ctx, buffer)
				return
			}
			if buffer.Add(pending) {
				p.flush(ctx, buffer)
			}

		case <-ticker.C:
			if buffer.Stale(p.flushInterval) {
				p.flush(ctx, buffer)
			}

		case <-ctx.Done():
			p.flush(context.Background(), buffer) // Final flush on shutdown
			return
		}
	}
}

func (p *Pool) flush(ctx context.Context, buffer *archive.Buffer) {
	batch := buffer.Drain()
	if len(batch) == 0 {
		return
	}

	rows := make([]archive.SessionRow, len(batch))
	for i, pending := range batch {
		rows[i] = pending.Row
	}

	start := time.Now()
	err := retry.Do(ctx, func() error {
		return p.writer.WriteBatch(ctx, rows)
	}, p.retryOpts)
	if err != nil {
		p.logger.Error("failed to write archive batch", err, zap.Int("rows", len(rows)))
		metrics.ArchiverWriteErrorsTotal.Inc()
		// Offsets stay uncommitted; the batch will be re-consumed and the
		// event_id conflict guard absorbs the duplicates.
		return
	}
	metrics.ArchiverInsertLatency.Observe(time.Since(start).Seconds())
	metrics.ArchiverBatchWritesTotal.Inc()

	// Commit offsets only after the rows are safely in Postgres
	for _, pending := range batch {
		if err := p.consumer.Commit(ctx, pending.Message); err != nil {
			p.logger.Error("failed to commit offset", err, zap.Int64("offset", pending.Message.Offset))
		}
	}
}

// Shutdown stops all workers and waits for them to finish
func (p *Pool) Shutdown(ctx context.Context) error {
	close(p.jobs)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
