package archive

import (
	"context"
	"fmt"
	"time"

	"gameapi/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// copyThreshold is the batch size at which the COPY protocol beats
// a batched INSERT.
const copyThreshold = 200

// Writer defines the interface for persisting session rows
type Writer interface {
	// WriteBatch inserts a batch of rows. Rows whose event_id already
	// exists are skipped, so replays are harmless.
	WriteBatch(ctx context.Context, rows []SessionRow) error

	// Close closes the database connection pool
	Close() error
}

// PGArchive implements Writer using pgxpool
type PGArchive struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// PostgresConfig holds database connection settings
type PostgresConfig struct {
	URI      string
	MinConns int32
	MaxConns int32
}

// NewPGArchive creates a new PGArchive instance and verifies the connection
func NewPGArchive(ctx context.Context, cfg PostgresConfig, l *logger.Logger) (*PGArchive, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PGArchive{pool: pool, logger: l}, nil
}

// WriteBatch inserts the rows using the best available protocol
func (w *PGArchive) WriteBatch(ctx context.Context, rows []SessionRow) error {
	if len(rows) == 0 {
		return nil
	}

	if len(rows) >= copyThreshold {
		return w.writeBatchCopy(ctx, rows)
	}
	return w.writeBatchInsert(ctx, rows)
}

// writeBatchInsert pipelines individual inserts for smaller batches
func (w *PGArchive) writeBatchInsert(ctx context.Context, rows []SessionRow) error {
	const query = `
		INSERT INTO game_sessions
			(event_id, player_id, level, score, items_collected, completed, time_played_seconds, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(query, r.EventID, r.PlayerID, r.Level, r.Score, r.ItemsCollected, r.Completed, r.TimePlayedSeconds, r.RecordedAt)
	}

	results := w.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed: %w", err)
		}
	}

	w.logger.Debug("archived session batch", zap.Int("rows", len(rows)))
	return nil
}

// writeBatchCopy stages large batches through a temp table with COPY,
// then inserts past the event_id conflict guard in one statement
func (w *PGArchive) writeBatchCopy(ctx context.Context, rows []SessionRow) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "CREATE TEMP TABLE game_sessions_temp (LIKE game_sessions) ON COMMIT DROP")
	if err != nil {
		return fmt.Errorf("failed to create temp table: %w", err)
	}

	copyRows := make([][]interface{}, len(rows))
	for i, r := range rows {
		copyRows[i] = []interface{}{r.EventID, r.PlayerID, r.Level, r.Score, r.ItemsCollected, r.Completed, r.TimePlayedSeconds, r.RecordedAt}
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"game_sessions_temp"},
		[]string{"event_id", "player_id", "level", "score", "items_collected", "completed", "time_played_seconds", "recorded_at"},
		pgx.CopyFromRows(copyRows),
	)
	if err != nil {
		return fmt.Errorf("copy from failed: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO game_sessions SELECT * FROM game_sessions_temp
		ON CONFLICT (event_id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("insert from temp table failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.logger.Debug("archived session batch via copy", zap.Int("rows", len(rows)))
	return nil
}

// Close closes the pool
func (w *PGArchive) Close() error {
	w.pool.Close()
	return nil
}

// ShouldUseCopy is exported for testing protocol selection
func (w *PGArchive) ShouldUseCopy(rows []SessionRow) bool {
	return len(rows) >= copyThreshold
}
