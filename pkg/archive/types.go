package archive

import (
	"time"

	"gameapi/pkg/events"
)

// SessionRow is a session event flattened for the Postgres archive table.
// Rows are append-only and keyed by EventID, which makes re-consumption of
// the topic idempotent.
type SessionRow struct {
	EventID           string    `db:"event_id"`
	PlayerID          string    `db:"player_id"`
	Level             int       `db:"level"`
	Score             int64     `db:"score"`
	ItemsCollected    int64     `db:"items_collected"`
	Completed         bool      `db:"completed"`
	TimePlayedSeconds *int64    `db:"time_played_seconds"`
	RecordedAt        time.Time `db:"recorded_at"`
}

// RowFromEvent converts a parsed session event into its archive row
func RowFromEvent(evt events.SessionEvent) SessionRow {
	return SessionRow{
		EventID:           evt.EventID,
		PlayerID:          evt.PlayerID,
		Level:             evt.Level,
		Score:             evt.Score,
		ItemsCollected:    evt.ItemsCollected,
		Completed:         evt.Completed,
		TimePlayedSeconds: evt.TimePlayedSeconds,
		RecordedAt:        evt.RecordedAt,
	}
}
