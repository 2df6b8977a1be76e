package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// SessionEvent is the message published for every recorded game session.
// It carries the session deltas as reported, not the merged progress;
// consumers that need running totals read the store instead.
type SessionEvent struct {
	EventID           string    `json:"event_id"`
	PlayerID          string    `json:"player_id"`
	Level             int       `json:"level"`
	Score             int64     `json:"score"`
	ItemsCollected    int64     `json:"items_collected"`
	Completed         bool      `json:"completed"`
	TimePlayedSeconds *int64    `json:"time_played_seconds,omitempty"`
	RecordedAt        time.Time `json:"recorded_at"`
}

// ParseSessionEvent deserializes a Kafka message value into a SessionEvent
func ParseSessionEvent(data []byte) (SessionEvent, error) {
	var evt SessionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return SessionEvent{}, fmt.Errorf("failed to unmarshal session event: %w", err)
	}

	if evt.EventID == "" {
		return SessionEvent{}, fmt.Errorf("missing event id")
	}
	if evt.PlayerID == "" {
		return SessionEvent{}, fmt.Errorf("missing player id")
	}

	return evt, nil
}
