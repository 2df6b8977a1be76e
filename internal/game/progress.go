package game

import (
	"time"

	"gameapi/pkg/store"
)

// Session is a single play attempt reported after the fact. Score and
// Items are deltas to accumulate, not totals.
type Session struct {
	PlayerID   string
	Level      int
	Score      int64
	Items      int64
	Completed  bool
	TimePlayed *int64 // seconds, optional
}

// MergeSession folds a session report into a player's stored progress and
// returns the replacement document.
//
// For a player with no prior record, current_level and max_level take the
// reported level only when the session was completed, otherwise both stay 1;
// the deltas become the initial totals and games_played starts at 1.
//
// For an existing player, current_level follows the reported level and
// max_level ratchets up to it only on completed sessions; the deltas are
// added to the running totals either way. games_played increments
// unconditionally, completed or not.
//
// last_played is stamped with now on every merge.
func MergeSession(prev *store.PlayerProgress, s Session, now time.Time) store.PlayerProgress {
	if prev == nil {
		level := 1
		if s.Completed {
			level = s.Level
		}
		return store.PlayerProgress{
			PlayerID:       s.PlayerID,
			CurrentLevel:   level,
			MaxLevel:       level,
			TotalScore:     s.Score,
			ItemsCollected: s.Items,
			GamesPlayed:    1,
			LastPlayed:     &now,
		}
	}

	next := *prev
	next.PlayerID = s.PlayerID
	if s.Completed {
		next.CurrentLevel = s.Level
		if s.Level > next.MaxLevel {
			next.MaxLevel = s.Level
		}
	}
	next.TotalScore += s.Score
	next.ItemsCollected += s.Items
	next.GamesPlayed++
	next.LastPlayed = &now
	return next
}
