package store

import (
	"context"
	"time"
)

// PlayerProgress is the per-player document, keyed by PlayerID.
// The collection holds at most one document per player; all writes
// go through upserts filtered on player_id.
type PlayerProgress struct {
	PlayerID       string     `bson:"player_id" json:"player_id"`
	CurrentLevel   int        `bson:"current_level" json:"current_level"`
	MaxLevel       int        `bson:"max_level" json:"max_level"`
	TotalScore     int64      `bson:"total_score" json:"total_score"`
	ItemsCollected int64      `bson:"items_collected" json:"items_collected"`
	GamesPlayed    int64      `bson:"games_played" json:"games_played"`
	LastPlayed     *time.Time `bson:"last_played" json:"last_played"`
}

// Default returns the record served for a player that has never been written.
// It is synthesized on read and never persisted.
func Default(playerID string) PlayerProgress {
	return PlayerProgress{
		PlayerID:     playerID,
		CurrentLevel: 1,
		MaxLevel:     1,
	}
}

// UpsertResult reports what an upsert did to the collection
type UpsertResult struct {
	MatchedCount  int64
	ModifiedCount int64
	// UpsertedID is the hex id of the newly created document, empty on replace
	UpsertedID string
}

// Totals holds the collection-wide aggregation used by the stats query
type Totals struct {
	TotalScore     int64 `bson:"total_score"`
	ItemsCollected int64 `bson:"total_items_collected"`
	GamesPlayed    int64 `bson:"total_games_played"`
	MaxLevel       int   `bson:"max_level_reached"`
}

// Store defines the operations the service needs from the document store.
// Implementations must treat player_id as the unique document key.
type Store interface {
	// Get returns the stored progress for a player, or (nil, nil) when no
	// document exists. Storage failures propagate as errors.
	Get(ctx context.Context, playerID string) (*PlayerProgress, error)

	// Upsert replaces (or creates) the full document for p.PlayerID.
	// Last write wins.
	Upsert(ctx context.Context, p PlayerProgress) (UpsertResult, error)

	// Delete removes the player's document if present and returns the
	// number of documents removed (0 or 1).
	Delete(ctx context.Context, playerID string) (int64, error)

	// Count returns the total number of player documents.
	Count(ctx context.Context) (int64, error)

	// TopPlayers returns up to limit players ordered by max_level descending,
	// ties broken by total_score descending.
	TopPlayers(ctx context.Context, limit int) ([]PlayerProgress, error)

	// CountOutranking counts players whose max_level is strictly greater than
	// maxLevel, or whose max_level equals maxLevel with a strictly greater
	// total_score.
	CountOutranking(ctx context.Context, maxLevel int, totalScore int64) (int64, error)

	// Totals aggregates sums and the level maximum over all documents.
	// The boolean is false when the collection is empty.
	Totals(ctx context.Context) (Totals, bool, error)

	// Ping reports store reachability for health checks.
	Ping(ctx context.Context) error
}
