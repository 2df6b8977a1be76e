package game

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gameapi/pkg/cache"
	"gameapi/pkg/events"
	"gameapi/pkg/logger"
	"gameapi/pkg/metrics"
	"gameapi/pkg/store"
)

// DefaultLeaderboardLimit is the page size when the caller does not ask
// for one.
const DefaultLeaderboardLimit = 10

const statsCacheKey = "stats"

// LeaderboardEntry is one row of the ranked list. Rank is the entry's
// 1-based position in the sorted page; tied players still receive
// distinct consecutive ranks.
type LeaderboardEntry struct {
	Rank           int        `json:"rank"`
	PlayerID       string     `json:"player_id"`
	MaxLevel       int        `json:"max_level"`
	TotalScore     int64      `json:"total_score"`
	ItemsCollected int64      `json:"items_collected"`
	GamesPlayed    int64      `json:"games_played"`
	LastPlayed     *time.Time `json:"last_played"`
}

// LeaderboardResult is the leaderboard page plus the collection size
type LeaderboardResult struct {
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
	TotalPlayers int64              `json:"total_players"`
}

// RankPlayerData is the standing echoed back with a player's rank
type RankPlayerData struct {
	PlayerID       string `json:"player_id"`
	MaxLevel       int    `json:"max_level"`
	TotalScore     int64  `json:"total_score"`
	ItemsCollected int64  `json:"items_collected"`
	GamesPlayed    int64  `json:"games_played"`
}

// RankResult is a player's competition-style rank: 1 plus the number of
// players strictly ahead. Tied players share the same value, which is
// deliberately not the same numbering the leaderboard page shows.
type RankResult struct {
	Rank         int64          `json:"rank"`
	TotalPlayers int64          `json:"total_players"`
	PlayerData   RankPlayerData `json:"player_data"`
}

// StatsResult aggregates the whole collection
type StatsResult struct {
	TotalPlayers          int64   `json:"total_players"`
	TotalScore            int64   `json:"total_score"`
	TotalItemsCollected   int64   `json:"total_items_collected"`
	TotalGamesPlayed      int64   `json:"total_games_played"`
	MaxLevelReached       int     `json:"max_level_reached"`
	AverageScorePerPlayer float64 `json:"average_score_per_player"`
}

// Service answers every player-progress operation. It is stateless between
// calls; all state lives in the store, with the cache and event feed as
// optional side channels.
type Service struct {
	logger   *logger.Logger
	store    store.Store
	cache    cache.Cache
	events   events.Publisher // nil when the feed is disabled
	cacheTTL time.Duration
}

// NewService creates a new Service instance. pub may be nil.
func NewService(l *logger.Logger, st store.Store, c cache.Cache, pub events.Publisher, cacheTTL time.Duration) *Service {
	return &Service{
		logger:   l,
		store:    st,
		cache:    c,
		events:   pub,
		cacheTTL: cacheTTL,
	}
}

// Progress returns the stored progress for a player, or the default record
// when the player has never been written
func (s *Service) Progress(ctx context.Context, playerID string) (store.PlayerProgress, error) {
	p, err := s.store.Get(ctx, playerID)
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return store.PlayerProgress{}, err
	}
	if p == nil {
		return store.Default(playerID), nil
	}
	return *p, nil
}

// SaveProgress replaces the player's full document, stamping last_played
// server-side regardless of what the caller sent
func (s *Service) SaveProgress(ctx context.Context, p store.PlayerProgress) (store.UpsertResult, error) {
	now := time.Now().UTC()
	p.LastPlayed = &now

	res, err := s.store.Upsert(ctx, p)
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return store.UpsertResult{}, err
	}
	metrics.ProgressSavesTotal.Inc()
	return res, nil
}

// RecordSession merges a session report into the player's progress and
// returns the resulting record. When the event feed is enabled the session
// is also published asynchronously; a publish failure never fails the call.
func (s *Service) RecordSession(ctx context.Context, sess Session) (store.PlayerProgress, error) {
	prev, err := s.store.Get(ctx, sess.PlayerID)
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return store.PlayerProgress{}, err
	}

	now := time.Now().UTC()
	merged := MergeSession(prev, sess, now)

	if _, err := s.store.Upsert(ctx, merged); err != nil {
		metrics.StoreErrorsTotal.Inc()
		return store.PlayerProgress{}, err
	}
	metrics.SessionsRecordedTotal.Inc()

	if s.events != nil {
		s.publishSession(sess, now)
	}

	return merged, nil
}

func (s *Service) publishSession(sess Session, recordedAt time.Time) {
	evt := events.SessionEvent{
		EventID:           uuid.NewString(),
		PlayerID:          sess.PlayerID,
		Level:             sess.Level,
		Score:             sess.Score,
		ItemsCollected:    sess.Items,
		Completed:         sess.Completed,
		TimePlayedSeconds: sess.TimePlayed,
		RecordedAt:        recordedAt,
	}

	data, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("failed to encode session event", err, zap.String("player_id", sess.PlayerID))
		return
	}

	// Detached from the request context: the response must not wait on Kafka.
	resultChan := s.events.PublishAsync(context.Background(), []byte(evt.PlayerID), data)
	go func() {
		if result := <-resultChan; result.Error != nil {
			metrics.EventPublishErrorsTotal.Inc()
			s.logger.Error("failed to publish session event", result.Error, zap.String("event_id", evt.EventID))
			return
		}
		metrics.EventsPublishedTotal.Inc()
	}()
}

// Leaderboard returns the top limit players with sequential ranks and the
// total player count
func (s *Service) Leaderboard(ctx context.Context, limit int) (LeaderboardResult, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	key := fmt.Sprintf("leaderboard:%d", limit)
	var result LeaderboardResult
	if s.cacheGet(ctx, key, &result) {
		return result, nil
	}

	players, err := s.store.TopPlayers(ctx, limit)
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return LeaderboardResult{}, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return LeaderboardResult{}, err
	}

	entries := make([]LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = LeaderboardEntry{
			Rank:           i + 1,
			PlayerID:       p.PlayerID,
			MaxLevel:       p.MaxLevel,
			TotalScore:     p.TotalScore,
			ItemsCollected: p.ItemsCollected,
			GamesPlayed:    p.GamesPlayed,
			LastPlayed:     p.LastPlayed,
		}
	}

	result = LeaderboardResult{Leaderboard: entries, TotalPlayers: total}
	s.cacheSet(ctx, key, result)
	return result, nil
}

// PlayerRank returns the player's competition-style rank, or nil when the
// player has no stored progress
func (s *Service) PlayerRank(ctx context.Context, playerID string) (*RankResult, error) {
	p, err := s.store.Get(ctx, playerID)
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	better, err := s.store.CountOutranking(ctx, p.MaxLevel, p.TotalScore)
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return nil, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return nil, err
	}

	return &RankResult{
		Rank:         better + 1,
		TotalPlayers: total,
		PlayerData: RankPlayerData{
			PlayerID:       p.PlayerID,
			MaxLevel:       p.MaxLevel,
			TotalScore:     p.TotalScore,
			ItemsCollected: p.ItemsCollected,
			GamesPlayed:    p.GamesPlayed,
		},
	}, nil
}

// Stats aggregates the whole collection. An empty collection yields zeros
// with max_level_reached 1 and an average of 0.
func (s *Service) Stats(ctx context.Context) (StatsResult, error) {
	var result StatsResult
	if s.cacheGet(ctx, statsCacheKey, &result) {
		return result, nil
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return StatsResult{}, err
	}

	totals, found, err := s.store.Totals(ctx)
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return StatsResult{}, err
	}

	if !found {
		result = StatsResult{MaxLevelReached: 1}
	} else {
		divisor := total
		if divisor < 1 {
			divisor = 1
		}
		result = StatsResult{
			TotalPlayers:          total,
			TotalScore:            totals.TotalScore,
			TotalItemsCollected:   totals.ItemsCollected,
			TotalGamesPlayed:      totals.GamesPlayed,
			MaxLevelReached:       totals.MaxLevel,
			AverageScorePerPlayer: float64(totals.TotalScore) / float64(divisor),
		}
	}

	s.cacheSet(ctx, statsCacheKey, result)
	return result, nil
}

// ResetPlayer removes the player's document and reports how many were
// removed. Resetting an unknown player is not an error.
func (s *Service) ResetPlayer(ctx context.Context, playerID string) (int64, error) {
	deleted, err := s.store.Delete(ctx, playerID)
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return 0, err
	}
	if deleted > 0 {
		metrics.PlayersResetTotal.Inc()
	}
	return deleted, nil
}

// Healthy reports store reachability
func (s *Service) Healthy(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// cacheGet fills dst from the cache and reports a hit. Cache failures are
// logged and treated as misses; the store stays the source of truth.
func (s *Service) cacheGet(ctx context.Context, key string, dst interface{}) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if data == nil {
		metrics.CacheMissesTotal.Inc()
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	metrics.CacheHitsTotal.Inc()
	return true
}

func (s *Service) cacheSet(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
