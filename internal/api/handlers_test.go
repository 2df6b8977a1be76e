package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gameapi/internal/game"
	"gameapi/pkg/cache"
	"gameapi/pkg/logger"
	"gameapi/pkg/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	l, err := logger.New(logger.Config{Level: "error", ServiceName: "test"})
	require.NoError(t, err)
	svc := game.NewService(l, store.NewMemoryStore(), cache.Disabled{}, nil, time.Minute)
	return newRouter(NewHandler(svc, l), l)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
}

func TestGetGameDataDefaults(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/game-data/newcomer", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var p store.PlayerProgress
	decodeBody(t, rec, &p)
	assert.Equal(t, "newcomer", p.PlayerID)
	assert.Equal(t, 1, p.CurrentLevel)
	assert.Equal(t, 1, p.MaxLevel)
	assert.Equal(t, int64(0), p.TotalScore)
	assert.Nil(t, p.LastPlayed)
}

func TestSaveGameDataAndReadBack(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/game-data", map[string]interface{}{
		"player_id":       "p1",
		"current_level":   3,
		"max_level":       3,
		"total_score":     150,
		"items_collected": 25,
		"games_played":    5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var saveResp struct {
		Success    bool        `json:"success"`
		Message    string      `json:"message"`
		UpsertedID interface{} `json:"upserted_id"`
	}
	decodeBody(t, rec, &saveResp)
	assert.True(t, saveResp.Success)
	assert.NotNil(t, saveResp.UpsertedID)

	rec = doJSON(t, router, http.MethodGet, "/api/game-data/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var p store.PlayerProgress
	decodeBody(t, rec, &p)
	assert.Equal(t, 3, p.CurrentLevel)
	assert.Equal(t, int64(150), p.TotalScore)
	assert.Equal(t, int64(25), p.ItemsCollected)
	assert.Equal(t, int64(5), p.GamesPlayed)
	assert.NotNil(t, p.LastPlayed)
}

func TestSaveGameDataValidation(t *testing.T) {
	router := newTestRouter(t)

	t.Run("missing player_id", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/game-data", map[string]interface{}{
			"current_level": 1,
			"max_level":     1,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body struct {
			Detail []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
			} `json:"detail"`
		}
		decodeBody(t, rec, &body)
		require.NotEmpty(t, body.Detail)
		assert.Equal(t, "player_id", body.Detail[0].Field)
	})

	t.Run("negative score", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/game-data", map[string]interface{}{
			"player_id":     "p1",
			"current_level": 1,
			"max_level":     1,
			"total_score":   -5,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/game-data", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestRecordGameSessionFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/game-session", map[string]interface{}{
		"player_id":       "p1",
		"level":           5,
		"score":           100,
		"items_collected": 7,
		"completed":       true,
		"time_played":     90,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success     bool                 `json:"success"`
		UpdatedData store.PlayerProgress `json:"updated_data"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, 5, resp.UpdatedData.CurrentLevel)
	assert.Equal(t, 5, resp.UpdatedData.MaxLevel)
	assert.Equal(t, int64(1), resp.UpdatedData.GamesPlayed)

	// Incomplete follow-up only moves counters
	rec = doJSON(t, router, http.MethodPost, "/api/game-session", map[string]interface{}{
		"player_id":       "p1",
		"level":           8,
		"score":           30,
		"items_collected": 1,
		"completed":       false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	decodeBody(t, rec, &resp)
	assert.Equal(t, 5, resp.UpdatedData.CurrentLevel)
	assert.Equal(t, 5, resp.UpdatedData.MaxLevel)
	assert.Equal(t, int64(130), resp.UpdatedData.TotalScore)
	assert.Equal(t, int64(2), resp.UpdatedData.GamesPlayed)
}

func TestRecordGameSessionRequiresCompletedFlag(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/game-session", map[string]interface{}{
		"player_id": "p1",
		"level":     2,
		"score":     10,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLeaderboardEndpoint(t *testing.T) {
	router := newTestRouter(t)

	players := []map[string]interface{}{
		{"player_id": "a", "current_level": 4, "max_level": 4, "total_score": 10},
		{"player_id": "b", "current_level": 4, "max_level": 4, "total_score": 90},
		{"player_id": "c", "current_level": 2, "max_level": 2, "total_score": 500},
	}
	for _, p := range players {
		rec := doJSON(t, router, http.MethodPost, "/api/game-data", p)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/leaderboard?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result game.LeaderboardResult
	decodeBody(t, rec, &result)
	assert.Equal(t, int64(3), result.TotalPlayers)
	require.Len(t, result.Leaderboard, 2)
	assert.Equal(t, "b", result.Leaderboard[0].PlayerID)
	assert.Equal(t, 1, result.Leaderboard[0].Rank)
	assert.Equal(t, "a", result.Leaderboard[1].PlayerID)
	assert.Equal(t, 2, result.Leaderboard[1].Rank)

	t.Run("invalid limit", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/leaderboard?limit=zero", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestPlayerRankEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/game-data", map[string]interface{}{
		"player_id": "solo", "current_level": 6, "max_level": 6, "total_score": 40,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/player-rank/solo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result game.RankResult
	decodeBody(t, rec, &result)
	assert.Equal(t, int64(1), result.Rank)
	assert.Equal(t, int64(1), result.TotalPlayers)
	assert.Equal(t, "solo", result.PlayerData.PlayerID)

	t.Run("unknown player", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/player-rank/ghost", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		decodeBody(t, rec, &body)
		assert.Nil(t, body["rank"])
		assert.Equal(t, "Player not found", body["message"])
	})
}

func TestStatsEndpointEmpty(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats game.StatsResult
	decodeBody(t, rec, &stats)
	assert.Equal(t, int64(0), stats.TotalPlayers)
	assert.Equal(t, 1, stats.MaxLevelReached)
	assert.Equal(t, float64(0), stats.AverageScorePerPlayer)
}

func TestResetPlayerEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/game-data", map[string]interface{}{
		"player_id": "p1", "current_level": 2, "max_level": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/admin/reset-player/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success      bool  `json:"success"`
		DeletedCount int64 `json:"deleted_count"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(1), resp.DeletedCount)

	t.Run("nonexistent player deletes nothing", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodDelete, "/api/admin/reset-player/ghost", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		decodeBody(t, rec, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, int64(0), resp.DeletedCount)

		// Still serves defaults afterwards
		rec = doJSON(t, router, http.MethodGet, "/api/game-data/ghost", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var p store.PlayerProgress
		decodeBody(t, rec, &p)
		assert.Equal(t, 1, p.CurrentLevel)
	})
}

func TestRootBanner(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Contains(t, body["message"], "running")
}
