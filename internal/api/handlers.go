package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"gameapi/internal/game"
	"gameapi/pkg/logger"
	"gameapi/pkg/store"
)

// maxBodySize caps request bodies at 1MB
const maxBodySize = 1 << 20

// Handler holds the HTTP endpoints for the game API
type Handler struct {
	game     *game.Service
	logger   *logger.Logger
	validate *validator.Validate
}

// NewHandler creates a new Handler instance
func NewHandler(svc *game.Service, l *logger.Logger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report validation failures against json field names, not Go ones
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{game: svc, logger: l, validate: v}
}

type saveGameDataRequest struct {
	PlayerID       string     `json:"player_id" validate:"required"`
	CurrentLevel   int        `json:"current_level" validate:"required,min=1"`
	MaxLevel       int        `json:"max_level" validate:"required,min=1"`
	TotalScore     int64      `json:"total_score" validate:"min=0"`
	ItemsCollected int64      `json:"items_collected" validate:"min=0"`
	GamesPlayed    int64      `json:"games_played" validate:"min=0"`
	LastPlayed     *time.Time `json:"last_played"`
}

type gameSessionRequest struct {
	PlayerID       string `json:"player_id" validate:"required"`
	Level          int    `json:"level" validate:"required,min=1"`
	Score          int64  `json:"score" validate:"min=0"`
	ItemsCollected int64  `json:"items_collected" validate:"min=0"`
	Completed      *bool  `json:"completed" validate:"required"`
	TimePlayed     *int64 `json:"time_played"` // seconds
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Root answers the API banner
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Game progress API is running!"})
}

// Health reports store reachability without ever failing the process
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.game.Healthy(r.Context()); err != nil {
		h.writeJSON(w, http.StatusOK, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

// Ready is the readiness probe
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// GetGameData returns a player's progress, or defaults for unknown players
func (h *Handler) GetGameData(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player_id")

	progress, err := h.game.Progress(r.Context(), playerID)
	if err != nil {
		h.writeServerError(w, r, fmt.Sprintf("Error retrieving game data: %v", err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, progress)
}

// SaveGameData upserts a player's full progress document
func (h *Handler) SaveGameData(w http.ResponseWriter, r *http.Request) {
	var req saveGameDataRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.game.SaveProgress(r.Context(), store.PlayerProgress{
		PlayerID:       req.PlayerID,
		CurrentLevel:   req.CurrentLevel,
		MaxLevel:       req.MaxLevel,
		TotalScore:     req.TotalScore,
		ItemsCollected: req.ItemsCollected,
		GamesPlayed:    req.GamesPlayed,
	})
	if err != nil {
		h.writeServerError(w, r, fmt.Sprintf("Error saving game data: %v", err), err)
		return
	}

	var upsertedID interface{}
	if res.UpsertedID != "" {
		upsertedID = res.UpsertedID
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"message":        "Game data saved successfully",
		"modified_count": res.ModifiedCount,
		"upserted_id":    upsertedID,
	})
}

// RecordGameSession merges a session report and returns the updated record
func (h *Handler) RecordGameSession(w http.ResponseWriter, r *http.Request) {
	var req gameSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := h.game.RecordSession(r.Context(), game.Session{
		PlayerID:   req.PlayerID,
		Level:      req.Level,
		Score:      req.Score,
		Items:      req.ItemsCollected,
		Completed:  *req.Completed,
		TimePlayed: req.TimePlayed,
	})
	if err != nil {
		h.writeServerError(w, r, fmt.Sprintf("Error recording game session: %v", err), err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      "Game session recorded successfully",
		"updated_data": updated,
	})
}

// Leaderboard returns the top players with sequential ranks
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := game.DefaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeValidationError(w, []fieldError{{Field: "limit", Message: "must be a positive integer"}})
			return
		}
		limit = parsed
	}

	result, err := h.game.Leaderboard(r.Context(), limit)
	if err != nil {
		h.writeServerError(w, r, fmt.Sprintf("Error retrieving leaderboard: %v", err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// PlayerRank returns a player's competition-style rank
func (h *Handler) PlayerRank(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player_id")

	result, err := h.game.PlayerRank(r.Context(), playerID)
	if err != nil {
		h.writeServerError(w, r, fmt.Sprintf("Error retrieving player rank: %v", err), err)
		return
	}
	if result == nil {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"rank":    nil,
			"message": "Player not found",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// Stats returns the collection-wide aggregates
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	result, err := h.game.Stats(r.Context())
	if err != nil {
		h.writeServerError(w, r, fmt.Sprintf("Error retrieving game statistics: %v", err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// ResetPlayer removes a player's document entirely
func (h *Handler) ResetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player_id")

	deleted, err := h.game.ResetPlayer(r.Context(), playerID)
	if err != nil {
		h.writeServerError(w, r, fmt.Sprintf("Error resetting player data: %v", err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       fmt.Sprintf("Player %s data reset successfully", playerID),
		"deleted_count": deleted,
	})
}

// decode parses and validates a request body, writing the field-level
// error response itself when the body is unusable
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeValidationError(w, []fieldError{{Field: "body", Message: "invalid JSON: " + err.Error()}})
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]fieldError, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, fieldError{
					Field:   fe.Field(),
					Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
				})
			}
			h.writeValidationError(w, details)
			return false
		}
		h.writeValidationError(w, []fieldError{{Field: "body", Message: err.Error()}})
		return false
	}

	return true
}

func (h *Handler) writeValidationError(w http.ResponseWriter, details []fieldError) {
	h.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"detail": details})
}

func (h *Handler) writeServerError(w http.ResponseWriter, r *http.Request, detail string, err error) {
	h.logger.Error("request failed", err,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	h.writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": detail})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", err)
	}
}
