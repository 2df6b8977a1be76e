package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gameapi/pkg/logger"
	"gameapi/pkg/metrics"
)

// Server serves the game API plus the observability endpoints
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

// NewServer wires the router and creates the HTTP server
func NewServer(addr string, h *Handler, l *logger.Logger) *Server {
	s := &Server{logger: l}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: newRouter(h, l),
	}
	return s
}

func newRouter(h *Handler, l *logger.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))
	r.Use(instrument(l))

	r.Route("/api", func(r chi.Router) {
		r.Get("/", h.Root)
		r.Get("/health", h.Health)
		r.Get("/game-data/{player_id}", h.GetGameData)
		r.Post("/game-data", h.SaveGameData)
		r.Post("/game-session", h.RecordGameSession)
		r.Get("/leaderboard", h.Leaderboard)
		r.Get("/player-rank/{player_id}", h.PlayerRank)
		r.Get("/stats", h.Stats)
		r.Delete("/admin/reset-player/{player_id}", h.ResetPlayer)
	})

	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// instrument records a latency sample per request and logs completions
func instrument(l *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			elapsed := time.Since(start)

			metrics.HTTPRequestDuration.
				WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
				Observe(elapsed.Seconds())

			l.Debug("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("elapsed", elapsed),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Start runs the HTTP server until Shutdown
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
