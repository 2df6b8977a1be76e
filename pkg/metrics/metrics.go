package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gameapi_http_request_duration_seconds",
		Help:    "Latency of HTTP requests by route, method and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	ProgressSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gameapi_progress_saves_total",
		Help: "The total number of player progress upserts via the save endpoint",
	})
	SessionsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gameapi_sessions_recorded_total",
		Help: "The total number of game sessions merged into player progress",
	})
	PlayersResetTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gameapi_players_reset_total",
		Help: "The total number of player documents removed via the admin reset endpoint",
	})
	StoreErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gameapi_store_errors_total",
		Help: "The total number of document store operation failures",
	})

	// Query cache metrics
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gameapi_cache_hits_total",
		Help: "The total number of leaderboard/stats responses served from cache",
	})
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gameapi_cache_misses_total",
		Help: "The total number of leaderboard/stats queries that bypassed the cache",
	})

	// Session event feed metrics
	EventsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gameapi_session_events_published_total",
		Help: "The total number of session events published to Kafka",
	})
	EventPublishErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gameapi_session_event_publish_errors_total",
		Help: "The total number of errors occurred while publishing session events",
	})

	// Archiver metrics
	ArchiverEventsConsumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gameapi_archiver_events_consumed_total",
		Help: "The total number of session events consumed from Kafka",
	})
	ArchiverBatchWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gameapi_archiver_batch_writes_total",
		Help: "The total number of batch insert operations into the Postgres archive",
	})
	ArchiverWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gameapi_archiver_write_errors_total",
		Help: "The total number of errors occurred during Postgres archive writes",
	})
	ArchiverInsertLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gameapi_archiver_insert_latency_seconds",
		Help:    "Latency of Postgres archive batch inserts",
		Buckets: prometheus.DefBuckets,
	})
)
