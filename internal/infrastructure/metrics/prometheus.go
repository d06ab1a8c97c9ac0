// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "videocatalog"

var (
	// CacheOperationsTotal tracks cache operations (get, set, delete).
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success, error
	//   - cache_type: redis
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// DBQueriesTotal tracks database queries.
	// Labels:
	//   - query_type: select, insert, update, delete
	//   - table: videos, videos_categories, ...
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_total",
			Help:      "Total number of database queries",
		},
		[]string{"query_type", "table"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)

	// StorageOperationsTotal tracks object storage calls.
	// Labels:
	//   - operation: upload, download, stat, list, delete
	//   - status: success, error
	//   - driver: minio, s3
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operations_total",
			Help:      "Total number of object storage operations",
		},
		[]string{"operation", "status", "driver"},
	)

	// EventsPublishedTotal tracks domain event publication.
	// Labels:
	//   - event_type: VideoMediaCreated
	//   - status: success, error
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of domain events handed to the publisher",
		},
		[]string{"event_type", "status"},
	)

	// EncoderResultsTotal tracks encoder results consumed by the worker.
	// Labels:
	//   - status: COMPLETED, ERROR, unknown
	//   - outcome: applied, retried, dropped
	EncoderResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encoder_results_total",
			Help:      "Total number of encoder results consumed",
		},
		[]string{"status", "outcome"},
	)

	// HTTPRequestsTotal tracks served HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks HTTP latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Cache type constants.
const (
	CacheTypeRedis = "redis"
)

// DB query type constants.
const (
	DBQuerySelect = "select"
	DBQueryInsert = "insert"
	DBQueryUpdate = "update"
	DBQueryDelete = "delete"
)

// Table name constants.
const (
	TableVideos           = "videos"
	TableVideoCategories  = "videos_categories"
	TableVideoGenres      = "videos_genres"
	TableVideoCastMembers = "videos_cast_members"
	TableVideoMedia       = "videos_video_media"
	TableImageMedia       = "videos_image_media"
	TableCategories       = "categories"
	TableGenres           = "genres"
	TableCastMembers      = "cast_members"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)

// Storage operation constants.
const (
	StorageOpUpload   = "upload"
	StorageOpDownload = "download"
	StorageOpStat     = "stat"
	StorageOpList     = "list"
	StorageOpDelete   = "delete"

	StatusSuccess = "success"
	StatusError   = "error"
)

// Encoder result outcome constants.
const (
	EncoderOutcomeApplied = "applied"
	EncoderOutcomeRetried = "retried"
	EncoderOutcomeDropped = "dropped"
)
