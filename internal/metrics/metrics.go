package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Conversion pipeline metrics
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversions_total",
			Help: "Total number of conversion requests by outcome",
		},
		[]string{"status"}, // status: success, success_cached, failed, timeout, rate_limited, rejected
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conversion_duration_seconds",
			Help:    "Duration of conversion requests in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"status"},
	)

	ConversionInputBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conversion_input_bytes",
			Help:    "Size of conversion inputs in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
	)

	// Render worker pool metrics
	RenderPoolBusyWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "render_pool_busy_workers",
			Help: "Number of render workers currently executing a job",
		},
	)

	RenderPoolAbandonedWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "render_pool_abandoned_waits_total",
			Help: "Total number of render waits abandoned at the deadline while work continued",
		},
	)

	RenderEngineRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "render_engine_requests_total",
			Help: "Total number of calls to the external render engine",
		},
		[]string{"status"}, // status: success, error, retry
	)

	// Artifact cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artifact_cache_hits_total",
			Help: "Total number of artifact cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artifact_cache_misses_total",
			Help: "Total number of artifact cache misses",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artifact_cache_evictions_total",
			Help: "Total number of artifact cache evictions",
		},
	)

	CacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "artifact_cache_size_bytes",
			Help: "Aggregate size of cached artifacts in bytes",
		},
	)

	CacheItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "artifact_cache_items",
			Help: "Current number of entries in the artifact cache",
		},
	)

	// Rate limiter metrics
	RateLimitRefusals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_refusals_total",
			Help: "Total number of refused requests by limiter scope",
		},
		[]string{"scope"}, // scope: global, client
	)

	RateLimitClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limit_tracked_clients",
			Help: "Number of clients currently tracked by the sliding-window limiter",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"component"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_trips_total",
			Help: "Total number of circuit breaker trips",
		},
		[]string{"component"},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent to clients",
		},
	)

	// Process/system gauges fed by the sampler
	ProcessCPUPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_cpu_percent",
			Help: "Process CPU utilization percent from the last sample",
		},
	)

	ProcessMemoryBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_memory_rss_bytes",
			Help: "Process resident memory from the last sample",
		},
	)

	ProcessThreads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_threads",
			Help: "Process thread count from the last sample",
		},
	)

	NetworkBytesSentPerSec = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "network_bytes_sent_per_second",
			Help: "Network send rate derived from the last sampling interval",
		},
	)

	NetworkBytesRecvPerSec = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "network_bytes_recv_per_second",
			Help: "Network receive rate derived from the last sampling interval",
		},
	)

	DiskReadBytesPerSec = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "disk_read_bytes_per_second",
			Help: "Disk read rate derived from the last sampling interval",
		},
	)

	DiskWriteBytesPerSec = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "disk_write_bytes_per_second",
			Help: "Disk write rate derived from the last sampling interval",
		},
	)

	// HTTP surface metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 30},
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method", "status"},
	)
)
