package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	RefreshTriggerRequest   = "request"
	RefreshTriggerScheduled = "scheduled"
	RefreshTriggerWarmup    = "warmup"
)

var (
	// Pool client metrics
	PoolClientCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dlmm_gateway_pool_clients",
		Help: "Number of pool clients held by the registry",
	})

	PoolClientCreations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlmm_gateway_pool_client_creations_total",
			Help: "Pool client creation attempts by outcome",
		},
		[]string{"status"},
	)

	PoolClientEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dlmm_gateway_pool_client_evictions_total",
		Help: "Pool clients evicted to respect the registry bound",
	})

	PoolRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlmm_gateway_pool_refreshes_total",
			Help: "Pool refreshes by trigger and outcome",
		},
		[]string{"trigger", "status"},
	)

	PoolRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dlmm_gateway_pool_refresh_duration_seconds",
		Help:    "Duration of a single pool refresh including the remote fetch",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlmm_gateway_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"swap_mode", "status"},
	)

	QuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dlmm_gateway_quote_duration_seconds",
		Help:    "Quote computation duration in seconds, refresh excluded",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05},
	})

	// Simulation metrics
	SimulationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlmm_gateway_simulation_requests_total",
			Help: "Swap simulations by result status",
		},
		[]string{"status"},
	)

	SimulationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlmm_gateway_simulation_failures_total",
			Help: "Failed simulations by classified reason",
		},
		[]string{"reason"},
	)

	ComputeUnitsConsumed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dlmm_gateway_compute_units_consumed",
		Help:    "Compute units consumed by simulated swaps",
		Buckets: []float64{10000, 25000, 50000, 75000, 100000, 150000, 200000, 400000},
	})

	// Token metadata metrics
	TokenMetaCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dlmm_gateway_token_meta_cache_hits_total",
		Help: "Token metadata lookups served from cache",
	})

	TokenMetaCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dlmm_gateway_token_meta_cache_misses_total",
		Help: "Token metadata lookups that went to the ledger",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlmm_gateway_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dlmm_gateway_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dlmm_gateway_rate_limited_total",
		Help: "Requests rejected by the per-IP rate limiter",
	})
)
