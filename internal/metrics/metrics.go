package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versewise_http_requests_total",
		Help: "Total HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "versewise_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "versewise_http_rate_limited_total",
		Help: "Requests rejected by the per-client rate limiter",
	})
)

// Translation metrics
var (
	// TranslationRequestsTotal counts translate calls by where the answer came from
	// ("memory", "database", "provider", "passthrough")
	TranslationRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versewise_translation_requests_total",
		Help: "Translation requests by result source",
	}, []string{"source"})

	TranslationCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versewise_translation_cache_hits_total",
		Help: "Translation cache hits by tier",
	}, []string{"tier"})

	TranslationCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versewise_translation_cache_misses_total",
		Help: "Translation cache misses by tier",
	}, []string{"tier"})

	TranslationCacheWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versewise_translation_cache_writes_total",
		Help: "Translation cache writes by tier",
	}, []string{"tier"})

	TranslationCacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versewise_translation_cache_evictions_total",
		Help: "Transient cache evictions by reason (capacity, expired)",
	}, []string{"reason"})

	TranslationCacheEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "versewise_translation_cache_entries",
		Help: "Entries currently held per cache tier",
	}, []string{"tier"})

	TranslationRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "versewise_translation_retries_total",
		Help: "Orchestrator retries after provider chain failures",
	})

	TranslationEchoesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "versewise_translation_echoes_total",
		Help: "Provider responses rejected because they echoed the input",
	})

	TranslationQualityHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "versewise_translation_quality_score",
		Help:    "Quality scores reported by providers",
		Buckets: []float64{0.1, 0.3, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})
)

// Provider metrics
var (
	ProviderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versewise_provider_requests_total",
		Help: "Successful provider translations by provider",
	}, []string{"provider"})

	ProviderErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versewise_provider_errors_total",
		Help: "Provider errors by provider and kind",
	}, []string{"provider", "kind"})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "versewise_provider_latency_seconds",
		Help:    "Provider call latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"provider"})

	ProviderBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "versewise_provider_breaker_state",
		Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
	}, []string{"provider"})
)

// Reading metrics
var (
	ReadingHistoryEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "versewise_reading_history_entries",
		Help: "Entries in the reading history log",
	})

	ExercisesGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "versewise_exercises_generated_total",
		Help: "Vocabulary exercises generated by language",
	}, []string{"language"})
)
