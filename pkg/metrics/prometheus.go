// Package metrics provides Prometheus metrics for the prompt game service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Podium
	podiumComputations     prometheus.Counter
	podiumDuration         prometheus.Histogram
	podiumValidationErrors prometheus.Counter
	podiumTierSize         *prometheus.GaugeVec
	podiumSnapshotSize     prometheus.Gauge

	// Accounts and prompts
	playersTotal       prometheus.Gauge
	playerOperations   *prometheus.CounterVec
	promptsCreated     prometheus.Counter
	promptsDeleted     prometheus.Counter
	translationLatency *prometheus.HistogramVec
	suggestionLatency  prometheus.Histogram
	suggestionRejected prometheus.Counter

	// Store
	storeLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "quipodium",
		subsystem:        "game",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// RefreshInterval is how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RefreshInterval returns the refresh interval of the global manager.
func RefreshInterval() time.Duration { return globalManager.refreshInterval }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels, Buckets: buckets,
		})
	}
	counterVec := func(name, help string, lv ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, lv)
	}
	gaugeVec := func(name, help string, lv ...string) *prometheus.GaugeVec {
		return auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, lv)
	}
	histogramVec := func(name, help string, lv ...string) *prometheus.HistogramVec {
		return auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels, Buckets: m.histogramBuckets,
		}, lv)
	}

	m.podiumComputations = counter("podium_computations_total", "Total number of podium computations")
	m.podiumDuration = histogram("podium_duration_milliseconds", "Podium computation time in milliseconds, snapshot read included", m.histogramBuckets)
	m.podiumValidationErrors = counter("podium_validation_errors_total", "Podium computations rejected because of a malformed snapshot")
	m.podiumTierSize = gaugeVec("podium_tier_size", "Number of players in each tier of the last podium", "tier")
	m.podiumSnapshotSize = gauge("podium_snapshot_players", "Number of players in the last ranked snapshot")

	m.playersTotal = gauge("players_total", "Number of registered players")
	m.playerOperations = counterVec("player_operations_total", "Player operations by kind and outcome", "operation", "outcome")
	m.promptsCreated = counter("prompts_created_total", "Prompts stored")
	m.promptsDeleted = counter("prompts_deleted_total", "Prompts deleted")
	m.translationLatency = histogramVec("translation_latency_milliseconds", "Translator call latency in milliseconds", "call")
	m.suggestionLatency = histogram("suggestion_latency_milliseconds", "Suggester call latency in milliseconds", m.histogramBuckets)
	m.suggestionRejected = counter("suggestion_rejected_total", "Generated suggestions rejected by validation")

	m.storeLatency = histogramVec("store_latency_milliseconds", "Store operation latency in milliseconds", "backend", "operation")

	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")
	m.errorLatency = histogramVec("error_latency_milliseconds", "Latency of operations that ended in an error", "component", "error_type")

	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "Allocated heap memory in bytes")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordPodiumComputed records a successful podium computation.
func RecordPodiumComputed(durationMs float64, snapshotSize, gold, silver, bronze int) {
	globalManager.podiumComputations.Inc()
	globalManager.podiumDuration.Observe(durationMs)
	globalManager.podiumSnapshotSize.Set(float64(snapshotSize))
	globalManager.podiumTierSize.WithLabelValues("gold").Set(float64(gold))
	globalManager.podiumTierSize.WithLabelValues("silver").Set(float64(silver))
	globalManager.podiumTierSize.WithLabelValues("bronze").Set(float64(bronze))
}

// RecordPodiumValidationError counts a rejected snapshot.
func RecordPodiumValidationError() {
	globalManager.podiumValidationErrors.Inc()
}

// UpdatePlayersTotal sets the registered players gauge.
func UpdatePlayersTotal(count int) {
	globalManager.playersTotal.Set(float64(count))
}

// RecordPlayerOperation counts a player operation by outcome (ok, rejected, error).
func RecordPlayerOperation(operation, outcome string) {
	globalManager.playerOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordPromptsCreated increments the created prompts counter.
func RecordPromptsCreated(n int) {
	globalManager.promptsCreated.Add(float64(n))
}

// RecordPromptsDeleted increments the deleted prompts counter.
func RecordPromptsDeleted(n int) {
	globalManager.promptsDeleted.Add(float64(n))
}

// RecordTranslationLatency records a translator call (detect or translate).
func RecordTranslationLatency(call string, latencyMs float64) {
	globalManager.translationLatency.WithLabelValues(call).Observe(latencyMs)
}

// RecordSuggestionLatency records a suggester call.
func RecordSuggestionLatency(latencyMs float64) {
	globalManager.suggestionLatency.Observe(latencyMs)
}

// RecordSuggestionRejected counts a generated text that failed validation.
func RecordSuggestionRejected() {
	globalManager.suggestionRejected.Inc()
}

// RecordStoreLatency records a store operation.
func RecordStoreLatency(backend, operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(backend, operation).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
