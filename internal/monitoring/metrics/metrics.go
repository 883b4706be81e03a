package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vietddude/renderwatch/internal/core/domain"
)

var (
	// RenderAttemptsTotal tracks ingested attempts per method and outcome
	RenderAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderwatch_render_attempts_total",
			Help: "Total number of rendering attempts ingested",
		},
		[]string{"method", "outcome"},
	)

	// RenderErrorsTotal tracks error events per type and stage
	RenderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderwatch_render_errors_total",
			Help: "Total number of rendering error events",
		},
		[]string{"error_type", "stage"},
	)

	// RenderDuration tracks measured render time
	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "renderwatch_render_duration_seconds",
			Help:    "Measured render time in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method"},
	)

	// SuccessRate is the rolling-window success rate (0-100)
	SuccessRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "renderwatch_success_rate_percent",
		Help: "Rolling-window rendering success rate",
	})

	// AverageRenderTime is the rolling-window mean render time
	AverageRenderTime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "renderwatch_average_render_time_ms",
		Help: "Rolling-window average render time in milliseconds",
	})

	// AverageMemory is the rolling-window mean memory estimate
	AverageMemory = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "renderwatch_average_memory_mb",
		Help: "Rolling-window average memory estimate in megabytes",
	})

	// MethodSuccessRate is the rolling-window success rate per method
	MethodSuccessRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "renderwatch_method_success_rate_percent",
			Help: "Rolling-window success rate per rendering method",
		},
		[]string{"method"},
	)

	// AlertsTotal tracks created alerts
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderwatch_alerts_total",
			Help: "Total number of alerts created",
		},
		[]string{"type", "severity"},
	)

	// AlertsSuppressed tracks alerts dropped by deduplication
	AlertsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderwatch_alerts_suppressed_total",
			Help: "Total number of alerts suppressed as duplicates",
		},
		[]string{"type"},
	)

	// AlertDeliveryFailures tracks failed webhook deliveries
	AlertDeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "renderwatch_alert_delivery_failures_total",
		Help: "Total number of failed alert deliveries",
	})

	// FallbackDecisionsTotal tracks fallback decisions
	FallbackDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderwatch_fallback_decisions_total",
			Help: "Total number of fallback decisions",
		},
		[]string{"method", "reason"},
	)

	// ExportsTotal tracks diagnostics exports per destination
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderwatch_exports_total",
			Help: "Total number of diagnostics exports",
		},
		[]string{"format", "destination", "result"},
	)
)

// ObserveRecord mirrors one ingested record into the counters.
func ObserveRecord(rec *domain.DiagnosticRecord) {
	outcome := "success"
	if !rec.Succeeded() {
		outcome = "failure"
	}
	RenderAttemptsTotal.WithLabelValues(methodLabel(rec.Method), outcome).Inc()

	for _, e := range rec.Errors {
		RenderErrorsTotal.WithLabelValues(typeLabel(e.Type), stageLabel(e.Stage)).Inc()
	}
	if rt := rec.Performance.RenderTime; rt != nil {
		RenderDuration.WithLabelValues(methodLabel(rec.Method)).Observe(rt.Seconds())
	}
}

// Label values are limited to the closed enumerations.

func methodLabel(m domain.RenderMethod) string {
	if !m.Valid() {
		return "unknown"
	}
	return string(m)
}

func typeLabel(t domain.ErrorType) string {
	if !t.Valid() {
		return string(domain.ErrorTypeUnknown)
	}
	return string(t)
}

func stageLabel(s domain.RenderStage) string {
	if !s.Valid() {
		return "unknown"
	}
	return string(s)
}

// SetSnapshot publishes the rolling-window gauges.
func SetSnapshot(s *domain.PerformanceMetrics) {
	SuccessRate.Set(s.SuccessRate)
	AverageRenderTime.Set(s.AverageRenderTimeMs)
	AverageMemory.Set(s.AverageMemoryMB)
	for m, rate := range s.MethodSuccessRates {
		if m.Valid() {
			MethodSuccessRate.WithLabelValues(string(m)).Set(rate)
		}
	}
}
