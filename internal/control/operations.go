package control

import (
	"github.com/vietddude/renderwatch/internal/core/domain"
	"github.com/vietddude/renderwatch/internal/monitoring/export"
	"github.com/vietddude/renderwatch/internal/monitoring/metrics"
	"github.com/vietddude/renderwatch/internal/rendering/availability"
	"github.com/vietddude/renderwatch/internal/rendering/classifier"
	"github.com/vietddude/renderwatch/internal/rendering/fallback"
)

// Record ingests one rendering attempt and returns the recomputed snapshot.
// With metrics disabled the record is dropped.
func (e *Engine) Record(rec domain.DiagnosticRecord) domain.PerformanceMetrics {
	if !e.cfg.Monitoring.EnableMetrics {
		return e.agg.Snapshot()
	}
	return e.agg.Ingest(rec)
}

// ReportFailure classifies err, attaches it to rec as an error event at stage
// and ingests the record. The classification is returned even when error
// monitoring is disabled so callers still get retry guidance.
func (e *Engine) ReportFailure(rec domain.DiagnosticRecord, stage domain.RenderStage, err error) classifier.Record {
	cls := classifier.ClassifyError(err)
	if !e.cfg.Monitoring.EnableErrorMonitoring {
		return cls
	}

	msg := string(cls.Code)
	if err != nil {
		msg = err.Error()
	}
	if stage == "" {
		stage = domain.StageRendering
	}

	rec = rec.Clone()
	rec.Stage = domain.StageError
	rec.Errors = append(rec.Errors, domain.ErrorEvent{
		Type:      cls.ErrorType,
		Stage:     stage,
		Method:    rec.Method,
		Timestamp: e.now(),
		Message:   msg,
		Context: map[string]string{
			"code":     string(cls.Code),
			"category": string(cls.Category),
		},
		Recoverable: cls.Recoverable,
	})

	e.log.Debug("Rendering failure reported",
		"code", cls.Code,
		"stage", stage,
		"method", rec.Method,
		"retryable", cls.Retryable,
	)
	e.Record(rec)
	return cls
}

// SubmitFeedback stores a user rating.
func (e *Engine) SubmitFeedback(fb domain.UserFeedback) (domain.UserFeedback, error) {
	return e.alerts.SubmitFeedback(fb)
}

// Decide picks how to display url after an optional error code. A nil env
// uses the engine's default environment.
func (e *Engine) Decide(url string, code classifier.Code, env availability.Environment) fallback.Config {
	eng := e.fallback
	if env != nil {
		eng = fallback.NewEngine(availability.NewDetector(env))
	}
	cfg := eng.DecideFor(url, code, availability.ReasonNone)
	metrics.FallbackDecisionsTotal.WithLabelValues(string(cfg.Method), string(cfg.Reason)).Inc()
	return cfg
}

// Acknowledge marks an alert as handled.
func (e *Engine) Acknowledge(id string) error {
	return e.alerts.Acknowledge(id)
}

func (e *Engine) Snapshot() domain.PerformanceMetrics { return e.agg.Snapshot() }
func (e *Engine) RecordCount() int                    { return e.agg.Len() }
func (e *Engine) ActiveAlerts() []domain.Alert        { return e.alerts.ActiveAlerts() }
func (e *Engine) Alerts() []domain.Alert              { return e.alerts.Alerts() }
func (e *Engine) Feedback() []domain.UserFeedback     { return e.alerts.Feedback() }
func (e *Engine) Report() string                      { return e.exporter.Report() }

// Export encodes the current state.
func (e *Engine) Export(format export.Format) (string, error) {
	return e.exporter.Export(format)
}

// Exporter exposes the exporter for one-off publishing.
func (e *Engine) Exporter() *export.Exporter {
	return e.exporter
}
