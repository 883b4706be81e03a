// Package export serializes the monitoring state for offline analysis and
// renders the plain-text operator report.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vietddude/renderwatch/internal/core/domain"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
)

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatXML:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type used when the export leaves the process.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXML:
		return "application/xml"
	}
	return "application/json"
}

// Payload is the logical content shared by every format.
type Payload struct {
	Metrics    domain.PerformanceMetrics `json:"metrics"`
	Alerts     []domain.Alert            `json:"alerts"`
	Feedback   []domain.UserFeedback     `json:"feedback"`
	History    []domain.DiagnosticRecord `json:"history"`
	ExportedAt time.Time                 `json:"exportedAt"`
}

// MetricsSource is the read side of the aggregator.
type MetricsSource interface {
	Snapshot() domain.PerformanceMetrics
	History() []domain.DiagnosticRecord
}

// AlertSource is the read side of the alert manager.
type AlertSource interface {
	Alerts() []domain.Alert
	ActiveAlerts() []domain.Alert
	Feedback() []domain.UserFeedback
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// WithDestinations sets where Publish writes.
func WithDestinations(dests ...Destination) Option {
	return func(e *Exporter) { e.dests = append(e.dests, dests...) }
}

// Exporter reads the aggregator and alert manager on demand. It holds no
// state of its own beyond its destinations.
type Exporter struct {
	metrics MetricsSource
	alerts  AlertSource
	dests   []Destination
	now     func() time.Time
}

// New creates an exporter.
func New(metrics MetricsSource, alerts AlertSource, opts ...Option) *Exporter {
	e := &Exporter{
		metrics: metrics,
		alerts:  alerts,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Collect gathers a consistent-enough payload. Each source is read under its
// own lock.
func (e *Exporter) Collect() Payload {
	p := Payload{
		Metrics:    e.metrics.Snapshot(),
		History:    e.metrics.History(),
		ExportedAt: e.now(),
	}
	if e.alerts != nil {
		p.Alerts = e.alerts.Alerts()
		p.Feedback = e.alerts.Feedback()
	}
	if p.Alerts == nil {
		p.Alerts = []domain.Alert{}
	}
	if p.Feedback == nil {
		p.Feedback = []domain.UserFeedback{}
	}
	if p.History == nil {
		p.History = []domain.DiagnosticRecord{}
	}
	return p
}

// Export encodes the current state.
func (e *Exporter) Export(format Format) (string, error) {
	return Encode(e.Collect(), format)
}

// Report renders the plain-text report for the current state.
func (e *Exporter) Report() string {
	p := e.Collect()
	var active []domain.Alert
	if e.alerts != nil {
		active = e.alerts.ActiveAlerts()
	}
	return RenderReport(p, active)
}

// Encode serializes a payload.
func Encode(p Payload, format Format) (string, error) {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode json: %w", err)
		}
		return string(b), nil
	case FormatCSV:
		return encodeCSV(p)
	case FormatXML:
		return encodeXML(p)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
