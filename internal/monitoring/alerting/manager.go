// Package alerting evaluates performance snapshots against thresholds and
// raises deduplicated, severity-ranked alerts.
package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/renderwatch/internal/core/domain"
	"github.com/vietddude/renderwatch/internal/monitoring/metrics"
)

var (
	ErrAlertNotFound    = errors.New("alert not found")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrFeedbackDisabled = errors.New("user feedback is disabled")
)

// Notifier delivers alerts to an external sink.
type Notifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithNotifier sets the external sink.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Manager owns the alert list and submitted feedback.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	alerts   []domain.Alert
	feedback []domain.UserFeedback

	notifier Notifier
	inflight sync.WaitGroup
	now      func() time.Time
	log      *slog.Logger
}

// NewManager creates an alert manager.
func NewManager(cfg Config, opts ...Option) *Manager {
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = DefaultDedupWindow
	}
	if cfg.AckRetention <= 0 {
		cfg.AckRetention = DefaultAckRetention
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = DefaultDeliveryTimeout
	}

	m := &Manager{
		cfg: cfg,
		now: time.Now,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "alerting")
	return m
}

// Evaluate checks a snapshot and the records it was computed from. It returns
// the alerts that were actually created, after deduplication.
func (m *Manager) Evaluate(snap domain.PerformanceMetrics, recent []domain.DiagnosticRecord) []domain.Alert {
	if !m.cfg.Enabled || snap.TotalOperations == 0 {
		return nil
	}

	var created []domain.Alert
	for _, candidate := range m.check(snap, recent) {
		if a, ok := m.raise(candidate); ok {
			created = append(created, a)
		}
	}
	return created
}

// SubmitFeedback stores a rating. Ratings of 2 or lower raise a
// poor-user-experience alert immediately.
func (m *Manager) SubmitFeedback(fb domain.UserFeedback) (domain.UserFeedback, error) {
	if !m.cfg.FeedbackEnabled {
		return domain.UserFeedback{}, ErrFeedbackDisabled
	}
	if fb.Rating < 1 || fb.Rating > 5 {
		return domain.UserFeedback{}, fmt.Errorf("%w: got %d", ErrInvalidRating, fb.Rating)
	}
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.Timestamp.IsZero() {
		fb.Timestamp = m.now()
	}

	m.mu.Lock()
	m.feedback = append(m.feedback, fb)
	m.mu.Unlock()

	if m.cfg.Enabled && m.cfg.Rules.PoorUserExperience && fb.Rating <= PoorRatingMax {
		m.raise(domain.Alert{
			Severity: domain.SeverityMedium,
			Type:     domain.AlertPoorUserExperience,
			Message:  fmt.Sprintf("User rated a rendering attempt %d/5", fb.Rating),
			Evidence: map[string]any{
				"recordId": fb.RecordID,
				"rating":   fb.Rating,
				"category": fb.Category,
			},
		})
	}
	return fb, nil
}

// Acknowledge marks an alert as handled. Acknowledging twice is a no-op.
func (m *Manager) Acknowledge(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].ID != id {
			continue
		}
		if !m.alerts[i].Acknowledged {
			at := m.now()
			m.alerts[i].Acknowledged = true
			m.alerts[i].AcknowledgedAt = &at
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrAlertNotFound, id)
}

// Cleanup prunes acknowledged alerts past their retention and expired
// feedback. It returns the number of alerts removed.
func (m *Manager) Cleanup() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.alerts)
	m.alerts = slices.DeleteFunc(m.alerts, func(a domain.Alert) bool {
		return a.Acknowledged && a.AcknowledgedAt != nil &&
			now.Sub(*a.AcknowledgedAt) > m.cfg.AckRetention
	})

	if m.cfg.FeedbackRetention > 0 {
		cutoff := now.Add(-m.cfg.FeedbackRetention)
		m.feedback = slices.DeleteFunc(m.feedback, func(f domain.UserFeedback) bool {
			return f.Timestamp.Before(cutoff)
		})
	}
	return before - len(m.alerts)
}

// ActiveAlerts returns unacknowledged alerts, most severe and newest first.
func (m *Manager) ActiveAlerts() []domain.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := make([]domain.Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		if !a.Acknowledged {
			active = append(active, a)
		}
	}
	slices.SortStableFunc(active, func(a, b domain.Alert) int {
		if a.Severity != b.Severity {
			return int(b.Severity) - int(a.Severity)
		}
		return b.Timestamp.Compare(a.Timestamp)
	})
	return active
}

// Alerts returns every retained alert in creation order.
func (m *Manager) Alerts() []domain.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.alerts)
}

// Feedback returns the retained feedback in submission order.
func (m *Manager) Feedback() []domain.UserFeedback {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.feedback)
}

// Drain waits for in-flight deliveries or until ctx is done.
func (m *Manager) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// raise stores the alert unless an unacknowledged alert of the same type was
// created within the dedup window.
func (m *Manager) raise(a domain.Alert) (domain.Alert, bool) {
	now := m.now()

	m.mu.Lock()
	for _, existing := range m.alerts {
		if existing.Type == a.Type && !existing.Acknowledged &&
			now.Sub(existing.Timestamp) < m.cfg.DedupWindow {
			m.mu.Unlock()
			metrics.AlertsSuppressed.WithLabelValues(string(a.Type)).Inc()
			return domain.Alert{}, false
		}
	}
	a.ID = uuid.NewString()
	a.Timestamp = now
	m.alerts = append(m.alerts, a)
	m.mu.Unlock()

	metrics.AlertsTotal.WithLabelValues(string(a.Type), a.Severity.String()).Inc()
	m.log.Warn("Alert raised",
		"type", a.Type,
		"severity", a.Severity.String(),
		"message", a.Message,
	)
	m.deliver(a)
	return a, true
}

// deliver sends the alert in the background. Failures are logged only.
func (m *Manager) deliver(a domain.Alert) {
	if m.notifier == nil {
		return
	}

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				metrics.AlertDeliveryFailures.Inc()
				m.log.Error("Alert delivery panicked", "alert_id", a.ID, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DeliveryTimeout)
		defer cancel()

		if err := m.notifier.Notify(ctx, a); err != nil {
			metrics.AlertDeliveryFailures.Inc()
			m.log.Warn("Alert delivery failed", "alert_id", a.ID, "type", a.Type, "error", err)
		}
	}()
}
