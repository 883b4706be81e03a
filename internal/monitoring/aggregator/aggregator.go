// Package aggregator keeps a time-bounded history of rendering attempts and
// derives rolling-window performance metrics from it.
package aggregator

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/renderwatch/internal/core/domain"
	"github.com/vietddude/renderwatch/internal/monitoring/metrics"
)

// Config controls how long raw records are kept and how far back rates look.
// Retention is intentionally longer than Window so exports can audit past
// the rolling window.
type Config struct {
	Retention time.Duration
	Window    time.Duration
}

// DefaultConfig keeps a week of history and computes rates over the last hour.
func DefaultConfig() Config {
	return Config{
		Retention: 7 * 24 * time.Hour,
		Window:    time.Hour,
	}
}

// Observer is called after every recompute with the fresh snapshot and the
// records inside the rolling window. It runs outside the aggregator lock.
type Observer func(snapshot domain.PerformanceMetrics, recent []domain.DiagnosticRecord)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// Aggregator ingests diagnostic records and maintains the rolling snapshot.
type Aggregator struct {
	mu sync.RWMutex

	cfg       Config
	history   []domain.DiagnosticRecord
	current   domain.PerformanceMetrics
	computed  bool
	observers []Observer
	now       func() time.Time
}

// New creates an aggregator. Zero config values fall back to DefaultConfig.
func New(cfg Config, opts ...Option) *Aggregator {
	def := DefaultConfig()
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}

	a := &Aggregator{
		cfg:     cfg,
		history: make([]domain.DiagnosticRecord, 0, 64),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Subscribe registers an observer for every future recompute.
func (a *Aggregator) Subscribe(fn Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// Ingest appends a record, evicts expired history and recomputes the
// snapshot. It never fails: partial records are normalized instead.
func (a *Aggregator) Ingest(rec domain.DiagnosticRecord) domain.PerformanceMetrics {
	now := a.now()
	rec = normalize(rec.Clone(), now)

	a.mu.Lock()
	a.history = append(a.history, rec)
	a.evictLocked(now)
	snap, recent := a.recomputeLocked(now)
	observers := a.observers
	a.mu.Unlock()

	metrics.ObserveRecord(&rec)
	metrics.SetSnapshot(&snap)
	notify(observers, snap, recent)
	return snap
}

// Refresh evicts expired history and recomputes without a new record. The
// periodic cycle calls it so rates decay when traffic stops.
func (a *Aggregator) Refresh() domain.PerformanceMetrics {
	now := a.now()

	a.mu.Lock()
	a.evictLocked(now)
	snap, recent := a.recomputeLocked(now)
	observers := a.observers
	a.mu.Unlock()

	metrics.SetSnapshot(&snap)
	notify(observers, snap, recent)
	return snap
}

// Snapshot returns the most recently computed metrics.
func (a *Aggregator) Snapshot() domain.PerformanceMetrics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.computed {
		return compute(nil, a.now())
	}
	return copySnapshot(a.current)
}

// History returns every retained record, oldest ingestion first.
func (a *Aggregator) History() []domain.DiagnosticRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]domain.DiagnosticRecord, len(a.history))
	copy(out, a.history)
	return out
}

// Recent returns the retained records inside the rolling window.
func (a *Aggregator) Recent() []domain.DiagnosticRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.windowLocked(a.now())
}

// Len returns the number of retained records.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.history)
}

func (a *Aggregator) evictLocked(now time.Time) {
	cutoff := now.Add(-a.cfg.Retention)
	kept := a.history[:0]
	for _, r := range a.history {
		if !r.CompletedAt().Before(cutoff) {
			kept = append(kept, r)
		}
	}
	// Clear the tail so evicted records can be collected.
	for i := len(kept); i < len(a.history); i++ {
		a.history[i] = domain.DiagnosticRecord{}
	}
	a.history = kept
}

func (a *Aggregator) windowLocked(now time.Time) []domain.DiagnosticRecord {
	cutoff := now.Add(-a.cfg.Window)
	recent := make([]domain.DiagnosticRecord, 0, len(a.history))
	for _, r := range a.history {
		if !r.CompletedAt().Before(cutoff) {
			recent = append(recent, r)
		}
	}
	return recent
}

func (a *Aggregator) recomputeLocked(now time.Time) (domain.PerformanceMetrics, []domain.DiagnosticRecord) {
	recent := a.windowLocked(now)
	snap := compute(recent, now)
	if a.computed {
		snap.Trends = trends(a.current, snap)
	}
	a.current = snap
	a.computed = true
	return copySnapshot(snap), recent
}

func notify(observers []Observer, snap domain.PerformanceMetrics, recent []domain.DiagnosticRecord) {
	for _, fn := range observers {
		fn(copySnapshot(snap), recent)
	}
}

// normalize fills identifiers and timestamps missing from partial records and
// maps values outside the closed enumerations to their neutral form, so a
// malformed record can neither add map keys nor escape the windows.
func normalize(rec domain.DiagnosticRecord, now time.Time) domain.DiagnosticRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if !rec.Method.Valid() {
		rec.Method = ""
	}
	for i := range rec.Errors {
		e := &rec.Errors[i]
		if !e.Type.Valid() {
			e.Type = domain.ErrorTypeUnknown
		}
		if !e.Stage.Valid() {
			e.Stage = ""
		}
		if !e.Method.Valid() {
			e.Method = ""
		}
	}

	if rec.EndTime.IsZero() {
		rec.EndTime = rec.StartTime
		if rec.EndTime.IsZero() {
			rec.EndTime = now
		}
	}
	if rec.EndTime.After(now) {
		rec.EndTime = now
	}
	if rec.StartTime.IsZero() || rec.StartTime.After(rec.EndTime) {
		rec.StartTime = rec.EndTime.Add(-rec.Duration)
	}
	if rec.Duration == 0 && rec.EndTime.After(rec.StartTime) {
		rec.Duration = rec.EndTime.Sub(rec.StartTime)
	}
	if !rec.Stage.Valid() {
		rec.Stage = ""
	}
	if rec.Stage == "" {
		rec.Stage = domain.StageComplete
		if !rec.Succeeded() {
			rec.Stage = domain.StageError
		}
	}
	return rec
}
