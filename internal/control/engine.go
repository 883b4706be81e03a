// Package control wires the reliability components into one owned engine and
// manages its lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vietddude/renderwatch/internal/core/config"
	"github.com/vietddude/renderwatch/internal/core/domain"
	redisclient "github.com/vietddude/renderwatch/internal/infra/redis"
	"github.com/vietddude/renderwatch/internal/monitoring/aggregator"
	"github.com/vietddude/renderwatch/internal/monitoring/alerting"
	"github.com/vietddude/renderwatch/internal/monitoring/export"
	"github.com/vietddude/renderwatch/internal/monitoring/health"
	"github.com/vietddude/renderwatch/internal/rendering/availability"
	"github.com/vietddude/renderwatch/internal/rendering/fallback"
)

var (
	ErrAlreadyStarted = errors.New("engine already started")
	ErrNotStarted     = errors.New("engine not started")
)

// Engine owns every component. There is no package-level state; create as
// many engines as needed.
type Engine struct {
	cfg      config.AppConfig
	agg      *aggregator.Aggregator
	alerts   *alerting.Manager
	exporter *export.Exporter
	fallback *fallback.Engine
	server   *health.Server
	redis    *redisclient.Client
	log      *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New builds an engine from configuration. It connects to Redis when a URL
// is configured.
func New(cfg *config.AppConfig, opts ...Option) (*Engine, error) {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{now: time.Now, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		cfg: *cfg,
		log: o.log.With("component", "engine"),
		now: o.now,
	}

	e.agg = aggregator.New(cfg.AggregatorConfig(), aggregator.WithClock(o.now))

	notifier := o.notifier
	if notifier == nil && cfg.Monitoring.Webhook.URL != "" {
		wh, err := alerting.NewWebhookNotifier(
			cfg.Monitoring.Webhook.URL,
			cfg.Monitoring.Webhook.APIKey,
			&http.Client{Timeout: cfg.Monitoring.Webhook.Timeout},
		)
		if err != nil {
			return nil, err
		}
		notifier = wh
	}
	alertOpts := []alerting.Option{alerting.WithClock(o.now), alerting.WithLogger(o.log)}
	if notifier != nil {
		alertOpts = append(alertOpts, alerting.WithNotifier(notifier))
	}
	e.alerts = alerting.NewManager(cfg.AlertingConfig(), alertOpts...)

	e.agg.Subscribe(func(snap domain.PerformanceMetrics, recent []domain.DiagnosticRecord) {
		e.alerts.Evaluate(snap, recent)
	})

	dests, err := e.destinations(o.dests)
	if err != nil {
		return nil, err
	}
	e.exporter = export.New(e.agg, e.alerts, export.WithClock(o.now), export.WithDestinations(dests...))

	var env availability.Environment = availability.FullyCapable()
	if o.env != nil {
		env = o.env
	}
	e.fallback = fallback.NewEngine(availability.NewDetector(env))

	if cfg.Server.Port > 0 && !o.noServer {
		e.server = health.NewServer(e, cfg.Server.Port, o.log)
	}
	return e, nil
}

func (e *Engine) destinations(extra []export.Destination) ([]export.Destination, error) {
	dests := append([]export.Destination(nil), extra...)
	if !e.cfg.Export.Enabled {
		return dests, nil
	}

	x := e.cfg.Export
	if x.Directory != "" {
		fd, err := export.NewFileDestination(x.Directory)
		if err != nil {
			return nil, err
		}
		dests = append(dests, fd)
	}
	if x.Endpoint != "" {
		hd, err := export.NewHTTPDestination(x.Endpoint, x.APIKey, nil)
		if err != nil {
			return nil, err
		}
		dests = append(dests, hd)
	}
	if e.cfg.Redis.Enabled() {
		client, err := redisclient.NewClient(e.cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		e.redis = client
		dests = append(dests, redisclient.NewExportStore(client, e.cfg.Monitoring.Retention()))
		e.log.Info("Using Redis export store")
	}
	return dests, nil
}

// Start launches the periodic cycle and the HTTP server.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil || e.stopped {
		return ErrAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.run(loopCtx)

	if e.server != nil {
		go func() {
			if err := e.server.Start(); err != nil {
				e.log.Error("HTTP server failed", "error", err)
			}
		}()
	}

	e.log.Info("Engine started",
		"interval", e.cfg.Monitoring.MetricsInterval,
		"window", e.cfg.Monitoring.AggregationWindow,
		"alerting", e.cfg.Monitoring.EnableAlerting,
	)
	return nil
}

// Stop cancels the cycle, shuts the server down, waits for alert deliveries
// and performs the shutdown export when configured.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if e.cancel == nil {
		e.mu.Unlock()
		return ErrNotStarted
	}
	cancel, done := e.cancel, e.done
	e.cancel = nil
	e.stopped = true
	e.mu.Unlock()

	e.log.Info("Stopping engine...")
	cancel()

	var errs []error
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("wait for cycle: %w", ctx.Err()))
	}

	if e.server != nil {
		if err := e.server.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
	}
	if err := e.alerts.Drain(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain alerts: %w", err))
	}

	if e.cfg.Export.Enabled && e.cfg.Export.OnShutdown && e.exporter.Destinations() > 0 {
		format, _ := export.ParseFormat(e.cfg.Export.Format)
		if err := e.exporter.Publish(ctx, format); err != nil {
			errs = append(errs, fmt.Errorf("shutdown export: %w", err))
		}
	}

	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			e.log.Warn("Failed to close Redis", "error", err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.Monitoring.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.RunCycle()
		}
	}
}

// RunCycle performs one periodic pass: evict and recompute, which evaluates
// alerts through the aggregator subscription, then prune old alerts.
func (e *Engine) RunCycle() {
	snap := e.agg.Refresh()
	pruned := e.alerts.Cleanup()
	e.log.Debug("Monitoring cycle",
		"operations", snap.TotalOperations,
		"success_rate", snap.SuccessRate,
		"pruned_alerts", pruned,
	)
}
