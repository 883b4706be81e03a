package control

import (
	"log/slog"
	"time"

	"github.com/vietddude/renderwatch/internal/monitoring/alerting"
	"github.com/vietddude/renderwatch/internal/monitoring/export"
	"github.com/vietddude/renderwatch/internal/rendering/availability"
)

type options struct {
	now      func() time.Time
	log      *slog.Logger
	notifier alerting.Notifier
	dests    []export.Destination
	env      availability.Environment
	noServer bool
}

// Option configures an Engine.
type Option func(*options)

// WithClock overrides the time source of every component.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithNotifier replaces the configured webhook.
func WithNotifier(n alerting.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithDestinations adds export destinations beyond the configured ones.
func WithDestinations(dests ...export.Destination) Option {
	return func(o *options) { o.dests = append(o.dests, dests...) }
}

// WithEnvironment sets the capabilities assumed when a fallback decision is
// requested without a client environment. The default is fully capable.
func WithEnvironment(env availability.Environment) Option {
	return func(o *options) { o.env = env }
}

// WithoutServer skips the HTTP server even when a port is configured.
func WithoutServer() Option {
	return func(o *options) { o.noServer = true }
}
