package config

import (
	"time"

	redisclient "github.com/vietddude/renderwatch/internal/infra/redis"
	"github.com/vietddude/renderwatch/internal/monitoring/aggregator"
	"github.com/vietddude/renderwatch/internal/monitoring/alerting"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Logging    LoggingConfig      `yaml:"logging"`
	Monitoring MonitoringConfig   `yaml:"monitoring"`
	Export     ExportConfig       `yaml:"export"`
	Redis      redisclient.Config `yaml:"redis"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"` // 0 disables the HTTP server
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MonitoringConfig controls collection, aggregation and alerting.
type MonitoringConfig struct {
	EnableMetrics         bool                `yaml:"enable_metrics"`
	EnableErrorMonitoring bool                `yaml:"enable_error_monitoring"`
	EnableUserFeedback    bool                `yaml:"enable_user_feedback"`
	EnableAlerting        bool                `yaml:"enable_alerting"`
	MetricsInterval       time.Duration       `yaml:"metrics_interval"`
	AggregationWindow     time.Duration       `yaml:"aggregation_window"`
	DataRetentionDays     int                 `yaml:"data_retention_days"`
	AlertThresholds       alerting.Thresholds `yaml:"alert_thresholds"`
	AlertRules            alerting.Rules      `yaml:"alert_rules"`
	Webhook               WebhookConfig       `yaml:"webhook"`
}

// WebhookConfig is the optional external alert sink.
type WebhookConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// ExportConfig controls where diagnostics are published.
type ExportConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Format     string `yaml:"format"` // json, csv, xml
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Directory  string `yaml:"directory"`
	OnShutdown bool   `yaml:"on_shutdown"`
}

// Retention converts the configured day count to a duration.
func (m MonitoringConfig) Retention() time.Duration {
	return time.Duration(m.DataRetentionDays) * 24 * time.Hour
}

// Default returns the configuration used when a value is not set.
func Default() AppConfig {
	alerts := alerting.DefaultConfig()
	return AppConfig{
		Server:  ServerConfig{Port: 8090},
		Logging: LoggingConfig{Level: "info"},
		Monitoring: MonitoringConfig{
			EnableMetrics:         true,
			EnableErrorMonitoring: true,
			EnableUserFeedback:    true,
			EnableAlerting:        true,
			MetricsInterval:       30 * time.Second,
			AggregationWindow:     time.Hour,
			DataRetentionDays:     7,
			AlertThresholds:       alerts.Thresholds,
			AlertRules:            alerts.Rules,
			Webhook:               WebhookConfig{Timeout: alerting.DefaultDeliveryTimeout},
		},
		Export: ExportConfig{
			Format:     "json",
			OnShutdown: true,
		},
	}
}

// AggregatorConfig derives the aggregator windows.
func (c *AppConfig) AggregatorConfig() aggregator.Config {
	return aggregator.Config{
		Retention: c.Monitoring.Retention(),
		Window:    c.Monitoring.AggregationWindow,
	}
}

// AlertingConfig derives the alert manager settings. Feedback is kept as long
// as raw records.
func (c *AppConfig) AlertingConfig() alerting.Config {
	cfg := alerting.DefaultConfig()
	cfg.Enabled = c.Monitoring.EnableAlerting
	cfg.FeedbackEnabled = c.Monitoring.EnableUserFeedback
	cfg.Thresholds = c.Monitoring.AlertThresholds
	cfg.Rules = c.Monitoring.AlertRules
	cfg.FeedbackRetention = c.Monitoring.Retention()
	if !c.Monitoring.EnableErrorMonitoring {
		cfg.Rules.ErrorPattern = false
	}
	if c.Monitoring.Webhook.Timeout > 0 {
		cfg.DeliveryTimeout = c.Monitoring.Webhook.Timeout
	}
	return cfg
}
