package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/renderwatch/internal/monitoring/export"
)

// Load reads configuration from a YAML file. Unset values keep their defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content after expanding environment variables.
func Parse(data []byte) (*AppConfig, error) {
	cfg := Default()
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error
	m := c.Monitoring

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level unknown: %q", c.Logging.Level))
	}
	if m.MetricsInterval <= 0 {
		errs = append(errs, errors.New("monitoring.metrics_interval must be positive"))
	}
	if m.AggregationWindow <= 0 {
		errs = append(errs, errors.New("monitoring.aggregation_window must be positive"))
	}
	if m.DataRetentionDays < 1 {
		errs = append(errs, errors.New("monitoring.data_retention_days must be at least 1"))
	}
	if m.Retention() < m.AggregationWindow {
		errs = append(errs, errors.New("monitoring.data_retention_days must cover the aggregation window"))
	}

	t := m.AlertThresholds
	for name, v := range map[string]float64{"error_rate": t.ErrorRate, "success_rate": t.SuccessRate} {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Errorf("monitoring.alert_thresholds.%s must be within 0-100", name))
		}
	}
	if t.AverageRenderTime <= 0 || t.MemoryUsage <= 0 {
		errs = append(errs, errors.New("monitoring.alert_thresholds render time and memory must be positive"))
	}

	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		errs = append(errs, fmt.Errorf("export.format: %w", err))
	}
	if c.Export.Enabled && c.Export.Endpoint == "" && c.Export.Directory == "" && !c.Redis.Enabled() {
		errs = append(errs, errors.New("export.enabled requires an endpoint, a directory or redis"))
	}

	return errors.Join(errs...)
}
