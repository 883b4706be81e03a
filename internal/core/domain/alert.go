package domain

import "time"

// Severity ranks alerts. The zero value is invalid.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "low":
		*s = SeverityLow
	case "medium":
		*s = SeverityMedium
	case "high":
		*s = SeverityHigh
	case "critical":
		*s = SeverityCritical
	default:
		*s = 0
	}
	return nil
}

// AlertType tags what kind of breach an alert reports.
type AlertType string

const (
	AlertLowSuccessRate         AlertType = "low-success-rate"
	AlertHighErrorRate          AlertType = "high-error-rate"
	AlertSlowPerformance        AlertType = "slow-performance"
	AlertHighMemoryUsage        AlertType = "high-memory-usage"
	AlertMethodFailure          AlertType = "method-failure"
	AlertErrorPattern           AlertType = "error-pattern"
	AlertPerformanceDegradation AlertType = "performance-degradation"
	AlertPoorUserExperience     AlertType = "poor-user-experience"
)

// Alert is a detected threshold breach or failure pattern.
type Alert struct {
	ID             string         `json:"id"`
	Severity       Severity       `json:"severity"`
	Type           AlertType      `json:"type"`
	Message        string         `json:"message"`
	Timestamp      time.Time      `json:"timestamp"`
	Evidence       map[string]any `json:"evidence,omitempty"`
	Acknowledged   bool           `json:"acknowledged"`
	AcknowledgedAt *time.Time     `json:"acknowledgedAt,omitempty"`
}
