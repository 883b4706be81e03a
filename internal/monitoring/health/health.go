// Package health derives the service status from active alerts and serves
// the operator HTTP API.
package health

import (
	"time"

	"github.com/vietddude/renderwatch/internal/core/domain"
)

// SystemStatus represents the overall health state of the rendering pipeline.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Derive maps active alerts to a status: any critical alert is critical, any
// other active alert is degraded.
func Derive(active []domain.Alert) SystemStatus {
	status := StatusHealthy
	for _, a := range active {
		if a.Acknowledged {
			continue
		}
		if a.Severity == domain.SeverityCritical {
			return StatusCritical
		}
		status = StatusDegraded
	}
	return status
}

// Report is the detailed health view.
type Report struct {
	Status         SystemStatus              `json:"status"`
	CheckedAt      time.Time                 `json:"checked_at"`
	Uptime         string                    `json:"uptime"`
	RecordsTracked int                       `json:"records_tracked"`
	AlertCounts    map[string]int            `json:"alert_counts"`
	ActiveAlerts   []domain.Alert            `json:"active_alerts"`
	Metrics        domain.PerformanceMetrics `json:"metrics"`
}

// BuildReport assembles a detailed report from the current state.
func BuildReport(svc Service, started, now time.Time) Report {
	active := svc.ActiveAlerts()
	counts := map[string]int{
		domain.SeverityLow.String():      0,
		domain.SeverityMedium.String():   0,
		domain.SeverityHigh.String():     0,
		domain.SeverityCritical.String(): 0,
	}
	for _, a := range active {
		counts[a.Severity.String()]++
	}
	if active == nil {
		active = []domain.Alert{}
	}
	return Report{
		Status:         Derive(active),
		CheckedAt:      now,
		Uptime:         now.Sub(started).Round(time.Second).String(),
		RecordsTracked: svc.RecordCount(),
		AlertCounts:    counts,
		ActiveAlerts:   active,
		Metrics:        svc.Snapshot(),
	}
}
