package alerting

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/vietddude/renderwatch/internal/core/domain"
)

// check builds candidate alerts for a snapshot. Deduplication happens later.
func (m *Manager) check(snap domain.PerformanceMetrics, recent []domain.DiagnosticRecord) []domain.Alert {
	t := m.cfg.Thresholds
	r := m.cfg.Rules
	var out []domain.Alert

	if r.LowSuccessRate && snap.SuccessRate < t.SuccessRate {
		out = append(out, domain.Alert{
			Severity: domain.SeverityHigh,
			Type:     domain.AlertLowSuccessRate,
			Message:  fmt.Sprintf("Success rate %.1f%% is below the %.1f%% threshold", snap.SuccessRate, t.SuccessRate),
			Evidence: map[string]any{
				"successRate": snap.SuccessRate,
				"threshold":   t.SuccessRate,
				"operations":  snap.TotalOperations,
			},
		})
	}

	errorRate := float64(snap.FailedOperations) / float64(snap.TotalOperations) * 100
	if r.HighErrorRate && errorRate > t.ErrorRate {
		out = append(out, domain.Alert{
			Severity: domain.SeverityHigh,
			Type:     domain.AlertHighErrorRate,
			Message:  fmt.Sprintf("Error rate %.1f%% exceeds the %.1f%% threshold", errorRate, t.ErrorRate),
			Evidence: map[string]any{
				"errorRate":        errorRate,
				"threshold":        t.ErrorRate,
				"failedOperations": snap.FailedOperations,
			},
		})
	}

	if r.SlowPerformance && snap.AverageRenderTimeMs > t.AverageRenderTime {
		out = append(out, domain.Alert{
			Severity: domain.SeverityMedium,
			Type:     domain.AlertSlowPerformance,
			Message:  fmt.Sprintf("Average render time %.0fms exceeds %.0fms", snap.AverageRenderTimeMs, t.AverageRenderTime),
			Evidence: map[string]any{
				"averageRenderTimeMs": snap.AverageRenderTimeMs,
				"threshold":           t.AverageRenderTime,
			},
		})
	}

	if r.HighMemoryUsage && snap.AverageMemoryMB > t.MemoryUsage {
		out = append(out, domain.Alert{
			Severity: domain.SeverityMedium,
			Type:     domain.AlertHighMemoryUsage,
			Message:  fmt.Sprintf("Average memory usage %.1fMB exceeds %.1fMB", snap.AverageMemoryMB, t.MemoryUsage),
			Evidence: map[string]any{
				"averageMemoryMB": snap.AverageMemoryMB,
				"threshold":       t.MemoryUsage,
			},
		})
	}

	if r.MethodFailure {
		if a, ok := methodFailure(snap); ok {
			out = append(out, a)
		}
	}

	if r.ErrorPattern {
		if a, ok := errorPattern(recent); ok {
			out = append(out, a)
		}
	}

	if r.PerformanceDegradation {
		if a, ok := degradation(snap); ok {
			out = append(out, a)
		}
	}

	return out
}

// degradation reports a regression of render time or memory usage against
// the previous snapshot. Both trends share one alert type.
func degradation(snap domain.PerformanceMetrics) (domain.Alert, bool) {
	tr := snap.Trends
	var regressed []string
	if tr.RenderTimeChange > DegradationThreshold {
		regressed = append(regressed, fmt.Sprintf("render time by %.0f%%", tr.RenderTimeChange))
	}
	if tr.MemoryUsageChange > DegradationThreshold {
		regressed = append(regressed, fmt.Sprintf("memory usage by %.0f%%", tr.MemoryUsageChange))
	}
	if len(regressed) == 0 {
		return domain.Alert{}, false
	}
	return domain.Alert{
		Severity: domain.SeverityMedium,
		Type:     domain.AlertPerformanceDegradation,
		Message:  "Performance regressed: " + strings.Join(regressed, ", "),
		Evidence: map[string]any{
			"renderTimeChange":    tr.RenderTimeChange,
			"memoryUsageChange":   tr.MemoryUsageChange,
			"averageRenderTimeMs": snap.AverageRenderTimeMs,
			"averageMemoryMB":     snap.AverageMemoryMB,
		},
	}, true
}

func methodFailure(snap domain.PerformanceMetrics) (domain.Alert, bool) {
	var failing []string
	for m, rate := range snap.MethodSuccessRates {
		if m.Valid() && rate < MethodFailureFloor {
			failing = append(failing, string(m))
		}
	}
	if len(failing) == 0 {
		return domain.Alert{}, false
	}
	slices.Sort(failing)

	rates := make(map[string]float64, len(failing))
	for _, m := range failing {
		rates[m] = snap.MethodSuccessRates[domain.RenderMethod(m)]
	}
	return domain.Alert{
		Severity: domain.SeverityCritical,
		Type:     domain.AlertMethodFailure,
		Message:  fmt.Sprintf("Rendering method %s succeeds less than %.0f%% of the time", failing[0], MethodFailureFloor),
		Evidence: map[string]any{
			"methods": failing,
			"rates":   rates,
		},
	}, true
}

type patternKey struct {
	errorType domain.ErrorType
	stage     domain.RenderStage
}

type pattern struct {
	key   patternKey
	count int
	rate  float64
}

// errorPattern finds the most frequent (error type, stage) pair among recent
// records, counting each pair once per record.
func errorPattern(recent []domain.DiagnosticRecord) (domain.Alert, bool) {
	if len(recent) == 0 {
		return domain.Alert{}, false
	}

	counts := make(map[patternKey]int)
	for _, rec := range recent {
		seen := make(map[patternKey]bool, len(rec.Errors))
		for _, e := range rec.Errors {
			k := patternKey{e.Type, e.Stage}
			if !seen[k] {
				seen[k] = true
				counts[k]++
			}
		}
	}

	total := float64(len(recent))
	var matches []pattern
	for k, n := range counts {
		rate := float64(n) / total * 100
		if n >= PatternMinOccurrences && rate >= PatternRate {
			matches = append(matches, pattern{key: k, count: n, rate: rate})
		}
	}
	if len(matches) == 0 {
		return domain.Alert{}, false
	}

	slices.SortFunc(matches, func(a, b pattern) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.key.errorType, b.key.errorType); c != 0 {
			return c
		}
		return cmp.Compare(a.key.stage, b.key.stage)
	})

	top := matches[0]
	severity := domain.SeverityHigh
	if top.rate >= PatternCriticalRate {
		severity = domain.SeverityCritical
	}

	all := make([]map[string]any, 0, len(matches))
	for _, p := range matches {
		all = append(all, map[string]any{
			"errorType": string(p.key.errorType),
			"stage":     string(p.key.stage),
			"count":     p.count,
			"rate":      p.rate,
		})
	}

	return domain.Alert{
		Severity: severity,
		Type:     domain.AlertErrorPattern,
		Message: fmt.Sprintf("%s at stage %s in %d of %d recent attempts (%.0f%%)",
			top.key.errorType, top.key.stage, top.count, len(recent), top.rate),
		Evidence: map[string]any{
			"errorType": string(top.key.errorType),
			"stage":     string(top.key.stage),
			"count":     top.count,
			"rate":      top.rate,
			"patterns":  all,
		},
	}, true
}
