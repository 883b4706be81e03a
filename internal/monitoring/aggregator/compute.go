package aggregator

import (
	"maps"
	"time"

	"github.com/vietddude/renderwatch/internal/core/domain"
)

type methodCount struct {
	total     int
	succeeded int
}

// compute derives a snapshot from the records inside the rolling window.
// Trends are left zero; the caller fills them against the previous snapshot.
func compute(recent []domain.DiagnosticRecord, now time.Time) domain.PerformanceMetrics {
	snap := domain.PerformanceMetrics{
		TotalOperations:    len(recent),
		SuccessRate:        100,
		MethodSuccessRates: make(map[domain.RenderMethod]float64),
		ErrorRates:         make(map[domain.ErrorType]float64),
		GeneratedAt:        now,
	}
	for _, m := range domain.RenderMethods() {
		snap.MethodSuccessRates[m] = 100
	}
	for _, t := range domain.ErrorTypes() {
		snap.ErrorRates[t] = 0
	}
	if len(recent) == 0 {
		return snap
	}

	var (
		renderSum, memorySum     float64
		renderCount, memoryCount int
		fallbacks                int
		byMethod                 = make(map[domain.RenderMethod]*methodCount)
		byErrorType              = make(map[domain.ErrorType]int)
	)

	for i := range recent {
		r := &recent[i]

		mc, ok := byMethod[r.Method]
		if !ok {
			mc = &methodCount{}
			byMethod[r.Method] = mc
		}
		mc.total++

		if r.Succeeded() {
			snap.SuccessfulOperations++
			mc.succeeded++
		} else {
			snap.FailedOperations++
		}

		if r.Method.IsFallback() {
			fallbacks++
		}

		if rt := r.Performance.RenderTime; rt != nil {
			renderSum += float64(*rt) / float64(time.Millisecond)
			renderCount++
		}
		if mem := r.Performance.MemoryMB; mem != nil {
			memorySum += *mem
			memoryCount++
		}

		// Count each type once per record.
		seen := make(map[domain.ErrorType]bool, len(r.Errors))
		for _, e := range r.Errors {
			if !seen[e.Type] {
				seen[e.Type] = true
				byErrorType[e.Type]++
			}
		}
	}

	total := float64(len(recent))
	snap.SuccessRate = percent(snap.SuccessfulOperations, total)
	snap.ErrorRate = percent(snap.FailedOperations, total)
	snap.FallbackRate = percent(fallbacks, total)

	if renderCount > 0 {
		snap.AverageRenderTimeMs = renderSum / float64(renderCount)
	}
	if memoryCount > 0 {
		snap.AverageMemoryMB = memorySum / float64(memoryCount)
	}

	for m, mc := range byMethod {
		if m == "" {
			continue
		}
		snap.MethodSuccessRates[m] = percent(mc.succeeded, float64(mc.total))
	}
	for t, n := range byErrorType {
		snap.ErrorRates[t] = percent(n, total)
	}
	return snap
}

func trends(prev, cur domain.PerformanceMetrics) domain.Trends {
	return domain.Trends{
		SuccessRateChange: cur.SuccessRate - prev.SuccessRate,
		ErrorRateChange:   cur.ErrorRate - prev.ErrorRate,
		RenderTimeChange:  relativeChange(prev.AverageRenderTimeMs, cur.AverageRenderTimeMs),
		MemoryUsageChange: relativeChange(prev.AverageMemoryMB, cur.AverageMemoryMB),
	}
}

func relativeChange(prev, cur float64) float64 {
	if prev <= 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

func percent(n int, total float64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / total * 100
}

func copySnapshot(s domain.PerformanceMetrics) domain.PerformanceMetrics {
	s.MethodSuccessRates = maps.Clone(s.MethodSuccessRates)
	s.ErrorRates = maps.Clone(s.ErrorRates)
	return s
}
