package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/vietddude/renderwatch/internal/core/domain"
)

// RenderReport formats the fixed-section plain-text report. Only non-zero
// error rates are listed.
func RenderReport(p Payload, active []domain.Alert) string {
	var b strings.Builder
	m := p.Metrics

	section(&b, "PDF Rendering Diagnostics Report", '=')
	fmt.Fprintf(&b, "Generated: %s\n", p.ExportedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Records retained: %d\n\n", len(p.History))

	section(&b, "Performance Metrics", '-')
	fmt.Fprintf(&b, "Total operations:    %d\n", m.TotalOperations)
	fmt.Fprintf(&b, "Successful:          %d\n", m.SuccessfulOperations)
	fmt.Fprintf(&b, "Failed:              %d\n", m.FailedOperations)
	fmt.Fprintf(&b, "Success rate:        %.2f%%\n", m.SuccessRate)
	fmt.Fprintf(&b, "Error rate:          %.2f%%\n", m.ErrorRate)
	fmt.Fprintf(&b, "Average render time: %.0fms\n", m.AverageRenderTimeMs)
	fmt.Fprintf(&b, "Average memory:      %.1fMB\n", m.AverageMemoryMB)
	fmt.Fprintf(&b, "Fallback rate:       %.2f%%\n\n", m.FallbackRate)

	section(&b, "Error Rates", '-')
	listed := 0
	for _, et := range domain.ErrorTypes() {
		if v := m.ErrorRates[et]; v > 0 {
			fmt.Fprintf(&b, "%s: %.2f%%\n", et, v)
			listed++
		}
	}
	if listed == 0 {
		b.WriteString("No errors recorded\n")
	}
	b.WriteString("\n")

	section(&b, "Method Success Rates", '-')
	for _, method := range domain.RenderMethods() {
		if v, ok := m.MethodSuccessRates[method]; ok {
			fmt.Fprintf(&b, "%s: %.2f%%\n", method, v)
		}
	}
	b.WriteString("\n")

	section(&b, "Active Alerts", '-')
	if len(active) == 0 {
		b.WriteString("None\n")
	}
	for _, a := range active {
		fmt.Fprintf(&b, "[%s] %s: %s (%s)\n",
			strings.ToUpper(a.Severity.String()), a.Type, a.Message, a.Timestamp.Format(time.RFC3339))
	}
	b.WriteString("\n")

	section(&b, "Trends", '-')
	fmt.Fprintf(&b, "Success rate: %+.2f pts\n", m.Trends.SuccessRateChange)
	fmt.Fprintf(&b, "Error rate:   %+.2f pts\n", m.Trends.ErrorRateChange)
	fmt.Fprintf(&b, "Render time:  %+.1f%%\n", m.Trends.RenderTimeChange)
	fmt.Fprintf(&b, "Memory usage: %+.1f%%\n", m.Trends.MemoryUsageChange)

	return b.String()
}

func section(b *strings.Builder, title string, rule byte) {
	b.WriteString(title)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(string(rule), len(title)))
	b.WriteByte('\n')
}
