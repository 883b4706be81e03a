package export

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/renderwatch/internal/core/domain"
)

var csvHeader = []string{"record_type", "id", "timestamp", "name", "value", "detail"}

// encodeCSV flattens the payload into one row per fact. Maps are emitted in
// enum order so output is stable.
func encodeCSV(p Payload) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	ts := p.ExportedAt.Format(time.RFC3339)

	rows := [][]string{csvHeader}
	metric := func(name string, v float64) {
		rows = append(rows, []string{"metric", "", ts, name, num(v), ""})
	}
	m := p.Metrics
	metric("totalOperations", float64(m.TotalOperations))
	metric("successfulOperations", float64(m.SuccessfulOperations))
	metric("failedOperations", float64(m.FailedOperations))
	metric("successRate", m.SuccessRate)
	metric("errorRate", m.ErrorRate)
	metric("averageRenderTimeMs", m.AverageRenderTimeMs)
	metric("averageMemoryMB", m.AverageMemoryMB)
	metric("fallbackRate", m.FallbackRate)

	for _, method := range domain.RenderMethods() {
		if v, ok := m.MethodSuccessRates[method]; ok {
			rows = append(rows, []string{"method_success_rate", "", ts, string(method), num(v), ""})
		}
	}
	for _, et := range domain.ErrorTypes() {
		if v, ok := m.ErrorRates[et]; ok {
			rows = append(rows, []string{"error_rate", "", ts, string(et), num(v), ""})
		}
	}

	rows = append(rows,
		[]string{"trend", "", ts, "successRateChange", num(m.Trends.SuccessRateChange), ""},
		[]string{"trend", "", ts, "errorRateChange", num(m.Trends.ErrorRateChange), ""},
		[]string{"trend", "", ts, "renderTimeChange", num(m.Trends.RenderTimeChange), ""},
		[]string{"trend", "", ts, "memoryUsageChange", num(m.Trends.MemoryUsageChange), ""},
	)

	for _, a := range p.Alerts {
		rows = append(rows, []string{
			"alert", a.ID, a.Timestamp.Format(time.RFC3339), string(a.Type), a.Severity.String(), a.Message,
		})
	}
	for _, f := range p.Feedback {
		rows = append(rows, []string{
			"feedback", f.ID, f.Timestamp.Format(time.RFC3339), f.RecordID, strconv.Itoa(f.Rating), f.Comment,
		})
	}
	for _, r := range p.History {
		outcome := "success"
		if !r.Succeeded() {
			outcome = "failure"
		}
		rows = append(rows, []string{
			"record", r.ID, r.CompletedAt().Format(time.RFC3339), string(r.Method), outcome, errorTypes(r),
		})
	}

	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}
	return sb.String(), nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func errorTypes(r domain.DiagnosticRecord) string {
	types := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		types = append(types, string(e.Type))
	}
	return strings.Join(types, ";")
}

type xmlDocument struct {
	XMLName    xml.Name      `xml:"diagnostics"`
	ExportedAt time.Time     `xml:"exportedAt,attr"`
	Metrics    xmlMetrics    `xml:"metrics"`
	Alerts     []xmlAlert    `xml:"alerts>alert"`
	Feedback   []xmlFeedback `xml:"feedback>entry"`
	History    []xmlRecord   `xml:"history>record"`
}

type xmlMetrics struct {
	TotalOperations      int           `xml:"totalOperations"`
	SuccessfulOperations int           `xml:"successfulOperations"`
	FailedOperations     int           `xml:"failedOperations"`
	SuccessRate          float64       `xml:"successRate"`
	ErrorRate            float64       `xml:"errorRate"`
	AverageRenderTimeMs  float64       `xml:"averageRenderTimeMs"`
	AverageMemoryMB      float64       `xml:"averageMemoryMB"`
	FallbackRate         float64       `xml:"fallbackRate"`
	MethodSuccessRates   []xmlRate     `xml:"methodSuccessRates>method"`
	ErrorRates           []xmlRate     `xml:"errorRates>type"`
	Trends               domain.Trends `xml:"trends"`
	GeneratedAt          time.Time     `xml:"generatedAt"`
}

type xmlRate struct {
	Name  string  `xml:"name,attr"`
	Value float64 `xml:",chardata"`
}

type xmlAlert struct {
	ID           string          `xml:"id,attr"`
	Severity     domain.Severity `xml:"severity,attr"`
	Type         string          `xml:"type,attr"`
	Acknowledged bool            `xml:"acknowledged,attr"`
	Timestamp    time.Time       `xml:"timestamp"`
	Message      string          `xml:"message"`
}

type xmlFeedback struct {
	ID        string    `xml:"id,attr"`
	RecordID  string    `xml:"recordId,attr"`
	Rating    int       `xml:"rating,attr"`
	Category  string    `xml:"category,omitempty"`
	Comment   string    `xml:"comment,omitempty"`
	Timestamp time.Time `xml:"timestamp"`
}

type xmlRecord struct {
	ID          string    `xml:"id,attr"`
	Method      string    `xml:"method,attr"`
	Stage       string    `xml:"stage,attr"`
	DocumentURL string    `xml:"documentUrl,omitempty"`
	CompletedAt time.Time `xml:"completedAt"`
	Errors      []string  `xml:"errors>error"`
}

func encodeXML(p Payload) (string, error) {
	m := p.Metrics
	doc := xmlDocument{
		ExportedAt: p.ExportedAt,
		Metrics: xmlMetrics{
			TotalOperations:      m.TotalOperations,
			SuccessfulOperations: m.SuccessfulOperations,
			FailedOperations:     m.FailedOperations,
			SuccessRate:          m.SuccessRate,
			ErrorRate:            m.ErrorRate,
			AverageRenderTimeMs:  m.AverageRenderTimeMs,
			AverageMemoryMB:      m.AverageMemoryMB,
			FallbackRate:         m.FallbackRate,
			Trends:               m.Trends,
			GeneratedAt:          m.GeneratedAt,
		},
	}
	for _, method := range domain.RenderMethods() {
		if v, ok := m.MethodSuccessRates[method]; ok {
			doc.Metrics.MethodSuccessRates = append(doc.Metrics.MethodSuccessRates, xmlRate{string(method), v})
		}
	}
	for _, et := range domain.ErrorTypes() {
		if v, ok := m.ErrorRates[et]; ok {
			doc.Metrics.ErrorRates = append(doc.Metrics.ErrorRates, xmlRate{string(et), v})
		}
	}
	for _, a := range p.Alerts {
		doc.Alerts = append(doc.Alerts, xmlAlert{
			ID:           a.ID,
			Severity:     a.Severity,
			Type:         string(a.Type),
			Acknowledged: a.Acknowledged,
			Timestamp:    a.Timestamp,
			Message:      a.Message,
		})
	}
	for _, f := range p.Feedback {
		doc.Feedback = append(doc.Feedback, xmlFeedback{
			ID:        f.ID,
			RecordID:  f.RecordID,
			Rating:    f.Rating,
			Category:  f.Category,
			Comment:   f.Comment,
			Timestamp: f.Timestamp,
		})
	}
	for _, r := range p.History {
		rec := xmlRecord{
			ID:          r.ID,
			Method:      string(r.Method),
			Stage:       string(r.Stage),
			DocumentURL: r.DocumentURL,
			CompletedAt: r.CompletedAt(),
		}
		for _, e := range r.Errors {
			rec.Errors = append(rec.Errors, string(e.Type))
		}
		doc.History = append(doc.History, rec)
	}

	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode xml: %w", err)
	}
	return xml.Header + string(b), nil
}
