package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/renderwatch/internal/core/domain"
	"github.com/vietddude/renderwatch/internal/monitoring/alerting"
	"github.com/vietddude/renderwatch/internal/monitoring/export"
	"github.com/vietddude/renderwatch/internal/rendering/availability"
	"github.com/vietddude/renderwatch/internal/rendering/classifier"
	"github.com/vietddude/renderwatch/internal/rendering/fallback"
)

// =============================================================================
// Stubs
// =============================================================================

type stubService struct {
	active   []domain.Alert
	all      []domain.Alert
	records  []domain.DiagnosticRecord
	feedback []domain.UserFeedback
	lastEnv  availability.Environment
	lastCode classifier.Code
}

func (s *stubService) Snapshot() domain.PerformanceMetrics {
	return domain.PerformanceMetrics{TotalOperations: len(s.records), SuccessRate: 100}
}
func (s *stubService) RecordCount() int             { return len(s.records) }
func (s *stubService) ActiveAlerts() []domain.Alert { return s.active }
func (s *stubService) Alerts() []domain.Alert       { return s.all }
func (s *stubService) Report() string               { return "PDF Rendering Diagnostics Report\n" }
func (s *stubService) Export(f export.Format) (string, error) {
	return "exported:" + string(f), nil
}

func (s *stubService) Acknowledge(id string) error {
	for _, a := range s.active {
		if a.ID == id {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", alerting.ErrAlertNotFound, id)
}

func (s *stubService) Record(rec domain.DiagnosticRecord) domain.PerformanceMetrics {
	s.records = append(s.records, rec)
	return s.Snapshot()
}

func (s *stubService) SubmitFeedback(fb domain.UserFeedback) (domain.UserFeedback, error) {
	if fb.Rating < 1 || fb.Rating > 5 {
		return domain.UserFeedback{}, alerting.ErrInvalidRating
	}
	fb.ID = "fb-1"
	s.feedback = append(s.feedback, fb)
	return fb, nil
}

func (s *stubService) Decide(url string, code classifier.Code, env availability.Environment) fallback.Config {
	s.lastEnv = env
	s.lastCode = code
	return fallback.Config{Method: fallback.MethodDownload, URL: url, ErrorCode: code}
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Status
// =============================================================================

func TestDerive(t *testing.T) {
	tests := []struct {
		name   string
		active []domain.Alert
		want   SystemStatus
	}{
		{"none", nil, StatusHealthy},
		{"medium", []domain.Alert{{Severity: domain.SeverityMedium}}, StatusDegraded},
		{"high", []domain.Alert{{Severity: domain.SeverityHigh}}, StatusDegraded},
		{"critical wins", []domain.Alert{{Severity: domain.SeverityLow}, {Severity: domain.SeverityCritical}}, StatusCritical},
		{"acknowledged ignored", []domain.Alert{{Severity: domain.SeverityCritical, Acknowledged: true}}, StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive(tt.active); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestHealth_CriticalReturns503(t *testing.T) {
	svc := &stubService{active: []domain.Alert{{ID: "a1", Severity: domain.SeverityCritical}}}
	rec := do(t, NewServer(svc, 0, nil), http.MethodGet, "/health", "")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"critical"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHealth_Healthy(t *testing.T) {
	rec := do(t, NewServer(&stubService{}, 0, nil), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHealthDetailed(t *testing.T) {
	svc := &stubService{
		active:  []domain.Alert{{ID: "a1", Severity: domain.SeverityHigh}},
		records: make([]domain.DiagnosticRecord, 3),
	}
	rec := do(t, NewServer(svc, 0, nil), http.MethodGet, "/health/detailed", "")

	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}
	if report.RecordsTracked != 3 || report.Metrics.TotalOperations != 3 {
		t.Errorf("unexpected counts %+v", report)
	}
	if report.AlertCounts["high"] != 1 || report.AlertCounts["critical"] != 0 {
		t.Errorf("unexpected alert counts %v", report.AlertCounts)
	}
}

func TestBuildReport_Uptime(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := BuildReport(&stubService{}, started, started.Add(90*time.Second))
	if r.Uptime != "1m30s" {
		t.Errorf("expected 1m30s, got %s", r.Uptime)
	}
	if r.ActiveAlerts == nil {
		t.Error("expected empty, non-nil alert list")
	}
}

// =============================================================================
// Operator API
// =============================================================================

func TestAck(t *testing.T) {
	svc := &stubService{active: []domain.Alert{{ID: "a1", Severity: domain.SeverityHigh}}}
	srv := NewServer(svc, 0, nil)

	if rec := do(t, srv, http.MethodPost, "/alerts/a1/ack", ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/alerts/missing/ack", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestAlerts_EmptyIsArray(t *testing.T) {
	rec := do(t, NewServer(&stubService{}, 0, nil), http.MethodGet, "/alerts", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected [], got %s", rec.Body.String())
	}
}

func TestExport(t *testing.T) {
	srv := NewServer(&stubService{}, 0, nil)

	rec := do(t, srv, http.MethodGet, "/export?format=csv", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "exported:csv" {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %s", ct)
	}

	rec = do(t, srv, http.MethodGet, "/export", "")
	if rec.Body.String() != "exported:json" {
		t.Errorf("expected json default, got %s", rec.Body.String())
	}

	if rec := do(t, srv, http.MethodGet, "/export?format=yaml", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestReport(t *testing.T) {
	rec := do(t, NewServer(&stubService{}, 0, nil), http.MethodGet, "/report", "")
	if !strings.HasPrefix(rec.Body.String(), "PDF Rendering Diagnostics Report") {
		t.Errorf("unexpected report %q", rec.Body.String())
	}
}

func TestRecord(t *testing.T) {
	svc := &stubService{}
	srv := NewServer(svc, 0, nil)

	rec := do(t, srv, http.MethodPost, "/records", `{"documentUrl":"https://x/a.pdf","method":"canvas","stage":"complete"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.records) != 1 || svc.records[0].Method != domain.MethodCanvas {
		t.Errorf("record not forwarded: %+v", svc.records)
	}

	if rec := do(t, srv, http.MethodPost, "/records", `{not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestFeedback(t *testing.T) {
	svc := &stubService{}
	srv := NewServer(svc, 0, nil)

	if rec := do(t, srv, http.MethodPost, "/feedback", `{"recordId":"r1","rating":2}`); rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/feedback", `{"recordId":"r1","rating":9}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestFallback(t *testing.T) {
	svc := &stubService{}
	srv := NewServer(svc, 0, nil)

	rec := do(t, srv, http.MethodPost, "/fallback", `{"url":"https://x/a.pdf","errorCode":"CORS_ERROR"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastEnv != nil {
		t.Error("environment should be nil when omitted")
	}
	if svc.lastCode != classifier.CodeCORS {
		t.Errorf("expected CORS_ERROR, got %s", svc.lastCode)
	}

	do(t, srv, http.MethodPost, "/fallback", `{"url":"https://x/a.pdf","environment":{"libraryLoaded":true}}`)
	env, ok := svc.lastEnv.(availability.StaticEnvironment)
	if !ok || !env.Library || env.Worker {
		t.Errorf("unexpected environment %#v", svc.lastEnv)
	}
}

func TestClassify(t *testing.T) {
	srv := NewServer(&stubService{}, 0, nil)

	rec := do(t, srv, http.MethodPost, "/classify", `{"name":"PasswordException","message":"No password given"}`)
	var got classifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Code != classifier.CodePasswordRequired {
		t.Errorf("expected PASSWORD_REQUIRED, got %s", got.Code)
	}

	rec = do(t, srv, http.MethodPost, "/classify", `{"code":"NETWORK_ERROR"}`)
	got = classifyResponse{}
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if !got.Retryable || got.FirstRetryDelayMs != 1000 {
		t.Errorf("unexpected network classification %+v", got)
	}
}
