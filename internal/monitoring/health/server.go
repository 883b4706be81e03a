package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/renderwatch/internal/core/domain"
	"github.com/vietddude/renderwatch/internal/monitoring/alerting"
	"github.com/vietddude/renderwatch/internal/monitoring/export"
	"github.com/vietddude/renderwatch/internal/rendering/availability"
	"github.com/vietddude/renderwatch/internal/rendering/classifier"
	"github.com/vietddude/renderwatch/internal/rendering/fallback"
)

const maxBodySize = 1 << 20

// Service is everything the HTTP API reads or drives.
type Service interface {
	Snapshot() domain.PerformanceMetrics
	RecordCount() int
	ActiveAlerts() []domain.Alert
	Alerts() []domain.Alert
	Acknowledge(id string) error
	Record(rec domain.DiagnosticRecord) domain.PerformanceMetrics
	SubmitFeedback(fb domain.UserFeedback) (domain.UserFeedback, error)
	Decide(url string, code classifier.Code, env availability.Environment) fallback.Config
	Export(format export.Format) (string, error)
	Report() string
}

// Server provides the health and operator endpoints.
type Server struct {
	svc     Service
	router  *chi.Mux
	server  *http.Server
	started time.Time
	log     *slog.Logger
}

// NewServer creates a server listening on port.
func NewServer(svc Service, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:     svc,
		router:  chi.NewRouter(),
		started: time.Now(),
		log:     logger.With("component", "http"),
	}
	s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/health/detailed", s.handleDetailed)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/report", s.handleReport)
	r.Get("/export", s.handleExport)

	r.Get("/alerts", s.handleAlerts)
	r.Post("/alerts/{id}/ack", s.handleAck)

	r.Post("/records", s.handleRecord)
	r.Post("/feedback", s.handleFeedback)
	r.Post("/fallback", s.handleFallback)
	r.Post("/classify", s.handleClassify)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start blocks serving until Stop is called.
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := Derive(s.svc.ActiveAlerts())
	code := http.StatusOK
	if status == StatusCritical {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": string(status)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BuildReport(s.svc, s.started, time.Now()))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.svc.Report()))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(export.FormatJSON)
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	body, err := s.svc.Export(format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := s.svc.ActiveAlerts()
	if r.URL.Query().Get("all") == "true" {
		alerts = s.svc.Alerts()
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Acknowledge(id); err != nil {
		if errors.Is(err, alerting.ErrAlertNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	var rec domain.DiagnosticRecord
	if !decode(w, r, &rec) {
		return
	}
	writeJSON(w, http.StatusAccepted, s.svc.Record(rec))
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var fb domain.UserFeedback
	if !decode(w, r, &fb) {
		return
	}
	stored, err := s.svc.SubmitFeedback(fb)
	switch {
	case errors.Is(err, alerting.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, alerting.ErrFeedbackDisabled):
		writeError(w, http.StatusForbidden, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusCreated, stored)
	}
}

type fallbackRequest struct {
	URL         string                          `json:"url"`
	ErrorCode   classifier.Code                 `json:"errorCode,omitempty"`
	Environment *availability.StaticEnvironment `json:"environment,omitempty"`
}

func (s *Server) handleFallback(w http.ResponseWriter, r *http.Request) {
	var req fallbackRequest
	if !decode(w, r, &req) {
		return
	}
	var env availability.Environment
	if req.Environment != nil {
		env = *req.Environment
	}
	writeJSON(w, http.StatusOK, s.svc.Decide(req.URL, req.ErrorCode, env))
}

type classifyRequest struct {
	Code    classifier.Code `json:"code,omitempty"`
	Name    string          `json:"name,omitempty"`
	Message string          `json:"message,omitempty"`
}

type classifyResponse struct {
	classifier.Record
	FirstRetryDelayMs int64 `json:"firstRetryDelayMs,omitempty"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decode(w, r, &req) {
		return
	}
	var rec classifier.Record
	if req.Code != "" {
		rec = classifier.Classify(req.Code)
	} else {
		rec = classifier.ClassifyError(&classifier.RawError{ErrName: req.Name, Message: req.Message})
	}
	resp := classifyResponse{Record: rec}
	if rec.Retryable {
		resp.FirstRetryDelayMs = classifier.Backoff(rec.Code).GetDelay(1).Milliseconds()
	}
	writeJSON(w, http.StatusOK, resp)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
