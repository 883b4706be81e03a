package domain

import "time"

// DiagnosticRecord describes one completed rendering attempt.
type DiagnosticRecord struct {
	ID          string        `json:"id"`
	DocumentURL string        `json:"documentUrl,omitempty"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
	Duration    time.Duration `json:"duration"`
	Method      RenderMethod  `json:"method"`
	Stage       RenderStage   `json:"stage"`
	Errors      []ErrorEvent  `json:"errors"`
	Performance Performance   `json:"performance"`
	Environment Environment   `json:"environment"`
}

// ErrorEvent is a single failure observed during an attempt.
type ErrorEvent struct {
	Type        ErrorType         `json:"type"`
	Stage       RenderStage       `json:"stage"`
	Method      RenderMethod      `json:"method"`
	Timestamp   time.Time         `json:"timestamp"`
	Message     string            `json:"message,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
	Recoverable bool              `json:"recoverable"`
}

// Performance holds optional measurements. Nil means "not measured".
type Performance struct {
	RenderTime *time.Duration `json:"renderTime,omitempty"`
	MemoryMB   *float64       `json:"memoryMB,omitempty"`
	PageCount  int            `json:"pageCount,omitempty"`
}

// Environment fingerprints the client that attempted the render.
type Environment struct {
	UserAgent string `json:"userAgent,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Language  string `json:"language,omitempty"`
}

// Succeeded reports whether the attempt finished without errors.
func (r *DiagnosticRecord) Succeeded() bool {
	return len(r.Errors) == 0
}

// CompletedAt is the timestamp used for windowing and retention.
func (r *DiagnosticRecord) CompletedAt() time.Time {
	if !r.EndTime.IsZero() {
		return r.EndTime
	}
	return r.StartTime
}

// HasErrorType reports whether any event on the record has type t.
func (r *DiagnosticRecord) HasErrorType(t ErrorType) bool {
	for _, e := range r.Errors {
		if e.Type == t {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate ingested history.
func (r DiagnosticRecord) Clone() DiagnosticRecord {
	out := r
	if r.Errors != nil {
		out.Errors = make([]ErrorEvent, len(r.Errors))
		for i, e := range r.Errors {
			if e.Context != nil {
				ctx := make(map[string]string, len(e.Context))
				for k, v := range e.Context {
					ctx[k] = v
				}
				e.Context = ctx
			}
			out.Errors[i] = e
		}
	}
	if r.Performance.RenderTime != nil {
		d := *r.Performance.RenderTime
		out.Performance.RenderTime = &d
	}
	if r.Performance.MemoryMB != nil {
		m := *r.Performance.MemoryMB
		out.Performance.MemoryMB = &m
	}
	return out
}
