package classifier

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

// =============================================================================
// Classify
// =============================================================================

func TestClassify_EveryCodeHasKnownCategory(t *testing.T) {
	valid := make(map[Category]bool)
	for _, c := range Categories() {
		valid[c] = true
	}
	if len(valid) != 6 {
		t.Fatalf("expected 6 categories, got %d", len(valid))
	}

	for _, code := range Codes() {
		if _, ok := table[code]; !ok {
			t.Errorf("code %s missing from table", code)
		}
		rec := Classify(code)
		if !valid[rec.Category] {
			t.Errorf("code %s has invalid category %q", code, rec.Category)
		}
		if rec.UserMessage == "" || rec.Suggestion == "" {
			t.Errorf("code %s has empty user message or suggestion", code)
		}
		if rec.ErrorType == "" {
			t.Errorf("code %s has no error type", code)
		}
	}
	if len(table) != len(Codes()) {
		t.Errorf("table has %d entries, Codes() lists %d", len(table), len(Codes()))
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for _, code := range Codes() {
		a, b := Classify(code), Classify(code)
		if a != b {
			t.Errorf("code %s classified differently: %+v vs %+v", code, a, b)
		}
	}
}

func TestClassify_IndependentAxes(t *testing.T) {
	corrupted := Classify(CodeCorruptedFile)
	if corrupted.Recoverable || corrupted.Retryable {
		t.Errorf("corrupted file should be neither recoverable nor retryable: %+v", corrupted)
	}

	lib := Classify(CodeLibraryUnavailable)
	if !lib.Recoverable || !lib.Retryable {
		t.Errorf("library unavailable should be recoverable and retryable: %+v", lib)
	}

	cors := Classify(CodeCORS)
	if !cors.Recoverable || cors.Retryable {
		t.Errorf("cors should be recoverable but not retryable: %+v", cors)
	}
}

func TestClassify_UnknownCodeFallsBack(t *testing.T) {
	rec := Classify(Code("SOMETHING_NEW"))
	if rec.Code != CodeUnknown || rec.Category != CategoryUnknown {
		t.Errorf("expected UNKNOWN, got %+v", rec)
	}
}

// =============================================================================
// Retry budget
// =============================================================================

func TestMaxAttempts_ZeroWhenNotRetryable(t *testing.T) {
	for _, code := range Codes() {
		rec := Classify(code)
		attempts := MaxAttempts(code)
		if !rec.Retryable && attempts != 0 {
			t.Errorf("code %s is not retryable but has %d attempts", code, attempts)
		}
		if rec.Retryable && (attempts < 1 || attempts > 3) {
			t.Errorf("code %s has attempts %d outside 1..3", code, attempts)
		}
	}
}

func TestMaxAttempts_NetworkGetsMost(t *testing.T) {
	if MaxAttempts(CodeNetwork) <= MaxAttempts(CodeLibraryUnavailable) {
		t.Errorf("network should get more attempts than library errors")
	}
	if MaxAttempts(CodeLibraryUnavailable) != 1 {
		t.Errorf("expected 1 attempt for library errors, got %d", MaxAttempts(CodeLibraryUnavailable))
	}
}

func TestBackoff_Delay(t *testing.T) {
	b := ExponentialBackoff{InitialDelay: 1 * time.Second, MaxDelay: 10 * time.Second}

	// Attempt 1: 1*2^0 = 1s
	if d := b.GetDelay(1); d != 1*time.Second {
		t.Errorf("expected 1s, got %v", d)
	}
	// Attempt 3: 1*2^2 = 4s
	if d := b.GetDelay(3); d != 4*time.Second {
		t.Errorf("expected 4s, got %v", d)
	}
	// Attempt 10: capped
	if d := b.GetDelay(10); d != 10*time.Second {
		t.Errorf("expected 10s, got %v", d)
	}
}

func TestRetryDelay_JitterBounds(t *testing.T) {
	base := Backoff(CodeNetwork).GetDelay(2)
	upper := base + time.Duration(float64(base)*MaxJitter)

	for i := 0; i < 50; i++ {
		d := RetryDelay(CodeNetwork, 2)
		if d < base || d > upper {
			t.Fatalf("delay %v outside [%v, %v]", d, base, upper)
		}
	}

	if d := RetryDelay(CodeCorruptedFile, 1); d != 0 {
		t.Errorf("expected no delay for non-retryable code, got %v", d)
	}
}

// =============================================================================
// Parse
// =============================================================================

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, CodeUnknown},
		{"explicit code", NewError(CodeCORS, errors.New("blocked")), CodeCORS},
		{"wrapped explicit code", fmt.Errorf("load: %w", NewError(CodeInvalidPDF, nil)), CodeInvalidPDF},
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"cancelled", fmt.Errorf("fetch: %w", context.Canceled), CodeCancelled},
		{"name wins over message", &RawError{ErrName: "PasswordException", Message: "network"}, CodePasswordRequired},
		{"invalid pdf name", &RawError{ErrName: "InvalidPDFException", Message: "Invalid PDF structure"}, CodeInvalidPDF},
		{"net timeout", timeoutErr{}, CodeTimeout},
		{"message network", errors.New("Failed to fetch"), CodeNetwork},
		{"message cors", errors.New("blocked by CORS policy"), CodeCORS},
		{"message forbidden", errors.New("server responded 403"), CodePermissionDenied},
		{"message canvas", errors.New("canvas allocation failed"), CodeCanvasError},
		{"message worker", errors.New("Setting up fake worker failed"), CodeWorkerInit},
		{"generic name falls through", &RawError{ErrName: "Error", Message: "corrupted xref"}, CodeCorruptedFile},
		{"no match", errors.New("weird"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.err); got != tt.want {
				t.Errorf("Parse(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyError_NetworkTimeoutMessage(t *testing.T) {
	rec := ClassifyError(errors.New("Network timeout"))
	if rec.Category != CategoryNetwork {
		t.Errorf("expected network category, got %s (%s)", rec.Category, rec.Code)
	}
	if rec.OriginalError == nil {
		t.Error("original error should be retained")
	}
	if rec.UserMessage == "Network timeout" {
		t.Error("raw error text must not be used as user message")
	}
}
