package classifier

import (
	"context"
	"errors"
	"net"
	"strings"
)

// RawError is an opaque failure reported by a client, e.g. a browser
// exception forwarded as name and message.
type RawError struct {
	ErrName string `json:"name"`
	Message string `json:"message"`
}

func (e *RawError) Error() string {
	if e.ErrName == "" {
		return e.Message
	}
	return e.ErrName + ": " + e.Message
}

// Name returns the exception name.
func (e *RawError) Name() string {
	return e.ErrName
}

type namer interface {
	Name() string
}

type rule struct {
	patterns []string
	code     Code
}

// Exception names reported by the client-side renderer and browsers.
var nameRules = []rule{
	{[]string{"passwordexception"}, CodePasswordRequired},
	{[]string{"invalidpdfexception"}, CodeInvalidPDF},
	{[]string{"missingpdfexception"}, CodeMissingPDF},
	{[]string{"unexpectedresponseexception", "networkerror"}, CodeNetwork},
	{[]string{"timeouterror"}, CodeTimeout},
	{[]string{"aborterror", "abortexception"}, CodeCancelled},
	{[]string{"securityerror"}, CodeCORS},
	{[]string{"notallowederror"}, CodePermissionDenied},
	{[]string{"unknownerrorexception"}, CodeUnknown},
}

// Checked in order; the first match wins.
var messageRules = []rule{
	{[]string{"password"}, CodePasswordRequired},
	{[]string{"timeout", "timed out"}, CodeTimeout},
	{[]string{"cors", "cross-origin", "cross origin"}, CodeCORS},
	{[]string{"network", "failed to fetch", "connection", "econnreset", "econnrefused"}, CodeNetwork},
	{[]string{"permission", "forbidden", "unauthorized", "403", "401"}, CodePermissionDenied},
	{[]string{"not found", "404", "missing"}, CodeMissingPDF},
	{[]string{"corrupt"}, CodeCorruptedFile},
	{[]string{"invalid pdf", "invalid or corrupted pdf"}, CodeInvalidPDF},
	{[]string{"unsupported"}, CodeUnsupportedFormat},
	{[]string{"canvas", "getcontext", "2d context"}, CodeCanvasError},
	{[]string{"worker"}, CodeWorkerInit},
	{[]string{"pdfjs", "pdf.js", "library", "not loaded"}, CodeLibraryUnavailable},
	{[]string{"render"}, CodeRenderError},
	{[]string{"abort", "cancel"}, CodeCancelled},
}

// Parse maps an opaque error to the closest code: explicit codes and context
// sentinels first, then the error's name, then its message. Returns
// CodeUnknown when nothing matches.
func Parse(err error) Code {
	if err == nil {
		return CodeUnknown
	}

	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return CodeCancelled
	}

	if code, ok := parseName(err); ok {
		return code
	}
	if code, ok := match(messageRules, err.Error()); ok {
		return code
	}
	return CodeUnknown
}

// ParseMessage applies only the message heuristics.
func ParseMessage(msg string) Code {
	if code, ok := match(messageRules, msg); ok {
		return code
	}
	return CodeUnknown
}

func parseName(err error) (Code, bool) {
	var n namer
	if errors.As(err, &n) && n.Name() != "" {
		if code, ok := match(nameRules, n.Name()); ok {
			return code, true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CodeTimeout, true
		}
		return CodeNetwork, true
	}
	return "", false
}

func match(rules []rule, s string) (Code, bool) {
	lower := strings.ToLower(s)
	for _, r := range rules {
		for _, p := range r.patterns {
			if strings.Contains(lower, p) {
				return r.code, true
			}
		}
	}
	return "", false
}
