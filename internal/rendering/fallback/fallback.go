// Package fallback chooses a degraded rendering strategy when the primary
// canvas renderer cannot be used.
package fallback

import (
	"github.com/vietddude/renderwatch/internal/core/domain"
	"github.com/vietddude/renderwatch/internal/rendering/availability"
	"github.com/vietddude/renderwatch/internal/rendering/classifier"
)

// Method is a fallback rendering strategy.
type Method string

const (
	MethodNativeEmbed Method = "native-embed" // browser viewer in an iframe
	MethodObjectEmbed Method = "object-embed" // <object>/<embed> tag
	MethodDownload    Method = "download"     // force a download
	MethodErrorOnly   Method = "error-only"   // show the error, no fallback
)

// RenderMethod maps the strategy onto the rendering method vocabulary used in
// diagnostics. Error-only has no rendering method.
func (m Method) RenderMethod() domain.RenderMethod {
	switch m {
	case MethodNativeEmbed, MethodObjectEmbed:
		return domain.MethodNative
	case MethodDownload:
		return domain.MethodDownload
	}
	return ""
}

// Config is the outcome of a fallback decision. It is computed per call and
// never stored.
type Config struct {
	Method       Method              `json:"method"`
	Reason       availability.Reason `json:"reason,omitempty"`
	ErrorCode    classifier.Code     `json:"errorCode,omitempty"`
	UseFallback  bool                `json:"useFallback"`
	ShouldNotify bool                `json:"shouldNotify"`
	Message      string              `json:"message,omitempty"`
	URL          string              `json:"url,omitempty"`
}

var codeMethods = map[classifier.Code]Method{
	classifier.CodeLibraryUnavailable: MethodNativeEmbed,
	classifier.CodeWorkerInit:         MethodNativeEmbed,
	classifier.CodeUnsupportedFormat:  MethodNativeEmbed,
	classifier.CodeCORS:               MethodDownload,
	classifier.CodePermissionDenied:   MethodDownload,
	classifier.CodeCorruptedFile:      MethodErrorOnly,
	classifier.CodeInvalidPDF:         MethodErrorOnly,
}

var reasonMethods = map[availability.Reason]Method{
	availability.ReasonLibraryUnavailable:   MethodNativeEmbed,
	availability.ReasonWorkerFailure:        MethodNativeEmbed,
	availability.ReasonUnsupportedFeatures:  MethodNativeEmbed,
	availability.ReasonRenderingErrors:      MethodNativeEmbed,
	availability.ReasonSecurityRestrictions: MethodDownload,
}

// Codes that switch to a fallback on their own. PERMISSION_DENIED is left out
// on purpose: access problems surface as errors.
var fallbackCodes = map[classifier.Code]bool{
	classifier.CodeLibraryUnavailable: true,
	classifier.CodeWorkerInit:         true,
	classifier.CodeCORS:               true,
	classifier.CodeUnsupportedFormat:  true,
}

var codeReasons = map[classifier.Code]availability.Reason{
	classifier.CodeLibraryUnavailable: availability.ReasonLibraryUnavailable,
	classifier.CodeWorkerInit:         availability.ReasonWorkerFailure,
	classifier.CodeUnsupportedFormat:  availability.ReasonUnsupportedFeatures,
	classifier.CodeRenderError:        availability.ReasonRenderingErrors,
	classifier.CodeCanvasError:        availability.ReasonRenderingErrors,
	classifier.CodeCORS:               availability.ReasonSecurityRestrictions,
	classifier.CodePermissionDenied:   availability.ReasonSecurityRestrictions,
}

// Engine makes fallback decisions for one client environment.
type Engine struct {
	detector *availability.Detector
}

// NewEngine creates an engine that consults detector when no explicit reason
// is given.
func NewEngine(detector *availability.Detector) *Engine {
	if detector == nil {
		detector = availability.NewDetector(availability.FullyCapable())
	}
	return &Engine{detector: detector}
}

// Decide picks a fallback for an optional error code and optional reason.
// Empty values mean "absent". Every combination yields a valid Config.
func (e *Engine) Decide(code classifier.Code, reason availability.Reason) Config {
	if reason == availability.ReasonNone {
		if res := e.detector.Detect(); !res.Available {
			reason = res.Reason
		}
	}

	method := selectMethod(code, reason)
	cfg := Config{
		Method:      method,
		Reason:      reason,
		ErrorCode:   code,
		UseFallback: method != MethodErrorOnly && (reason != availability.ReasonNone || fallbackCodes[code]),
	}

	// Notify only when a reason is present or derivable from the code, or
	// when nothing can be shown at all.
	notifyReason := reason
	if notifyReason == availability.ReasonNone {
		notifyReason = codeReasons[code]
	}
	if notifyReason != availability.ReasonNone || method == MethodErrorOnly {
		cfg.ShouldNotify = true
		cfg.Message = BuildNotification(method, notifyReason)
	}
	return cfg
}

// DecideFor decides and also computes the resource locator for originalURL.
func (e *Engine) DecideFor(originalURL string, code classifier.Code, reason availability.Reason) Config {
	cfg := e.Decide(code, reason)
	cfg.URL = ResourceLocator(originalURL, cfg.Method)
	return cfg
}

// ShouldUseFallback reports whether the caller should switch away from the
// primary renderer.
func (e *Engine) ShouldUseFallback(code classifier.Code) bool {
	if !e.detector.Detect().Available {
		return true
	}
	return fallbackCodes[code]
}

func selectMethod(code classifier.Code, reason availability.Reason) Method {
	if m, ok := codeMethods[code]; ok {
		return m
	}
	if m, ok := reasonMethods[reason]; ok {
		return m
	}
	return MethodNativeEmbed
}
