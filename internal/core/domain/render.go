package domain

// RenderMethod is the strategy used to display a document.
type RenderMethod string

const (
	MethodCanvas   RenderMethod = "canvas"   // primary canvas renderer
	MethodNative   RenderMethod = "native"   // browser built-in viewer
	MethodServer   RenderMethod = "server"   // server-side conversion
	MethodImage    RenderMethod = "image"    // pre-rendered page images
	MethodDownload RenderMethod = "download" // download-only fallback
)

// RenderMethods lists every method in display order.
func RenderMethods() []RenderMethod {
	return []RenderMethod{MethodCanvas, MethodNative, MethodServer, MethodImage, MethodDownload}
}

// Valid reports whether m is a known method.
func (m RenderMethod) Valid() bool {
	switch m {
	case MethodCanvas, MethodNative, MethodServer, MethodImage, MethodDownload:
		return true
	}
	return false
}

// IsFallback reports whether m is a degraded strategy.
func (m RenderMethod) IsFallback() bool {
	return m.Valid() && m != MethodCanvas
}

// RenderStage is the point reached by a single rendering attempt.
type RenderStage string

const (
	StageInitializing RenderStage = "initializing"
	StageFetching     RenderStage = "fetching"
	StageParsing      RenderStage = "parsing"
	StageRendering    RenderStage = "rendering"
	StageComplete     RenderStage = "complete"
	StageError        RenderStage = "error"
)

// RenderStages lists every stage in lifecycle order.
func RenderStages() []RenderStage {
	return []RenderStage{
		StageInitializing,
		StageFetching,
		StageParsing,
		StageRendering,
		StageComplete,
		StageError,
	}
}

// Valid reports whether s is a known stage.
func (s RenderStage) Valid() bool {
	switch s {
	case StageInitializing, StageFetching, StageParsing, StageRendering, StageComplete, StageError:
		return true
	}
	return false
}

// ErrorType is the coarse failure kind recorded on an ErrorEvent.
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network-error"
	ErrorTypeTimeout    ErrorType = "timeout-error"
	ErrorTypeParsing    ErrorType = "parsing-error"
	ErrorTypeRendering  ErrorType = "rendering-error"
	ErrorTypePermission ErrorType = "permission-error"
	ErrorTypeLibrary    ErrorType = "library-error"
	ErrorTypeWorker     ErrorType = "worker-error"
	ErrorTypeCanvas     ErrorType = "canvas-error"
	ErrorTypeMemory     ErrorType = "memory-error"
	ErrorTypeUnknown    ErrorType = "unknown-error"
)

// ErrorTypes lists every error type.
func ErrorTypes() []ErrorType {
	return []ErrorType{
		ErrorTypeNetwork,
		ErrorTypeTimeout,
		ErrorTypeParsing,
		ErrorTypeRendering,
		ErrorTypePermission,
		ErrorTypeLibrary,
		ErrorTypeWorker,
		ErrorTypeCanvas,
		ErrorTypeMemory,
		ErrorTypeUnknown,
	}
}

// Valid reports whether t is a known error type.
func (t ErrorType) Valid() bool {
	switch t {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeParsing, ErrorTypeRendering,
		ErrorTypePermission, ErrorTypeLibrary, ErrorTypeWorker, ErrorTypeCanvas,
		ErrorTypeMemory, ErrorTypeUnknown:
		return true
	}
	return false
}
