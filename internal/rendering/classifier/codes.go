// Package classifier maps rendering failures to a fixed error taxonomy that
// drives both user-facing messaging and retry behavior.
package classifier

import "github.com/vietddude/renderwatch/internal/core/domain"

// Code identifies a rendering failure.
type Code string

const (
	CodeTimeout            Code = "TIMEOUT"
	CodeNetwork            Code = "NETWORK_ERROR"
	CodeMissingPDF         Code = "MISSING_PDF"
	CodePasswordRequired   Code = "PASSWORD_REQUIRED"
	CodeCancelled          Code = "CANCELLED"
	CodeRenderError        Code = "RENDER_ERROR"
	CodeCanvasError        Code = "CANVAS_ERROR"
	CodeLibraryUnavailable Code = "LIBRARY_UNAVAILABLE"
	CodeWorkerInit         Code = "WORKER_INIT_ERROR"
	CodePermissionDenied   Code = "PERMISSION_DENIED"
	CodeCORS               Code = "CORS_ERROR"
	CodeCorruptedFile      Code = "CORRUPTED_FILE"
	CodeInvalidPDF         Code = "INVALID_PDF"
	CodeUnsupportedFormat  Code = "UNSUPPORTED_FORMAT"
	CodeUnknown            Code = "UNKNOWN"
)

// Codes returns every known code.
func Codes() []Code {
	return []Code{
		CodeTimeout,
		CodeNetwork,
		CodeMissingPDF,
		CodePasswordRequired,
		CodeCancelled,
		CodeRenderError,
		CodeCanvasError,
		CodeLibraryUnavailable,
		CodeWorkerInit,
		CodePermissionDenied,
		CodeCORS,
		CodeCorruptedFile,
		CodeInvalidPDF,
		CodeUnsupportedFormat,
		CodeUnknown,
	}
}

// Category groups codes for retry budgets and reporting.
type Category string

const (
	CategoryNetwork    Category = "network"
	CategoryPermission Category = "permission"
	CategoryFile       Category = "file"
	CategoryRendering  Category = "rendering"
	CategoryLibrary    Category = "library"
	CategoryUnknown    Category = "unknown"
)

// Categories returns the six categories.
func Categories() []Category {
	return []Category{
		CategoryNetwork,
		CategoryPermission,
		CategoryFile,
		CategoryRendering,
		CategoryLibrary,
		CategoryUnknown,
	}
}

type entry struct {
	category    Category
	errorType   domain.ErrorType
	message     string
	suggestion  string
	recoverable bool
	retryable   bool
}

var table = map[Code]entry{
	CodeTimeout: {
		category:    CategoryNetwork,
		errorType:   domain.ErrorTypeTimeout,
		message:     "The document took too long to load.",
		suggestion:  "Check your connection and try again.",
		recoverable: true,
		retryable:   true,
	},
	CodeNetwork: {
		category:    CategoryNetwork,
		errorType:   domain.ErrorTypeNetwork,
		message:     "The document could not be loaded because of a network problem.",
		suggestion:  "Check your internet connection and try again.",
		recoverable: true,
		retryable:   true,
	},
	CodeMissingPDF: {
		category:   CategoryFile,
		errorType:  domain.ErrorTypeNetwork,
		message:    "The document could not be found.",
		suggestion: "The file may have been moved or removed. Contact support if this persists.",
	},
	CodePasswordRequired: {
		category:    CategoryPermission,
		errorType:   domain.ErrorTypePermission,
		message:     "This document is password protected.",
		suggestion:  "Enter the document password to continue.",
		recoverable: true,
	},
	CodeCancelled: {
		category:    CategoryUnknown,
		errorType:   domain.ErrorTypeUnknown,
		message:     "Loading was cancelled.",
		suggestion:  "Open the document again to continue.",
		recoverable: true,
	},
	CodeRenderError: {
		category:    CategoryRendering,
		errorType:   domain.ErrorTypeRendering,
		message:     "A page of this document could not be drawn.",
		suggestion:  "Try reloading the page or use the alternative viewer.",
		recoverable: true,
		retryable:   true,
	},
	CodeCanvasError: {
		category:    CategoryRendering,
		errorType:   domain.ErrorTypeCanvas,
		message:     "Your browser could not prepare a drawing surface for this document.",
		suggestion:  "Close other tabs to free memory, or use the alternative viewer.",
		recoverable: true,
		retryable:   true,
	},
	CodeLibraryUnavailable: {
		category:    CategoryLibrary,
		errorType:   domain.ErrorTypeLibrary,
		message:     "The document viewer failed to load.",
		suggestion:  "Reload the page. The document will open in your browser's viewer meanwhile.",
		recoverable: true,
		retryable:   true,
	},
	CodeWorkerInit: {
		category:    CategoryLibrary,
		errorType:   domain.ErrorTypeWorker,
		message:     "The document viewer could not start its background process.",
		suggestion:  "Reload the page or try a different browser.",
		recoverable: true,
		retryable:   true,
	},
	CodePermissionDenied: {
		category:   CategoryPermission,
		errorType:  domain.ErrorTypePermission,
		message:    "You do not have access to this document.",
		suggestion: "Sign in with an account that owns this document, or purchase access.",
	},
	CodeCORS: {
		category:    CategoryNetwork,
		errorType:   domain.ErrorTypeNetwork,
		message:     "Your browser blocked the document from loading here.",
		suggestion:  "Download the document to view it.",
		recoverable: true,
	},
	CodeCorruptedFile: {
		category:   CategoryFile,
		errorType:  domain.ErrorTypeParsing,
		message:    "This document appears to be damaged.",
		suggestion: "Contact support so the file can be replaced.",
	},
	CodeInvalidPDF: {
		category:   CategoryFile,
		errorType:  domain.ErrorTypeParsing,
		message:    "This file is not a valid PDF document.",
		suggestion: "Contact support so the file can be checked.",
	},
	CodeUnsupportedFormat: {
		category:    CategoryFile,
		errorType:   domain.ErrorTypeParsing,
		message:     "This document uses features the viewer does not support.",
		suggestion:  "The document will open in your browser's viewer instead.",
		recoverable: true,
	},
	CodeUnknown: {
		category:    CategoryUnknown,
		errorType:   domain.ErrorTypeUnknown,
		message:     "Something went wrong while opening the document.",
		suggestion:  "Try again in a moment. Contact support if this persists.",
		recoverable: true,
		retryable:   true,
	},
}

func lookup(code Code) entry {
	if e, ok := table[code]; ok {
		return e
	}
	return table[CodeUnknown]
}
