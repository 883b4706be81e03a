package classifier

import (
	"fmt"

	"github.com/vietddude/renderwatch/internal/core/domain"
)

// Record is the structured description of a failure. UserMessage and
// Suggestion are safe to show to end users; OriginalError never is.
type Record struct {
	Code          Code             `json:"code"`
	Category      Category         `json:"category"`
	ErrorType     domain.ErrorType `json:"errorType"`
	UserMessage   string           `json:"userMessage"`
	Suggestion    string           `json:"suggestion"`
	Recoverable   bool             `json:"recoverable"`
	Retryable     bool             `json:"retryable"`
	MaxAttempts   int              `json:"maxAttempts"`
	OriginalError error            `json:"-"`
}

// Classify returns the record for code. Unknown codes classify as CodeUnknown.
func Classify(code Code) Record {
	if _, ok := table[code]; !ok {
		code = CodeUnknown
	}
	e := lookup(code)
	return Record{
		Code:        code,
		Category:    e.category,
		ErrorType:   e.errorType,
		UserMessage: e.message,
		Suggestion:  e.suggestion,
		Recoverable: e.recoverable,
		Retryable:   e.retryable,
		MaxAttempts: MaxAttempts(code),
	}
}

// ClassifyError parses err and classifies the resulting code.
func ClassifyError(err error) Record {
	rec := Classify(Parse(err))
	rec.OriginalError = err
	return rec
}

// Error carries an explicit code through error chains.
type Error struct {
	Code Code
	Err  error
}

// NewError wraps err with an explicit code.
func NewError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
