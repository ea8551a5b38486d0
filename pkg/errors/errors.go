// Package errors provides structured error handling for logsieve.
// It implements coded errors with context and stack traces so the CLI
// and pipeline can distinguish fatal configuration breakage from
// per-file and per-row conditions that are recovered as data.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Code identifies an error class for programmatic handling.
type Code string

const (
	// Input errors (1xx)
	CodeFileNotFound   Code = "E101"
	CodeFilePermission Code = "E102"
	CodeInvalidFormat  Code = "E103"
	CodeUndecodable    Code = "E104"
	CodeEncodingError  Code = "E105"

	// Validation errors (2xx)
	CodeRowShape      Code = "E201"
	CodeSchemaInvalid Code = "E202"
	CodeBadTimestamp  Code = "E203"

	// Output errors (3xx)
	CodeWriteFailed Code = "E301"
	CodeSinkClosed  Code = "E302"

	// System errors (4xx)
	CodeContextCanceled Code = "E401"
	CodeTimeout         Code = "E402"
	CodePanic           Code = "E403"

	// Configuration errors (5xx) — the only fatal class
	CodeConfigInvalid  Code = "E501"
	CodeSpecConflict   Code = "E502"
	CodeSpecUnknownTyp Code = "E503"

	CodeUnknown Code = "E999"
)

// SieveError is the base error type for all logsieve errors.
type SieveError struct {
	Code       Code
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace []Frame
}

// Frame represents a stack frame.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *SieveError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, v))
			first = false
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *SieveError) Unwrap() error {
	return e.Cause
}

// Is matches on code.
func (e *SieveError) Is(target error) bool {
	if t, ok := target.(*SieveError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error.
func (e *SieveError) WithContext(key string, value interface{}) *SieveError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new SieveError.
func New(code Code, message string) *SieveError {
	return &SieveError{
		Code:       code,
		Message:    message,
		StackTrace: captureStack(2),
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code Code, message string) *SieveError {
	if err == nil {
		return nil
	}
	return &SieveError{
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: captureStack(2),
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *SieveError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func captureStack(skip int) []Frame {
	var frames []Frame
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	pcs = pcs[:n]

	cf := runtime.CallersFrames(pcs)
	for {
		frame, more := cf.Next()
		frames = append(frames, Frame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more || len(frames) >= 10 {
			break
		}
	}
	return frames
}

// --- Convenience constructors ---

// FileNotFound creates a file not found error.
func FileNotFound(path string) *SieveError {
	return New(CodeFileNotFound, "file not found").WithContext("path", path)
}

// ConfigInvalid creates a fatal configuration error. Raised before any
// record is processed; per-record recovery cannot compensate for a
// broken specification.
func ConfigInvalid(reason string) *SieveError {
	return New(CodeConfigInvalid, "invalid configuration").WithContext("reason", reason)
}

// SpecConflict creates a fatal error for a self-contradictory field spec.
func SpecConflict(field, reason string) *SieveError {
	return New(CodeSpecConflict, "field specification conflict").
		WithContext("field", field).
		WithContext("reason", reason)
}

// ContextCanceled creates a cancellation error.
func ContextCanceled(operation string) *SieveError {
	return New(CodeContextCanceled, "operation canceled").
		WithContext("operation", operation)
}

// --- Error checking utilities ---

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	var se *SieveError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var se *SieveError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

// IsConfiguration reports whether the error belongs to the fatal
// configuration class.
func IsConfiguration(err error) bool {
	switch GetCode(err) {
	case CodeConfigInvalid, CodeSpecConflict, CodeSpecUnknownTyp:
		return true
	default:
		return false
	}
}
