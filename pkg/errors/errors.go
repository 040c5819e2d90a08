package errors

import (
	"fmt"
	"io"
	"strings"
)

// InterceptorError is the interface implemented by all positioned errors in this module.
type InterceptorError interface {
	error
	Pos() Position
	Kind() string // e.g., "Config", "Runtime"
	// Message returns the specific error message without position info.
	Message() string
	Unwrap() error
}

// --- Concrete Error Types ---

// ConfigError represents a problem in a scenario or configuration document.
type ConfigError struct {
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *ConfigError) Error() string {
	if !e.IsKnown() {
		return fmt.Sprintf("Config Error: %s", e.Msg)
	}
	return fmt.Sprintf("Config Error at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *ConfigError) Pos() Position   { return e.Position }
func (e *ConfigError) Kind() string    { return "Config" }
func (e *ConfigError) Message() string { return e.Msg }
func (e *ConfigError) Unwrap() error   { return e.Cause }
func (e *ConfigError) CausedBy(cause error) *ConfigError {
	e.Cause = cause
	return e
}

// RuntimeError represents a failure inside the host engine that is not a
// script-level exception, e.g. calling a value that is not a function.
type RuntimeError struct {
	// Runtime errors usually have no source position; the zero Position is fine.
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *RuntimeError) Error() string {
	if !e.IsKnown() {
		return fmt.Sprintf("Runtime Error: %s", e.Msg)
	}
	return fmt.Sprintf("Runtime Error at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *RuntimeError) Pos() Position   { return e.Position }
func (e *RuntimeError) Kind() string    { return "Runtime" }
func (e *RuntimeError) Message() string { return e.Msg }
func (e *RuntimeError) Unwrap() error   { return e.Cause }
func (e *RuntimeError) CausedBy(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// Runtimef builds a RuntimeError with a formatted message.
func Runtimef(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}

// --- Error Reporting ---

// DisplayErrors writes a list of errors to w in a user-friendly format,
// including the source line and a position marker when the position is known.
func DisplayErrors(w io.Writer, source string, errs []InterceptorError) {
	if len(errs) == 0 {
		return
	}

	lines := strings.Split(source, "\n")

	for _, err := range errs {
		pos := err.Pos()
		kind := err.Kind()
		msg := err.Message()

		lineIdx := pos.Line - 1
		if lineIdx < 0 || lineIdx >= len(lines) {
			fmt.Fprintf(w, "%s Error: %s\n", kind, msg)
			continue
		}

		sourceLine := strings.TrimRight(lines[lineIdx], "\r\n\t ")

		if pos.File != "" {
			fmt.Fprintf(w, "%s Error at %s:%d:%d: %s\n", kind, pos.File, pos.Line, pos.Column, msg)
		} else {
			fmt.Fprintf(w, "%s Error at %d:%d: %s\n", kind, pos.Line, pos.Column, msg)
		}
		fmt.Fprintf(w, "  %s\n", sourceLine)

		col := pos.Column - 1
		if col < 0 {
			col = 0
		}
		fmt.Fprintf(w, "  %s^\n", strings.Repeat(" ", col))
		fmt.Fprintln(w)
	}
}
