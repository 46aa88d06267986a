// Package errs defines the error taxonomy shared by the query pipeline.
// Each category maps to a distinct process exit code so operators can
// script against failures.
package errs

import "fmt"

// Exit codes by category. 1 is reserved for unclassified failures.
const (
	ExitConfig   = 2
	ExitEnv      = 3
	ExitNotFound = 4
)

// Error is a categorized failure with a fixed exit code.
type Error struct {
	Code int
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// ExitCode reports the process exit status for this error.
func (e *Error) ExitCode() int { return e.Code }

// Config reports an invalid option combination. Raised before any file
// access.
func Config(format string, args ...any) error {
	return &Error{Code: ExitConfig, Msg: fmt.Sprintf(format, args...)}
}

// Env reports a missing external prerequisite, typically the CDR log
// directory being absent because the source system is not active.
func Env(format string, args ...any) error {
	return &Error{Code: ExitEnv, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a file selection that matched nothing for the
// requested window.
func NotFound(format string, args ...any) error {
	return &Error{Code: ExitNotFound, Msg: fmt.Sprintf(format, args...)}
}
