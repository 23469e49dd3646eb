// Package errors provides the project error type: a stable code, a client facing message and an optional cause
package errors

// Always import the project errors package as perr (platform/errors)

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a failure for clients, logs and HTTP status mapping
// values are part of the JSON wire, append only
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors, including broken internal invariants
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is for panics recovered by middleware or the pipeline guard
	ErrorCodePanic

	// ErrorCodeUnavailable is for an exhausted pipeline budget, a later retry may succeed
	ErrorCodeUnavailable

	// ErrorCodeForbidden is for whitelist denials
	ErrorCodeForbidden

	// ErrorCodeValidation is for bad query parameters or path segments
	ErrorCodeValidation

	// ErrorCodeNotFound is for missing repositories, branches or empty remotes
	ErrorCodeNotFound

	// ErrorCodeUpstream is for fetch, auth, network and scan failures against a remote host
	ErrorCodeUpstream
)

type codeInfo struct {
	name   string
	status int
	retry  bool
}

var codes = map[ErrorCode]codeInfo{
	ErrorCodeUnknown:     {"unknown", http.StatusInternalServerError, false},
	ErrorCodePanic:       {"panic", http.StatusInternalServerError, false},
	ErrorCodeUnavailable: {"unavailable", http.StatusServiceUnavailable, true},
	ErrorCodeForbidden:   {"forbidden", http.StatusForbidden, false},
	ErrorCodeValidation:  {"validation", http.StatusBadRequest, false},
	ErrorCodeNotFound:    {"not_found", http.StatusNotFound, false},
	ErrorCodeUpstream:    {"upstream", http.StatusBadGateway, true},
}

func infoOf(c ErrorCode) codeInfo {
	if ci, ok := codes[c]; ok {
		return ci
	}
	return codes[ErrorCodeUnknown]
}

// String names the code for logs
func (c ErrorCode) String() string { return infoOf(c).name }

// HTTPStatusCode maps a code to its response status, unknown codes are 500
func HTTPStatusCode(c ErrorCode) int { return infoOf(c).status }

// Error carries a code and a message safe to show clients
// field names the offending parameter, op the pipeline stage, orig the wrapped cause
type Error struct {
	code  ErrorCode
	msg   string
	field string
	op    string
	orig  error
}

// Wire is the JSON form of an error
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.orig == nil:
		return e.msg
	default:
		return e.msg + ": " + e.orig.Error()
	}
}

func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Message returns the client facing message without the wrapped cause
func (e *Error) Message() string { return e.msg }

// Field returns the offending parameter, if any
func (e *Error) Field() string { return e.field }

// Op returns the stage label, if set
func (e *Error) Op() string { return e.op }

// WireFrom converts any error into its wire form
// foreign errors keep their text under the code CodeOf derives, nil is the zero Wire
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return Wire{Code: e.code, Message: e.msg, Field: e.field}
	}
	return Wire{Code: CodeOf(err), Message: err.Error()}
}

// CodeOf extracts the code from any error
// bare context deadlines are Unavailable so a slow remote does not read as a bug
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	if stderrs.Is(err, context.DeadlineExceeded) {
		return ErrorCodeUnavailable
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err carries code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus returns the response status for any error, nil is 200
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return HTTPStatusCode(CodeOf(err))
}

// Retryable reports whether the same request may succeed later
func Retryable(err error) bool { return err != nil && infoOf(CodeOf(err)).retry }

// As returns the outermost *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// WithField returns a copy of err naming the offending parameter, foreign errors pass through
func WithField(err error, field string) error {
	return with(err, func(c *Error) { c.field = field })
}

// WithOp returns a copy of err labelled with a stage, foreign errors pass through
func WithOp(err error, op string) error {
	return with(err, func(c *Error) { c.op = op })
}

func with(err error, set func(*Error)) error {
	e, ok := As(err)
	if !ok {
		return err
	}
	c := *e
	set(&c)
	return &c
}

// New returns an error with code and msg
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf is New with a formatted message
func Newf(code ErrorCode, format string, a ...any) error { return New(code, fmt.Sprintf(format, a...)) }

// Wrap returns an error with code and msg that keeps orig as its cause
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf is Wrap with a formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return Wrap(orig, code, fmt.Sprintf(format, a...))
}

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// Validationf returns a validation error
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }

// PanicErrf returns a panic error
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }

// Forbiddenf returns a forbidden error
func Forbiddenf(format string, a ...any) error { return Newf(ErrorCodeForbidden, format, a...) }

// Upstreamf returns an upstream failure error
func Upstreamf(format string, a ...any) error { return Newf(ErrorCodeUpstream, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// Internalf returns an unknown error
func Internalf(format string, a ...any) error { return Newf(ErrorCodeUnknown, format, a...) }
