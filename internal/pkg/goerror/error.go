// Package goerror carries the classified errors shared by the auth client
// and the mock backend. An Error knows its category, a stable code, the
// message safe to show an end user, and optionally the cause it wraps.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned by stores when a record already exists.
	ErrConflict = errors.New("resource conflict")
)

// Type is the broad category of an Error.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

var typeNames = map[Type]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "ERROR_TYPE_UNKNOWN"
}

// fallback is the Error() text used when neither a cause nor a message is set.
func (t Type) fallback() string {
	switch t {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	case TypeServer:
		return "Internal error"
	}
	return "Unknown error"
}

// Code identifies the failure precisely enough for callers to branch on it
// and for the HTTP layer to pick a status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeExpired marks a time-boxed artifact (OTP challenge, provisional
	// token, session) that is no longer usable.
	CodeExpired
	// CodeUnavailable marks an auth backend or store that could not be reached.
	CodeUnavailable
)

type codeInfo struct {
	name   string
	status int
}

var codes = map[Code]codeInfo{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:       {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:       {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:   {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:      {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:        {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
	CodeExpired:        {"ERROR_CODE_EXPIRED", http.StatusGone},
	CodeUnavailable:    {"ERROR_CODE_UNAVAILABLE", http.StatusServiceUnavailable},
}

func (c Code) info() codeInfo {
	if ci, ok := codes[c]; ok {
		return ci
	}
	return codes[CodeInternal]
}

func (c Code) String() string { return c.info().name }

// Status is the HTTP status the mock backend answers with for c.
func (c Code) Status() int { return c.info().status }

// Error is the classified error type. Build one with the New* constructors.
type Error struct {
	cause  error
	msg    string
	kind   Type
	code   Code
	fields map[string]string
}

// Error prefers the wrapped cause, then the message, then a per-type default.
func (e *Error) Error() string {
	switch {
	case e.cause != nil:
		return e.cause.Error()
	case e.msg != "":
		return e.msg
	}
	return e.kind.fallback()
}

// String is the verbose form used in logs.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v", e.kind, e.code, e.msg, e.cause)
}

// Msg is the text that may be shown to a user.
func (e *Error) Msg() string { return e.msg }

func (e *Error) Type() Type { return e.kind }

func (e *Error) Code() Code { return e.code }

// Fields holds per-field validation messages keyed by field name.
func (e *Error) Fields() map[string]string { return e.fields }

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) StatusCode() int { return e.code.Status() }

func build(cause error, msg string, kind Type, code Code) *Error {
	return &Error{cause: cause, msg: msg, kind: kind, code: code}
}

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return build(err, "Internal server error", TypeServer, CodeInternal)
}

func NewBusiness(msg string, code Code) error {
	return build(nil, msg, TypeBusiness, code)
}

// NewBusinessCause is NewBusiness with err kept reachable for errors.Is.
func NewBusinessCause(err error, msg string, code Code) error {
	return build(err, msg, TypeBusiness, code)
}

// NewUnavailable reports a dependency that could not be reached.
func NewUnavailable(err error, msg string) error {
	return build(err, msg, TypeServer, CodeUnavailable)
}

// NewInvalidInput wraps a validator error, or, when err is nil, builds the
// field map from kv pairs. An odd kv length is an invalid format error.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return build(err, "Validation error", TypeValidation, CodeInvalidInput)
	}
	if len(kv)%2 != 0 {
		return build(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	e := build(nil, "Validation error", TypeValidation, CodeInvalidInput)
	e.fields = make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		e.fields[kv[i]] = kv[i+1]
	}

	return e
}

// NewInvalidFormat reports a body that could not be decoded at all.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return build(nil, msg, TypeValidation, CodeInvalidFormat)
}
