package zrevent

import "github.com/pkg/errors"

// Code identifies the kind of error an event codec operation failed with.
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeFormat          Code = "FORMAT"
	CodeUnsupported     Code = "UNSUPPORTED"

	ZREVBadParams   = "ZREV_BAD_PARAMS"
	ZREVFormat      = "ZREV_FORMAT"
	ZREVUnsupported = "ZREV_UNSUPPORTED"
)

// Error is the typed error returned by Encoder and Decoder.
type Error struct {
	Code    Code
	Wire    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Wire != "" {
		return e.Wire + ": " + e.Message
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func newErr(code Code, wire, msg string) *Error {
	return &Error{Code: code, Wire: wire, Message: msg, cause: errors.New(msg)}
}

func badParams(msg string) *Error {
	return newErr(CodeInvalidArgument, ZREVBadParams, msg)
}

func formatErr(offset int, msg string) *Error {
	e := newErr(CodeFormat, ZREVFormat, msg)
	e.cause = errors.Wrapf(e.cause, "at byte offset %d", offset)
	return e
}

func unsupportedErr(msg string) *Error {
	return newErr(CodeUnsupported, ZREVUnsupported, msg)
}
