package drawlist

import "github.com/pkg/errors"

// Code identifies the kind of error a drawlist operation failed with,
// matching the typed domain-error taxonomy shared across the runtime.
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeOOM             Code = "OOM"
	CodeLimit           Code = "LIMIT"
	CodeUnsupported     Code = "UNSUPPORTED"
	CodeFormat          Code = "FORMAT"

	// ZRDLBadParams and ZRDLTooLarge are the wire-level ZRDL_BAD_PARAMS /
	// ZRDL_TOO_LARGE identifiers, surfaced through Code values above
	// (BadParams -> CodeInvalidArgument, TooLarge -> CodeLimit) but kept
	// as distinct sentinels so callers can match on the exact wire name.
	ZRDLBadParams = "ZRDL_BAD_PARAMS"
	ZRDLTooLarge  = "ZRDL_TOO_LARGE"
	ZRDLFormat    = "ZRDL_FORMAT"
)

// Error is the typed error returned by the Builder and Decoder. Builder
// errors are sticky: once set, the Builder records Err and every subsequent
// operation becomes a no-op until Reset is called.
type Error struct {
	Code    Code
	Wire    string // wire-level identifier, e.g. "ZRDL_BAD_PARAMS"
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
	return newErr(CodeInvalidArgument, ZRDLBadParams, msg)
}

func tooLarge(msg string) *Error {
	return newErr(CodeLimit, ZRDLTooLarge, msg)
}

func formatErr(offset int, msg string) *Error {
	e := newErr(CodeFormat, ZRDLFormat, msg)
	e.cause = errors.Wrapf(e.cause, "at byte offset %d", offset)
	return e
}
