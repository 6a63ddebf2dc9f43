package model

import "fmt"

// ErrorCode is the taxonomy surfaced to callers (spec §7). Unlike the
// source, which sometimes returns a numeric sentinel (e.g. -2.0) in
// place of an error, every fallible setter in this module returns a
// *Error with one of these codes.
type ErrorCode string

const (
	// ErrNone is never constructed as an error value; it exists only so
	// callers can compare against it if they're threading a code through
	// a channel rather than an error interface.
	ErrNone ErrorCode = "NONE"

	// ErrConnection: transport not open, disconnected, or the transport
	// returned an unrecoverable code (NO_DEVICE).
	ErrConnection ErrorCode = "CONNECTION"

	// ErrUnsupported: operation not valid for the connected model.
	ErrUnsupported ErrorCode = "UNSUPPORTED"

	// ErrParameter: argument out of range; no mutation occurred.
	ErrParameter ErrorCode = "PARAMETER"

	// ErrAccess: OS-level permission to open the transport was refused.
	ErrAccess ErrorCode = "ACCESS"
)

// UnknownModelStatus is the dedicated status code emitted when connect
// encounters an unrecognized product id (spec §4.7).
const UnknownModelStatus = 10000

// StatusAnalyzerOverload is emitted when a packet is dropped because
// the analyzer was still busy with the previous one (spec §4.6).
const StatusAnalyzerOverload = 10001

// Error is the sum-typed result spec §9 asks for in place of the
// source's mixed exception/sentinel-return style.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds an Error with a formatted message.
func NewError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ErrorCode from err, or ErrConnection if err is
// not one of ours (a defensive default — an unclassified failure while
// talking to a device is most often the transport going away).
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrNone
	}
	if se, ok := err.(*Error); ok {
		return se.Code
	}
	return ErrConnection
}
