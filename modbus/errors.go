package modbus

import (
	"errors"
	"fmt"
)

// Errors reported by a single serial exchange. None of them is fatal to the
// engine: the next exchange starts from a clean line.
var (
	// ErrNoResponse is returned by the requester when nothing (or too little
	// to form a frame) was read back before the first-byte timeout.
	ErrNoResponse = errors.New("no response from unit")

	// ErrShortFrame describes a capture too short to be a frame. Requesters see
	// it together with ErrNoResponse; responders drop such captures.
	ErrShortFrame = errors.New("frame too short")

	// ErrChecksum describes a frame whose trailing CRC does not match its
	// contents.
	ErrChecksum = errors.New("invalid frame checksum")

	// ErrAddressMismatch is returned when a response carries a unit
	// identifier other than the one addressed by the request.
	ErrAddressMismatch = errors.New("response from wrong unit")

	// ErrUnsupportedFunction matches protocol violations caused by a function
	// code this package does not serve.
	ErrUnsupportedFunction = errors.New("unsupported function")

	// ErrUnexpectedLength is returned by the client helpers when a reply
	// carries a different amount of data than requested.
	ErrUnexpectedLength = errors.New("unexpected response length")

	// ErrUnexpectedFunction is returned when a response carries a function
	// code other than the one of the request.
	ErrUnexpectedFunction = errors.New("response for other function")

	// ErrBadEcho is returned by the client write helpers when the echo in the
	// reply differs from the request.
	ErrBadEcho = errors.New("response echo differs from request")
)

// shortFrameError reports a capture of n bytes which cannot form a frame.
type shortFrameError struct {
	n int
}

// Error implements error.
func (e shortFrameError) Error() string {
	return fmt.Sprintf("%s: %d bytes", ErrNoResponse, e.n)
}

// Is makes a short capture match both ErrShortFrame and ErrNoResponse.
func (e shortFrameError) Is(target error) bool {
	return target == ErrShortFrame || target == ErrNoResponse
}

// ExceptionResponseError is returned by the requester when the peer answers
// with an exception response.
type ExceptionResponseError struct {
	// Function is the function code of the request (without the exception
	// bias).
	Function FunctionCode

	// Exception is the exception code reported by the peer.
	Exception ExceptionCode
}

// Error implements error.
func (e *ExceptionResponseError) Error() string {
	return fmt.Sprintf("%s: unit returned exception code %d (%s)",
		e.Function, uint8(e.Exception), e.Exception)
}

// Unwrap returns the exception code so errors.Is and errors.As can match it.
func (e *ExceptionResponseError) Unwrap() error {
	return e.Exception
}

// ProtocolViolation is produced when a structurally valid request cannot be
// served. The responder answers it with an exception frame.
type ProtocolViolation struct {
	// Function is the function code of the offending request.
	Function FunctionCode

	// Exception is the exception code to reply with.
	Exception ExceptionCode
}

// Error implements error.
func (v *ProtocolViolation) Error() string {
	return fmt.Sprintf("%s: %s", v.Function, v.Exception)
}

// Unwrap returns the exception code.
func (v *ProtocolViolation) Unwrap() error {
	return v.Exception
}

// Is matches ErrUnsupportedFunction for illegal function violations.
func (v *ProtocolViolation) Is(target error) bool {
	return target == ErrUnsupportedFunction &&
		v.Exception == ExceptionIllegalFunction
}

// violation returns a protocol violation for function fc if err is an
// exception code, or err unchanged otherwise.
func violation(fc FunctionCode, err error) error {
	if ec, ok := exceptionFor(err); ok {
		return &ProtocolViolation{Function: fc, Exception: ec}
	}
	return err
}
