package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation error")

	// ErrMalformedResponse is matched by every *ProtocolError.
	ErrMalformedResponse = errors.New("malformed response")
)

// ValidationError is a locally detected problem: an ill-formed Request or a
// response element whose shape contradicts its status. It is never sent over the wire.
type ValidationError struct {
	// Operation of the request being validated, empty if unknown.
	Op Operation

	// Wire name of the offending field.
	Field string

	// A short description of what is wrong with the field.
	Reason string

	// Position of the request or response element inside a batch, -1 when not in a batch.
	Index int
}

func newValidationError(op Operation, field, reason string) *ValidationError {
	return &ValidationError{Op: op, Field: field, Reason: reason, Index: -1}
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: field %q %s", ErrValidation, e.Field, e.Reason)
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s request field %q %s", ErrValidation, e.Op, e.Field, e.Reason)
	}
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s (item %d)", msg, e.Index)
	}
	return msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ProtocolError means the decoded body does not match the submitted batch.
type ProtocolError struct {
	Reason string

	// Number of requests submitted and number of elements received, -1 if not an array.
	Expected int
	Received int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedResponse, e.Reason)
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrMalformedResponse
}
