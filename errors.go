package jolokia

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kroksys/jolokia/protocol"
	"github.com/kroksys/jolokia/registry"
)

// TransportError is an HTTP level failure: the agent could not be reached,
// the exchange was cancelled, or the reply had a non-2xx status. It always
// fails the whole call.
type TransportError struct {
	// HTTP status of the reply, 0 if no reply was received.
	StatusCode int

	// Body of a non-2xx reply.
	Body []byte

	Err error
}

// Longest slice of a response body quoted by TransportError.Error.
const maxBodyInError = 200

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("jolokia transport error (HTTP %d): %s", e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("jolokia transport error: %s", e.Err)
	}
	body := strings.TrimSpace(string(e.Body))
	if len(body) > maxBodyInError {
		cut := maxBodyInError
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	if body == "" {
		return fmt.Sprintf("jolokia transport error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("jolokia transport error: HTTP %d: %s", e.StatusCode, body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Returns true if the exchange was aborted by context cancellation or deadline.
func (e *TransportError) Canceled() bool {
	return errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded)
}

// RemoteError is a failure reported by the agent for one item of a batch.
// errors.Is matches it against the *registry.ExceptionClass of its error type.
type RemoteError struct {
	Class *registry.ExceptionClass

	// Position of the failed item in the batch.
	Index int

	Status     int
	ErrorType  string
	Message    string
	Stacktrace string

	// The request that failed.
	Request protocol.Request
}

func newRemoteError(resp protocol.Response, index int) *RemoteError {
	return &RemoteError{
		Class:      registry.Exception(resp.ErrorType),
		Index:      index,
		Status:     resp.Status,
		ErrorType:  resp.ErrorType,
		Message:    remoteMessage(resp.Error),
		Stacktrace: resp.Stacktrace,
		Request:    resp.Request,
	}
}

// The agent prefixes error texts with the exception type,
// "java.lang.IllegalArgumentException : Invalid request type 'versio'".
func remoteMessage(text string) string {
	if _, msg, found := strings.Cut(text, ": "); found {
		return strings.TrimSpace(msg)
	}
	return strings.TrimSpace(text)
}

func (e *RemoteError) Error() string {
	msg := e.Class.Name
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Stacktrace != "" {
		msg = fmt.Sprintf("%s\n%s", msg, strings.TrimRight(e.Stacktrace, "\n"))
	}
	return msg
}

func (e *RemoteError) Is(target error) bool {
	class, ok := target.(*registry.ExceptionClass)
	return ok && class == e.Class
}

// BatchError carries one *RemoteError per failed item, in batch order.
type BatchError struct {
	Errors []*RemoteError
}

func (e *BatchError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("jolokia: 1 request failed: %s", firstLine(e.Errors[0].Error()))
	}
	names := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		names[i] = fmt.Sprintf("#%d %s", err.Index, firstLine(err.Error()))
	}
	return fmt.Sprintf("jolokia: %d requests failed: %s", len(e.Errors), strings.Join(names, "; "))
}

// Unwrap exposes every item error to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// Returns a *BatchError for every failed response, nil if none failed.
func collectErrors(responses []protocol.Response) *BatchError {
	var errs []*RemoteError
	for i, resp := range responses {
		if resp.Status >= 400 {
			errs = append(errs, newRemoteError(resp, i))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &BatchError{Errors: errs}
}
