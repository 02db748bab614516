package driver

import (
	"errors"
	"fmt"

	"github.com/adamwoolhether/httpdriver/transport"
)

var (
	// ErrTransportUnavailable is wrapped by [ConfigError] when no transport
	// can carry exchanges.
	ErrTransportUnavailable = errors.New("transport unavailable")
	// ErrUnknownOption is wrapped by [ConfigError] for option names outside
	// the transport's key table. It is [transport.ErrUnknownKey].
	ErrUnknownOption = transport.ErrUnknownKey
	// ErrHTTPStatus is the sentinel error wrapped by [StatusError].
	ErrHTTPStatus = errors.New("http status error")
	// ErrAuthFailure is joined with [ErrHTTPStatus] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
)

// ConfigError is returned when a Driver cannot be configured as asked.
// No exchange is attempted.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}

	return fmt.Sprintf("config[%s]: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransportError is returned when the exchange could not complete.
type TransportError struct {
	Message string
	Code    transport.Code
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error %d: %s", int(e.Code), e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is returned when the exchange completed with a status of 400
// or above. Response holds everything the server sent.
type StatusError struct {
	StatusCode int
	Body       string
	Response   *Response
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

func newStatusError(resp *Response) *StatusError {
	err := ErrHTTPStatus
	if resp.status == 401 || resp.status == 403 {
		err = errors.Join(ErrHTTPStatus, ErrAuthFailure)
	}

	body := resp.raw
	if len(body) > maxErrBodySize {
		body = body[:maxErrBodySize]
	}

	return &StatusError{
		StatusCode: resp.status,
		Body:       string(body),
		Response:   resp,
		Err:        err,
	}
}
