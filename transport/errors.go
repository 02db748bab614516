package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
)

// Code classifies why an exchange failed. The numbering follows libcurl's
// error codes so values are familiar in logs.
type Code int

const (
	CodeOK                     Code = 0
	CodeUnsupportedProtocol    Code = 1
	CodeMalformedURL           Code = 3
	CodeCouldntResolveHost     Code = 6
	CodeCouldntConnect         Code = 7
	CodeHTTPReturnedError      Code = 22
	CodeWriteError             Code = 23
	CodeOperationTimedOut      Code = 28
	CodeSSLConnectError        Code = 35
	CodeAbortedByCallback      Code = 42
	CodeBadFunctionArgument    Code = 43
	CodeTooManyRedirects       Code = 47
	CodeRecvError              Code = 56
	CodePeerFailedVerification Code = 60
)

var codeText = map[Code]string{
	CodeOK:                     "no error",
	CodeUnsupportedProtocol:    "unsupported protocol",
	CodeMalformedURL:           "malformed url",
	CodeCouldntResolveHost:     "couldn't resolve host",
	CodeCouldntConnect:         "couldn't connect",
	CodeHTTPReturnedError:      "http returned error",
	CodeWriteError:             "write error",
	CodeOperationTimedOut:      "operation timed out",
	CodeSSLConnectError:        "ssl connect error",
	CodeAbortedByCallback:      "aborted",
	CodeBadFunctionArgument:    "bad argument",
	CodeTooManyRedirects:       "too many redirects",
	CodeRecvError:              "failure receiving data",
	CodePeerFailedVerification: "peer certificate verification failed",
}

func (c Code) String() string {
	if s, ok := codeText[c]; ok {
		return s
	}

	return fmt.Sprintf("code %d", int(c))
}

var (
	// ErrTooManyRedirects is returned once the redirect limit is reached.
	ErrTooManyRedirects = errors.New("stopped after too many redirects")
	// ErrHandleClosed is returned when a closed handle is reused.
	ErrHandleClosed = errors.New("handle closed")
)

// Error is a failed exchange with its classification.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport error %d (%s): %s", int(e.Code), e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Err: err}
}

// Classify maps an error from the net/http stack to a Code.
func Classify(err error) Code {
	if err == nil {
		return CodeOK
	}

	var (
		te        *Error
		dnsErr    *net.DNSError
		netErr    net.Error
		opErr     *net.OpError
		unknownCA x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		certErr   x509.CertificateInvalidError
		verifyErr *tls.CertificateVerificationError
		recordErr tls.RecordHeaderError
	)

	switch {
	case errors.As(err, &te):
		return te.Code
	case errors.Is(err, ErrTooManyRedirects):
		return CodeTooManyRedirects
	case errors.Is(err, context.Canceled), errors.Is(err, ErrContextEnded) && !errors.Is(err, context.DeadlineExceeded):
		return CodeAbortedByCallback
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrWaitingFailed), errors.As(err, &netErr) && netErr.Timeout():
		return CodeOperationTimedOut
	case errors.As(err, &dnsErr):
		return CodeCouldntResolveHost
	case errors.As(err, &unknownCA), errors.As(err, &hostErr), errors.As(err, &certErr), errors.As(err, &verifyErr):
		return CodePeerFailedVerification
	case errors.As(err, &recordErr):
		return CodeSSLConnectError
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return CodeCouldntConnect
	}

	return CodeRecvError
}
