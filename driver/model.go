package driver

import (
	"fmt"
	"strings"
	"time"
)

// Method is the HTTP verb a Driver issues. The zero value behaves as GET.
type Method string

const (
	MethodGet    Method = "GET"
	MethodHead   Method = "HEAD"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

const (
	// DefaultTimeout is applied when no timeout option is given.
	DefaultTimeout = 30 * time.Second
	// DefaultContentType is reported when a response carries no content type,
	// and used for request encoding when nothing better is known.
	DefaultContentType = "text/plain"
	// MethodOverrideHeader carries the verb for PUT and DELETE requests.
	MethodOverrideHeader = "X-HTTP-Method-Override"

	formDataKey = "form-data"
)

// maxErrBodySize caps the body copied into a StatusError message. The full
// body stays available through StatusError.Response.
const maxErrBodySize = 4 << 10 // 4KB

func (m Method) String() string {
	if m == "" {
		return string(MethodGet)
	}

	return string(m)
}

// ParseMethod resolves s, ignoring case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case MethodGet, MethodHead, MethodPost, MethodPut, MethodDelete:
		return m, nil
	}

	return "", fmt.Errorf("unsupported method %q", s)
}
