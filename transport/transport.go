package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultMaxRedirects is the redirect limit when neither max_redirects nor
// WithMaxRedirects is given.
const DefaultMaxRedirects = 10

// Transport opens handles for single exchanges.
type Transport interface {
	Open(resource string) (Handle, error)
}

// Handle is one exchange against one resource. Configure must be called
// before Perform; a handle performs at most once.
type Handle interface {
	Configure(opts Options) error
	Perform(ctx context.Context) ([]byte, error)
	Info() Info
	LastError() (string, Code)
	Close() error
}

// HTTP is a Transport on top of [net/http].
type HTTP struct {
	client       *http.Client
	base         http.RoundTripper
	rt           http.RoundTripper
	throttle     *throttle
	userAgent    string
	maxRedirects int
	output       io.Writer
	tracer       trace.Tracer
	logger       *slog.Logger
}

// Build instantiates an *HTTP transport with the provided options.
// If not specified, [http.DefaultTransport] carries the exchanges.
func Build(optFns ...Option) (*HTTP, error) {
	t := &HTTP{
		client:       &http.Client{},
		maxRedirects: DefaultMaxRedirects,
		output:       io.Discard,
		tracer:       noop.NewTracerProvider().Tracer("httpdriver"),
		logger:       slog.Default(),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying transport option: %w", err)
		}
	}

	if opts.client != nil {
		hc := *opts.client
		t.client = &hc
	}
	if opts.logger != nil {
		t.logger = opts.logger
	}
	if opts.tracer != nil {
		t.tracer = opts.tracer
	}
	if opts.output != nil {
		t.output = opts.output
	}
	if opts.maxRedirects != nil {
		t.maxRedirects = *opts.maxRedirects
	}
	t.userAgent = opts.userAgent

	switch {
	case opts.rt != nil:
		t.base = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		t.base = opts.client.Transport
	default:
		t.base = http.DefaultTransport
	}

	t.rt = t.base
	if opts.throttle != nil {
		th, err := newThrottle(opts.throttle.rps, opts.throttle.burst, func() *slog.Logger { return t.logger }, t.base)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		t.throttle = th
		t.rt = th
	}

	return t, nil
}

// Open validates resource and returns an unconfigured handle for it.
func (t *HTTP) Open(resource string) (Handle, error) {
	u, err := url.Parse(resource)
	if err != nil {
		return nil, newError(CodeMalformedURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, newError(CodeUnsupportedProtocol, fmt.Errorf("protocol %q not supported", u.Scheme))
	}

	if u.Host == "" {
		return nil, newError(CodeMalformedURL, errors.New("no host in url"))
	}

	return &handle{t: t, url: u}, nil
}

// roundTripper returns the chain for one exchange. Settings that change the
// connection itself get a cloned *http.Transport without keep-alives, owned
// by the caller; the shared chain is returned otherwise.
func (t *HTTP) roundTripper(insecure bool, connectTimeout time.Duration) (http.RoundTripper, *http.Transport) {
	if !insecure && connectTimeout <= 0 {
		return t.rt, nil
	}

	base, ok := t.base.(*http.Transport)
	if !ok {
		t.logger.Warn("transport settings ignored for custom round tripper", "insecure", insecure, "connect_timeout", connectTimeout.String())
		return t.rt, nil
	}

	clone := base.Clone()
	clone.DisableKeepAlives = true
	if insecure {
		if clone.TLSClientConfig == nil {
			clone.TLSClientConfig = newTLSConfig()
		}
		clone.TLSClientConfig.InsecureSkipVerify = true
	}
	if connectTimeout > 0 {
		clone.DialContext = (&net.Dialer{Timeout: connectTimeout}).DialContext
	}

	if t.throttle == nil {
		return clone, clone
	}

	th := *t.throttle
	th.next = clone

	return &th, clone
}
