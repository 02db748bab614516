package transport

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for configuring an [HTTP] transport via [Build].
type Option func(*options) error
type options struct {
	client       *http.Client
	rt           http.RoundTripper
	userAgent    string
	throttle     *throttleConfig
	maxRedirects *int
	output       io.Writer
	tracer       trace.Tracer
	logger       *slog.Logger
}

type throttleConfig struct {
	rps   int
	burst int
}

// WithClient replaces the default [http.Client] the handles copy from.
func WithClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.client = hc
		return nil
	}
}

// WithRoundTripper sets a custom [http.RoundTripper] as the base transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("round tripper must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithUserAgent sets the User-Agent sent when no user_agent option is given.
func WithUserAgent(header string) Option {
	return func(o *options) error {
		o.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests
// per second and burst capacity, shared by every handle of the transport.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
		}
		o.throttle = &throttleConfig{rps: rps, burst: burst}
		return nil
	}
}

// WithMaxRedirects caps the redirects followed when follow_location is on
// and no max_redirects option is given.
func WithMaxRedirects(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.New("max redirects must not be negative")
		}
		o.maxRedirects = &n
		return nil
	}
}

// WithOutput sets where bodies go when return_transfer is off.
func WithOutput(w io.Writer) Option {
	return func(o *options) error {
		if w == nil {
			return errors.New("output must not be nil")
		}
		o.output = w
		return nil
	}
}

// WithTracer sets the tracer used to open a client span per exchange.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the transport.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
