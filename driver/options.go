package driver

import (
	"errors"
	"log/slog"

	"github.com/adamwoolhether/httpdriver/transport"
	"github.com/adamwoolhether/httpdriver/uri"
)

// Option is a functional option for configuring a [Driver] via [New].
type Option func(*options) error
type options struct {
	method        Method
	transport     transport.Transport
	transportSet  bool
	transportOpts []transport.Option
	urls          *uri.Builder
	baseURL       string
	logger        *slog.Logger
	sandbox       func() bool
	autoFormat    bool
	resolved      transport.Options
}

// WithMethod sets the verb used by every Execute until changed with
// [Driver.SetMethod].
func WithMethod(m Method) Option {
	return func(o *options) error {
		o.method = m
		return nil
	}
}

// WithTransport replaces the default net/http transport.
func WithTransport(t transport.Transport) Option {
	return func(o *options) error {
		o.transport = t
		o.transportSet = true
		return nil
	}
}

// WithTransportOptions configures the default net/http transport. It has no
// effect together with [WithTransport].
func WithTransportOptions(optFns ...transport.Option) Option {
	return func(o *options) error {
		o.transportOpts = append(o.transportOpts, optFns...)
		return nil
	}
}

// WithURLBuilder sets the builder resolving local resources and query strings.
func WithURLBuilder(b *uri.Builder) Option {
	return func(o *options) error {
		if b == nil {
			return errors.New("url builder must not be nil")
		}
		o.urls = b
		return nil
	}
}

// WithBaseURL resolves resources without a scheme against base.
func WithBaseURL(base string) Option {
	return func(o *options) error {
		o.baseURL = base
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the Driver.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithSandbox installs the restricted-mode check. While it reports true,
// follow_location is left unset instead of defaulting to true.
func WithSandbox(restricted func() bool) Option {
	return func(o *options) error {
		if restricted == nil {
			return errors.New("sandbox check must not be nil")
		}
		o.sandbox = restricted
		return nil
	}
}

// WithAutoFormat decodes response bodies of a known content type.
func WithAutoFormat() Option {
	return func(o *options) error {
		o.autoFormat = true
		return nil
	}
}

// WithOptions adds already resolved transport options. They are merged over
// the symbolic options passed to [New].
func WithOptions(opts transport.Options) Option {
	return func(o *options) error {
		if o.resolved == nil {
			o.resolved = make(transport.Options, len(opts))
		}
		o.resolved.Merge(opts)
		return nil
	}
}
