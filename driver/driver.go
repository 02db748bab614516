package driver

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/httpdriver/format"
	"github.com/adamwoolhether/httpdriver/transport"
	"github.com/adamwoolhether/httpdriver/uri"
)

// request is the caller's view of the next exchange.
type request struct {
	resource string
	method   Method
	headers  *Header
	params   any
	options  transport.Options
}

// Driver issues one HTTP exchange per Execute. Headers, params and options
// set between calls apply to the next Execute only; afterwards the Driver
// returns to the state it was constructed with. The method and the
// auto-format setting persist.
//
// A Driver serializes its own Execute calls, but setters are not safe for
// concurrent use with Execute.
type Driver struct {
	mu sync.Mutex

	transport  transport.Transport
	urls       *uri.Builder
	logger     *slog.Logger
	sandbox    func() bool
	autoFormat bool

	baseline request
	req      request

	lastContentType string
	response        *Response
}

// New builds a Driver for resource. transportOpts holds symbolic transport
// option names such as "timeout" or "follow_location"; an unknown name
// fails with a [ConfigError].
func New(resource string, transportOpts map[string]any, optFns ...Option) (*Driver, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("applying driver option: %w", err)}
		}
	}

	sv, err := loadValidator()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	if err := sv.check(settings{Resource: resource, Method: string(opts.method), BaseURL: opts.baseURL}); err != nil {
		return nil, &ConfigError{Err: err}
	}

	resolved, err := resolveOptions(transportOpts)
	if err != nil {
		return nil, err
	}
	resolved.Merge(opts.resolved)

	d := &Driver{
		transport:  opts.transport,
		urls:       opts.urls,
		logger:     slog.Default(),
		sandbox:    func() bool { return false },
		autoFormat: opts.autoFormat,
	}

	if opts.logger != nil {
		d.logger = opts.logger
	}
	if opts.sandbox != nil {
		d.sandbox = opts.sandbox
	}
	if d.urls == nil {
		d.urls = uri.New(opts.baseURL)
	}

	switch {
	case opts.transportSet && opts.transport == nil:
		return nil, &ConfigError{Field: "transport", Err: ErrTransportUnavailable}
	case opts.transport == nil:
		tOpts := append([]transport.Option{transport.WithLogger(d.logger)}, opts.transportOpts...)
		t, err := transport.Build(tOpts...)
		if err != nil {
			return nil, &ConfigError{Field: "transport", Err: fmt.Errorf("%w: %w", ErrTransportUnavailable, err)}
		}
		d.transport = t
	}

	d.baseline = request{
		resource: resource,
		method:   opts.method,
		headers:  NewHeader(),
		options:  resolved,
	}
	d.reset()

	return d, nil
}

func resolveOptions(raw map[string]any) (transport.Options, error) {
	opts, err := transport.ParseOptions(raw)
	if err != nil {
		return nil, &ConfigError{Field: "options", Err: err}
	}

	return opts, nil
}

// reset returns the per-call state to the construction baseline. The
// method set through SetMethod is kept.
func (d *Driver) reset() {
	method := d.req.method
	if method == "" {
		method = d.baseline.method
	}

	d.req = request{
		resource: d.baseline.resource,
		method:   method,
		headers:  d.baseline.headers.Clone(),
		options:  d.baseline.options.Clone(),
	}
}

// SetMethod sets the verb for this and later calls.
func (d *Driver) SetMethod(m Method) error {
	if m != "" {
		parsed, err := ParseMethod(string(m))
		if err != nil {
			return &ConfigError{Field: "method", Err: err}
		}
		m = parsed
	}
	d.req.method = m

	return nil
}

// SetHeader sets a request header for the next Execute.
func (d *Driver) SetHeader(name, value string) *Driver {
	d.req.headers.Set(name, value)
	return d
}

// SetHeaders sets every header in headers, in key order.
func (d *Driver) SetHeaders(headers map[string]string) *Driver {
	for _, name := range sortedNames(headers) {
		d.req.headers.Set(name, headers[name])
	}
	return d
}

// SetParams replaces the params of the next Execute. Mappings, structs with
// url tags, strings and byte slices are accepted.
func (d *Driver) SetParams(params any) *Driver {
	d.req.params = params
	return d
}

// AddParam adds one named param. Params that are not a mapping are replaced.
func (d *Driver) AddParam(name string, value any) *Driver {
	m, ok, err := format.FromAny(d.req.params)
	if err != nil || !ok {
		m = format.NewMap()
	} else {
		m = m.Clone()
	}
	d.req.params = m.Set(name, value)

	return d
}

// SetOption sets a transport option by its symbolic name for the next
// Execute.
func (d *Driver) SetOption(name string, value any) error {
	k, err := transport.ParseKey(name)
	if err != nil {
		return &ConfigError{Field: name, Err: err}
	}
	d.req.options[k] = value

	return nil
}

// SetOptions sets several options. Nothing is applied when a name is unknown.
func (d *Driver) SetOptions(raw map[string]any) error {
	resolved, err := resolveOptions(raw)
	if err != nil {
		return err
	}
	d.req.options.Merge(resolved)

	return nil
}

// SetAuth sets credentials for the next Execute. scheme is one of
// [transport.AuthBasic], [transport.AuthDigest] or [transport.AuthAny];
// empty means basic.
func (d *Driver) SetAuth(user, pass, scheme string) error {
	scheme = strings.ToLower(scheme)
	switch scheme {
	case "":
		scheme = transport.AuthBasic
	case transport.AuthBasic, transport.AuthDigest, transport.AuthAny:
	default:
		return &ConfigError{Field: "auth_scheme", Err: fmt.Errorf("unsupported scheme %q", scheme)}
	}

	d.req.options[transport.KeyHTTPAuth] = scheme
	d.req.options[transport.KeyUserPwd] = user + ":" + pass

	return nil
}

// SetMimeType sets the Accept header from a format name such as "json", or
// from a MIME type.
func (d *Driver) SetMimeType(mimeType string) error {
	if !strings.Contains(mimeType, "/") {
		mt, ok := format.MimeType(format.Format(strings.ToLower(mimeType)))
		if !ok {
			return &ConfigError{Field: "mime_type", Err: fmt.Errorf("%w: %q", format.ErrUnsupported, mimeType)}
		}
		mimeType = mt
	}
	d.req.headers.Set("Accept", mimeType)

	return nil
}

// SetAutoFormat toggles decoding of response bodies by content type.
func (d *Driver) SetAutoFormat(on bool) *Driver {
	d.autoFormat = on
	return d
}

// Resource returns the resource as the caller set it.
func (d *Driver) Resource() string {
	return d.req.resource
}

// Method returns the verb of the next Execute.
func (d *Driver) Method() Method {
	return d.req.method
}

// Headers returns a copy of the headers of the next Execute.
func (d *Driver) Headers() *Header {
	return d.req.headers.Clone()
}

// Params returns the params of the next Execute.
func (d *Driver) Params() any {
	return d.req.params
}

// Options returns a copy of the options of the next Execute.
func (d *Driver) Options() transport.Options {
	return d.req.options.Clone()
}

// Response returns the last Response, or nil.
func (d *Driver) Response() *Response {
	return d.response
}

// Execute performs one exchange. extra params are merged over the params
// for this call only. Whatever the outcome, headers, params and options
// are reset afterwards.
func (d *Driver) Execute(ctx context.Context, extra ...map[string]any) (*Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer d.reset()

	id := requestID(ctx)
	start := time.Now()

	ex, err := d.materialize(extra)
	if err != nil {
		return nil, err
	}

	raw, info, h, err := d.invoke(ctx, ex)
	if err != nil {
		d.logger.Debug("exchange failed", "request_id", id, "method", ex.method.String(), "resource", ex.resource, "error", err, "elapsed", time.Since(start).String())
		return nil, err
	}

	capture, _ := ex.options.Bool(transport.KeyHeader)
	resp := normalize(raw, info, capture, ex.headers.Get("Accept"))
	resp.requestID = id

	d.response = resp
	d.lastContentType = info.ContentType

	d.logger.Debug("exchange complete", "request_id", id, "method", ex.method.String(), "resource", ex.resource, "status", resp.status, "elapsed", time.Since(start).String())

	if resp.status >= 400 {
		return nil, newStatusError(resp)
	}

	if err := h.Close(); err != nil {
		d.logger.Error("failed to close transport handle", "request_id", id, "error", err)
	}

	if d.autoFormat {
		if err := resp.autoFormat(); err != nil {
			return resp, fmt.Errorf("decoding response: %w", err)
		}
	}

	return resp, nil
}

// materialize copies the caller's request and applies the method shape and
// the option defaults to the copy.
func (d *Driver) materialize(extra []map[string]any) (exchange, error) {
	params, err := mergeParams(d.req.params, extra)
	if err != nil {
		return exchange{}, &ConfigError{Field: "params", Err: err}
	}

	ex := exchange{
		resource: d.req.resource,
		method:   d.req.method,
		headers:  d.req.headers.Clone(),
		params:   params,
		options:  d.req.options.Clone(),
		previous: d.lastContentType,
		urls:     d.urls,
	}

	s, err := shapeFor(ex.method)
	if err != nil {
		return exchange{}, &ConfigError{Field: "method", Err: err}
	}
	if ex, err = s(ex); err != nil {
		return exchange{}, fmt.Errorf("shaping %s request: %w", ex.method, err)
	}

	d.applyDefaults(ex)

	return ex, nil
}

// applyDefaults fills options the caller left unset and serializes the
// headers. Caller values always win, custom_request included: the method
// only supplies the verb when no custom_request was given.
func (d *Driver) applyDefaults(ex exchange) {
	ex.options.SetDefault(transport.KeyTimeout, DefaultTimeout)
	ex.options.SetDefault(transport.KeyReturnTransfer, true)
	ex.options.SetDefault(transport.KeyFailOnError, false)
	if !d.sandbox() {
		ex.options.SetDefault(transport.KeyFollowLocation, true)
	}

	if ex.method != "" {
		ex.options.SetDefault(transport.KeyCustomRequest, ex.method.String())
	}

	if ex.headers.Len() > 0 {
		ex.options[transport.KeyHTTPHeader] = ex.headers.Lines()
	}
}

// invoke runs the exchange on a fresh handle. The handle is returned open;
// on failure it is dropped.
func (d *Driver) invoke(ctx context.Context, ex exchange) ([]byte, transport.Info, transport.Handle, error) {
	resource := ex.resource
	if !uri.IsAbsolute(resource) {
		var err error
		if resource, err = d.urls.Create(resource, nil); err != nil {
			return nil, transport.Info{}, nil, &ConfigError{Field: "resource", Err: err}
		}
	}

	h, err := d.transport.Open(resource)
	if err != nil {
		return nil, transport.Info{}, nil, transportError(err, nil)
	}

	if err := h.Configure(ex.options); err != nil {
		return nil, transport.Info{}, nil, transportError(err, h)
	}

	raw, err := h.Perform(ctx)
	if err != nil {
		return nil, transport.Info{}, nil, transportError(err, h)
	}

	return raw, h.Info(), h, nil
}

func transportError(err error, h transport.Handle) *TransportError {
	te := TransportError{Message: err.Error(), Code: transport.Classify(err), Err: err}

	if h != nil {
		if msg, code := h.LastError(); code != transport.CodeOK {
			te.Message, te.Code = msg, code
		}
	}

	return &te
}

func mergeParams(params any, extra []map[string]any) (any, error) {
	if len(extra) == 0 {
		return params, nil
	}

	m, ok, err := format.FromAny(params)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("cannot merge extra params into %T", params)
	}

	m = m.Clone()
	for _, e := range extra {
		add, _, err := format.FromAny(e)
		if err != nil {
			return nil, err
		}
		m.Merge(add)
	}

	return m, nil
}

// requestID prefers the trace id of an active span so log lines correlate
// with traces.
func requestID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.TraceID().IsValid() {
		return sc.TraceID().String()
	}

	return uuid.NewString()
}

func sortedNames(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
