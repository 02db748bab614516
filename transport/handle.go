package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// settings is the typed view of a handle's Options.
type settings struct {
	timeout        time.Duration
	connectTimeout time.Duration
	returnTransfer bool
	failOnError    bool
	follow         bool
	maxRedirects   int
	method         string
	headers        []string
	captureHeaders bool
	noBody         bool
	post           bool
	fields         any
	authScheme     string
	userPwd        string
	userAgent      string
	insecure       bool
}

func parseSettings(opts Options, maxRedirects int) (settings, error) {
	var (
		s   settings
		err error
	)

	if s.timeout, err = opts.Duration(KeyTimeout); err != nil {
		return s, err
	}
	if s.connectTimeout, err = opts.Duration(KeyConnectTimeout); err != nil {
		return s, err
	}
	if s.returnTransfer, err = opts.Bool(KeyReturnTransfer); err != nil {
		return s, err
	}
	if s.failOnError, err = opts.Bool(KeyFailOnError); err != nil {
		return s, err
	}
	if s.follow, err = opts.Bool(KeyFollowLocation); err != nil {
		return s, err
	}
	s.maxRedirects = maxRedirects
	if opts.Has(KeyMaxRedirects) {
		if s.maxRedirects, err = opts.Int(KeyMaxRedirects); err != nil {
			return s, err
		}
	}
	if s.method, err = opts.String(KeyCustomRequest); err != nil {
		return s, err
	}
	if s.headers, err = opts.Strings(KeyHTTPHeader); err != nil {
		return s, err
	}
	if s.captureHeaders, err = opts.Bool(KeyHeader); err != nil {
		return s, err
	}
	if s.noBody, err = opts.Bool(KeyNoBody); err != nil {
		return s, err
	}
	if s.post, err = opts.Bool(KeyPost); err != nil {
		return s, err
	}
	s.fields = opts[KeyPostFields]
	if s.authScheme, err = opts.String(KeyHTTPAuth); err != nil {
		return s, err
	}
	s.authScheme = strings.ToLower(s.authScheme)
	switch s.authScheme {
	case "", AuthBasic, AuthDigest, AuthAny:
	default:
		return s, fmt.Errorf("%w: %s: unsupported scheme %q", ErrBadValue, KeyHTTPAuth, s.authScheme)
	}
	if s.userPwd, err = opts.String(KeyUserPwd); err != nil {
		return s, err
	}
	if s.userAgent, err = opts.String(KeyUserAgent); err != nil {
		return s, err
	}
	if opts.Has(KeyVerifyPeer) {
		verify, err := opts.Bool(KeyVerifyPeer)
		if err != nil {
			return s, err
		}
		s.insecure = !verify
	}

	return s, nil
}

// handle is the net/http Handle.
type handle struct {
	t         *HTTP
	url       *url.URL
	cfg       settings
	info      Info
	lastErr   *Error
	ephemeral *http.Transport
	performed bool
	closed    bool
}

func (h *handle) Configure(opts Options) error {
	if h.closed || h.performed {
		return h.fail(CodeBadFunctionArgument, ErrHandleClosed)
	}

	cfg, err := parseSettings(opts, h.t.maxRedirects)
	if err != nil {
		return h.fail(CodeBadFunctionArgument, err)
	}
	h.cfg = cfg

	return nil
}

func (h *handle) Info() Info {
	return h.info
}

func (h *handle) LastError() (string, Code) {
	if h.lastErr == nil {
		return "", CodeOK
	}

	return h.lastErr.Message, h.lastErr.Code
}

// Close releases connections held for this exchange only.
func (h *handle) Close() error {
	if h.closed {
		return ErrHandleClosed
	}
	h.closed = true
	h.release()

	return nil
}

func (h *handle) release() {
	if h.ephemeral != nil {
		h.ephemeral.CloseIdleConnections()
		h.ephemeral = nil
	}
}

func (h *handle) fail(code Code, err error) *Error {
	h.lastErr = newError(code, err)
	return h.lastErr
}

func (h *handle) Perform(ctx context.Context) ([]byte, error) {
	if h.closed || h.performed {
		return nil, h.fail(CodeBadFunctionArgument, ErrHandleClosed)
	}
	h.performed = true

	body, contentType, err := requestBody(h.cfg.fields)
	if err != nil {
		return nil, h.fail(CodeBadFunctionArgument, err)
	}
	method := h.method(body != nil)

	ctx, span := h.t.tracer.Start(ctx, "httpdriver.exchange",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", h.url.String()),
		),
	)
	defer span.End()

	raw, err := h.exchange(ctx, method, body, contentType)
	if err != nil {
		h.release()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", h.info.StatusCode))

	return raw, nil
}

func (h *handle) exchange(ctx context.Context, method string, body []byte, contentType string) ([]byte, error) {
	tm := newTimer(&h.info)
	ctx = httptrace.WithClientTrace(ctx, tm.trace())
	defer tm.done()

	client := h.client()

	resp, err := h.do(ctx, client, method, body, contentType, "")
	if err == nil && resp.StatusCode == http.StatusUnauthorized && h.cfg.authScheme == AuthDigest {
		resp, err = h.answerDigest(ctx, client, resp, method, body, contentType)
	}
	if err != nil {
		return nil, h.fail(Classify(err), err)
	}
	defer resp.Body.Close()

	h.info.StatusCode = resp.StatusCode
	h.info.ContentType = resp.Header.Get("Content-Type")
	h.info.EffectiveURL = resp.Request.URL.String()

	var raw []byte
	switch {
	case h.cfg.noBody:
	case h.cfg.returnTransfer:
		if raw, err = io.ReadAll(resp.Body); err != nil {
			return nil, h.fail(Classify(err), err)
		}
		h.info.SizeDownload = int64(len(raw))
	default:
		n, err := io.Copy(h.t.output, resp.Body)
		if err != nil {
			return nil, h.fail(CodeWriteError, err)
		}
		h.info.SizeDownload = n
	}

	if h.cfg.failOnError && resp.StatusCode >= http.StatusBadRequest {
		return nil, h.fail(CodeHTTPReturnedError, fmt.Errorf("the requested URL returned error: %d", resp.StatusCode))
	}

	if h.cfg.captureHeaders {
		block := headerBlock(resp)
		h.info.HeaderSize = len(block)
		raw = append(block, raw...)
	}

	return raw, nil
}

func (h *handle) answerDigest(ctx context.Context, client *http.Client, resp *http.Response, method string, body []byte, contentType string) (*http.Response, error) {
	params, ok := parseChallenge(resp.Header.Get("WWW-Authenticate"))
	if !ok {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	d, err := newDigestChallenge(params, h.cfg.userPwd, method, h.url.RequestURI())
	if err != nil {
		return nil, err
	}

	return h.do(ctx, client, method, body, contentType, d.authorization())
}

func (h *handle) do(ctx context.Context, client *http.Client, method string, body []byte, contentType, authorization string) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.url.String(), rdr)
	if err != nil {
		return nil, newError(CodeMalformedURL, err)
	}

	for _, line := range h.cfg.headers {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	ua := h.cfg.userAgent
	if ua == "" {
		ua = h.t.userAgent
	}
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	switch {
	case authorization != "":
		req.Header.Set("Authorization", authorization)
	case h.cfg.userPwd != "" && h.cfg.authScheme != AuthDigest:
		user, pass, _ := strings.Cut(h.cfg.userPwd, ":")
		req.SetBasicAuth(user, pass)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return client.Do(req)
}

// method picks the verb: custom_request wins, then no_body, then post or a
// present body.
func (h *handle) method(hasBody bool) string {
	switch {
	case h.cfg.method != "":
		return strings.ToUpper(h.cfg.method)
	case h.cfg.noBody:
		return http.MethodHead
	case h.cfg.post, hasBody:
		return http.MethodPost
	}

	return http.MethodGet
}

func (h *handle) client() *http.Client {
	rt, ephemeral := h.t.roundTripper(h.cfg.insecure, h.cfg.connectTimeout)
	h.ephemeral = ephemeral

	c := *h.t.client
	c.Transport = rt
	c.Timeout = h.cfg.timeout
	c.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if !h.cfg.follow {
			return http.ErrUseLastResponse
		}
		if len(via) > h.cfg.maxRedirects {
			return fmt.Errorf("%w: %d", ErrTooManyRedirects, h.cfg.maxRedirects)
		}
		h.info.RedirectCount = len(via)
		return nil
	}

	return &c
}

// headerBlock renders the status line and headers of resp the way they
// arrived on the wire, terminated by an empty line.
func headerBlock(resp *http.Response) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s\r\n", resp.Proto, resp.Status)

	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		for _, v := range resp.Header[name] {
			fmt.Fprintf(&b, "%s: %s\r\n", name, v)
		}
	}
	b.WriteString("\r\n")

	return b.Bytes()
}
