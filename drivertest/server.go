// Package drivertest provides an httptest-backed server that reflects the
// requests it receives, for testing code built on the driver.
package drivertest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Echo is the server's view of one request.
type Echo struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	RawQuery    string            `json:"raw_query"`
	Headers     map[string]string `json:"headers"`
	ContentType string            `json:"content_type"`
	Body        string            `json:"body"`
}

// Handler is a http.Handler that returns an error.
type Handler func(w http.ResponseWriter, r *http.Request) error

// Middleware defines a signature to chain Handler together.
type Middleware func(handler Handler) Handler

// Server is a running echo server.
type Server struct {
	*httptest.Server

	mux    *http.ServeMux
	mw     []Middleware
	log    *slog.Logger
	tracer trace.Tracer

	mu       sync.Mutex
	requests []Echo
}

// NewServer starts a Server and stops it when t finishes.
//
// Routes:
//
//	/echo                 reflects the request as JSON
//	GET /status/{code}    responds with code and the body "status {code}"
//	GET /redirect/{n}     redirects n times, then to /echo
//	GET /format/{name}    responds with a sample document (json, xml, csv, yaml)
//	GET /slow/{ms}        sleeps before responding
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		mux:    http.NewServeMux(),
		log:    slog.New(slog.DiscardHandler),
		tracer: noop.NewTracerProvider().Tracer("drivertest"),
	}
	s.Use(s.record)

	s.handle("", "/echo", echo)
	s.handle(http.MethodGet, "/status/{code}", status)
	s.handle(http.MethodGet, "/redirect/{n}", redirect)
	s.handle(http.MethodGet, "/format/{name}", sample)
	s.handle(http.MethodGet, "/slow/{ms}", slow)

	s.Server = httptest.NewServer(s.mux)
	t.Cleanup(s.Close)

	return s
}

// Use adds middleware to routes registered afterwards.
func (s *Server) Use(mw ...Middleware) {
	s.mw = append(s.mw, mw...)
}

// Requests returns every request received so far.
func (s *Server) Requests() []Echo {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.requests)
}

// Last returns the most recent request.
func (s *Server) Last() (Echo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.requests) == 0 {
		return Echo{}, false
	}

	return s.requests[len(s.requests)-1], true
}

// Endpoint joins path onto the server address.
func (s *Server) Endpoint(path string) string {
	return s.Server.URL + path
}

func (s *Server) handle(method, path string, handler Handler) {
	handler = wrap(s.mw, handler)

	h := func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.startSpan(w, r)
		defer span.End()

		if err := handler(w, r.WithContext(ctx)); err != nil {
			s.log.Error("drivertest handle", "error", err)
		}
	}

	pattern := path
	if method != "" {
		pattern = fmt.Sprintf("%s %s", method, path)
	}

	s.mux.HandleFunc(pattern, h)
}

// record stores the request and hands its Echo to the handler through the
// request context.
func (s *Server) record(handler Handler) Handler {
	return func(w http.ResponseWriter, r *http.Request) error {
		e, err := echoOf(r)
		if err != nil {
			return RespondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		s.mu.Lock()
		s.requests = append(s.requests, e)
		s.mu.Unlock()

		return handler(w, r.WithContext(context.WithValue(r.Context(), echoKey, e)))
	}
}

// wrap middleware around the handler and execute in order given.
func wrap(mw []Middleware, handler Handler) Handler {
	for _, mwFn := range slices.Backward(mw) {
		if mwFn != nil {
			handler = mwFn(handler)
		}
	}

	return handler
}

// startSpan opens a server span and writes the trace context into the
// response headers.
func (s *Server) startSpan(w http.ResponseWriter, r *http.Request) (context.Context, trace.Span) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := s.tracer.Start(ctx, "drivertest.handler")
	span.SetAttributes(attribute.String("path", r.RequestURI))

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(w.Header()))

	return ctx, span
}

type ctxKey int

const echoKey ctxKey = 1

func echoOf(r *http.Request) (Echo, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return Echo{}, fmt.Errorf("read body: %w", err)
	}

	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}

	return Echo{
		Method:      r.Method,
		Path:        r.URL.Path,
		RawQuery:    r.URL.RawQuery,
		Headers:     headers,
		ContentType: r.Header.Get("Content-Type"),
		Body:        string(body),
	}, nil
}

func echo(w http.ResponseWriter, r *http.Request) error {
	e, _ := r.Context().Value(echoKey).(Echo)
	return RespondJSON(w, http.StatusOK, e)
}

func status(w http.ResponseWriter, r *http.Request) error {
	code, err := strconv.Atoi(r.PathValue("code"))
	if err != nil || code < 100 || code > 599 {
		return RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status code"})
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	_, err = fmt.Fprintf(w, "status %d", code)

	return err
}

func redirect(w http.ResponseWriter, r *http.Request) error {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 0 {
		return RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid redirect count"})
	}

	target := "/echo"
	if n > 1 {
		target = fmt.Sprintf("/redirect/%d", n-1)
	}
	http.Redirect(w, r, target, http.StatusFound)

	return nil
}

var samples = map[string]struct {
	contentType string
	body        string
}{
	"json": {"application/json", `{"name":"gopher","tags":["a","b"],"age":13}`},
	"xml":  {"application/xml; charset=utf-8", `<?xml version="1.0"?><user><name>gopher</name><age>13</age></user>`},
	"csv":  {"text/csv", "name,age\ngopher,13\nferris,8\n"},
	"yaml": {"application/x-yaml", "name: gopher\nage: 13\n"},
}

func sample(w http.ResponseWriter, r *http.Request) error {
	s, ok := samples[r.PathValue("name")]
	if !ok {
		return RespondJSON(w, http.StatusNotFound, map[string]string{"error": "unknown format"})
	}

	w.Header().Set("Content-Type", s.contentType)
	w.WriteHeader(http.StatusOK)
	_, err := io.WriteString(w, s.body)

	return err
}

func slow(w http.ResponseWriter, r *http.Request) error {
	ms, err := strconv.Atoi(r.PathValue("ms"))
	if err != nil {
		return RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid duration"})
	}

	select {
	case <-r.Context().Done():
		return nil
	case <-time.After(time.Duration(ms) * time.Millisecond):
	}

	return RespondJSON(w, http.StatusOK, map[string]int{"slept_ms": ms})
}

// RespondJSON writes data as a JSON body with statusCode.
func RespondJSON(w http.ResponseWriter, statusCode int, data any) error {
	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err = w.Write(jsonData); err != nil {
		return err
	}

	return nil
}
