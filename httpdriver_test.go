package httpdriver_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/httpdriver"
	"github.com/adamwoolhether/httpdriver/driver"
	"github.com/adamwoolhether/httpdriver/drivertest"
	"github.com/adamwoolhether/httpdriver/transport"
)

func TestHelpers(t *testing.T) {
	srv := drivertest.NewServer(t)

	testCases := map[string]struct {
		call   func(t *testing.T) (*driver.Response, error)
		method string
		query  string
		body   string
	}{
		"get": {
			call: func(t *testing.T) (*driver.Response, error) {
				return httpdriver.Get(t.Context(), srv.Endpoint("/echo"), map[string]string{"q": "go"})
			},
			method: http.MethodGet,
			query:  "q=go",
		},
		"post": {
			call: func(t *testing.T) (*driver.Response, error) {
				return httpdriver.Post(t.Context(), srv.Endpoint("/echo"), map[string]string{"a": "1", "b": "2"})
			},
			method: http.MethodPost,
			body:   "a=1&b=2",
		},
		"put": {
			call: func(t *testing.T) (*driver.Response, error) {
				return httpdriver.Put(t.Context(), srv.Endpoint("/echo"), map[string]string{"a": "1"})
			},
			method: http.MethodPut,
			body:   "a=1",
		},
		"delete": {
			call: func(t *testing.T) (*driver.Response, error) {
				return httpdriver.Delete(t.Context(), srv.Endpoint("/echo"), nil)
			},
			method: http.MethodDelete,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			resp, err := tc.call(t)
			if err != nil {
				t.Fatalf("executing: %v", err)
			}

			var got drivertest.Echo
			if err := json.Unmarshal(resp.Raw(), &got); err != nil {
				t.Fatalf("decoding echo: %v", err)
			}

			exp := struct{ Method, Query, Body string }{tc.method, tc.query, tc.body}
			act := struct{ Method, Query, Body string }{got.Method, got.RawQuery, got.Body}
			if diff := cmp.Diff(exp, act); diff != "" {
				t.Errorf("echo mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHead(t *testing.T) {
	srv := drivertest.NewServer(t)

	resp, err := httpdriver.Head(t.Context(), srv.Endpoint("/format/yaml"), nil)
	if err != nil {
		t.Fatalf("executing: %v", err)
	}

	if resp.Header("Content-Type") != "application/x-yaml" {
		t.Errorf("expected captured content type, got %v", resp.Headers().Map())
	}
}

func TestNew_WithThrottleAndUserAgent(t *testing.T) {
	expectedUA := "ThrottledAgent/1.0"

	srv := drivertest.NewServer(t)

	d, err := httpdriver.New(srv.Endpoint("/echo"), nil,
		driver.WithTransportOptions(
			transport.WithThrottle(20, 1),
			transport.WithUserAgent(expectedUA),
		),
	)
	if err != nil {
		t.Fatalf("failed to create driver: %v", err)
	}

	start := time.Now()
	for range 3 {
		if _, err := d.Execute(t.Context()); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected throttled calls to take at least 80ms, took %s", elapsed)
	}

	for _, e := range srv.Requests() {
		if ua := e.Headers["User-Agent"]; ua != expectedUA {
			t.Errorf("expected User-Agent %q, got %q", expectedUA, ua)
		}
	}
}

func TestNew_WithThrottleValidation(t *testing.T) {
	_, err := httpdriver.New("http://example.com", nil, driver.WithTransportOptions(transport.WithThrottle(0, 10)))
	if err == nil {
		t.Fatal("expected error for zero rps")
	}
	if !errors.Is(err, transport.ErrMustNotBeZero) {
		t.Errorf("expected ErrMustNotBeZero, got: %v", err)
	}
}

func TestGet_UnsupportedProtocol(t *testing.T) {
	_, err := httpdriver.Get(t.Context(), "ftp://example.com/file", nil)

	var te *driver.TransportError
	if !errors.As(err, &te) || te.Code != transport.CodeUnsupportedProtocol {
		t.Fatalf("expected transport error 1, got %v", err)
	}
}
