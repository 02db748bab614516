package transport_test

import (
	"errors"
	"testing"
	"time"

	"github.com/adamwoolhether/httpdriver/transport"
	"github.com/google/go-cmp/cmp"
)

func TestParseKey(t *testing.T) {
	testCases := map[string]struct {
		name string
		exp  transport.Key
		err  error
	}{
		"short":       {name: "return_transfer", exp: transport.KeyReturnTransfer},
		"descriptive": {name: "return_as_value", exp: transport.KeyReturnTransfer},
		"compacted":   {name: "RETURNTRANSFER", exp: transport.KeyReturnTransfer},
		"hyphens":     {name: "Follow-Location", exp: transport.KeyFollowLocation},
		"spaces":      {name: "custom method verb", exp: transport.KeyCustomRequest},
		"unknown":     {name: "no_such_option", err: transport.ErrUnknownKey},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			k, err := transport.ParseKey(tc.name)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected error %v, got %v", tc.err, err)
			}
			if k != tc.exp {
				t.Errorf("expected %s, got %s", tc.exp, k)
			}
		})
	}
}

func TestParseOptions(t *testing.T) {
	got, err := transport.ParseOptions(map[string]any{
		"timeout":         5,
		"post_body":       "a=1",
		"capture_headers": true,
	})
	if err != nil {
		t.Fatalf("parsing options: %v", err)
	}

	exp := transport.Options{
		transport.KeyTimeout:    5,
		transport.KeyPostFields: "a=1",
		transport.KeyHeader:     true,
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}

	if _, err := transport.ParseOptions(map[string]any{"bogus": 1}); !errors.Is(err, transport.ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
}

func TestOptions_Accessors(t *testing.T) {
	opts := transport.Options{
		transport.KeyTimeout:        3,
		transport.KeyConnectTimeout: "250ms",
		transport.KeyFailOnError:    1,
		transport.KeyFollowLocation: "true",
		transport.KeyMaxRedirects:   "4",
		transport.KeyHTTPHeader:     "Accept: text/plain",
		transport.KeyUserAgent:      42,
	}

	if d, err := opts.Duration(transport.KeyTimeout); err != nil || d != 3*time.Second {
		t.Errorf("timeout: got %v, %v", d, err)
	}
	if d, err := opts.Duration(transport.KeyConnectTimeout); err != nil || d != 250*time.Millisecond {
		t.Errorf("connect timeout: got %v, %v", d, err)
	}
	if b, err := opts.Bool(transport.KeyFailOnError); err != nil || !b {
		t.Errorf("fail on error: got %v, %v", b, err)
	}
	if b, err := opts.Bool(transport.KeyFollowLocation); err != nil || !b {
		t.Errorf("follow location: got %v, %v", b, err)
	}
	if b, err := opts.Bool(transport.KeyNoBody); err != nil || b {
		t.Errorf("unset bool: got %v, %v", b, err)
	}
	if n, err := opts.Int(transport.KeyMaxRedirects); err != nil || n != 4 {
		t.Errorf("max redirects: got %v, %v", n, err)
	}
	if s, err := opts.Strings(transport.KeyHTTPHeader); err != nil || !cmp.Equal(s, []string{"Accept: text/plain"}) {
		t.Errorf("headers: got %v, %v", s, err)
	}
	if _, err := opts.String(transport.KeyUserAgent); !errors.Is(err, transport.ErrBadValue) {
		t.Errorf("expected ErrBadValue, got %v", err)
	}
}

func TestOptions_CloneMerge(t *testing.T) {
	base := transport.Options{transport.KeyTimeout: 30}
	clone := base.Clone()
	clone.Merge(transport.Options{transport.KeyTimeout: 5, transport.KeyPost: true})
	clone.SetDefault(transport.KeyPost, false)
	clone.SetDefault(transport.KeyNoBody, true)

	if base[transport.KeyTimeout] != 30 || base.Has(transport.KeyPost) {
		t.Errorf("base was mutated: %v", base)
	}

	exp := transport.Options{
		transport.KeyTimeout: 5,
		transport.KeyPost:    true,
		transport.KeyNoBody:  true,
	}
	if diff := cmp.Diff(exp, clone); diff != "" {
		t.Errorf("merged options mismatch (-want +got):\n%s", diff)
	}
}
