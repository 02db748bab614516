package driver_test

import (
	"context"
	"errors"
	"sync"

	"github.com/adamwoolhether/httpdriver/transport"
)

// fakeTransport records what the driver hands to the transport and answers
// with canned results.
type fakeTransport struct {
	mu      sync.Mutex
	opened  []string
	handles []*fakeHandle

	raw  []byte
	info transport.Info
	err  error
}

func (f *fakeTransport) Open(resource string) (transport.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	h := &fakeHandle{raw: f.raw, info: f.info, err: f.err}
	f.opened = append(f.opened, resource)
	f.handles = append(f.handles, h)

	return h, nil
}

func (f *fakeTransport) last() *fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.handles[len(f.handles)-1]
}

type fakeHandle struct {
	options transport.Options
	raw     []byte
	info    transport.Info
	err     error
	closed  int
}

func (h *fakeHandle) Configure(opts transport.Options) error {
	h.options = opts.Clone()
	return nil
}

func (h *fakeHandle) Perform(context.Context) ([]byte, error) {
	if h.err != nil {
		return nil, h.err
	}

	return h.raw, nil
}

func (h *fakeHandle) Info() transport.Info {
	return h.info
}

func (h *fakeHandle) LastError() (string, transport.Code) {
	if h.err == nil {
		return "", transport.CodeOK
	}

	var te *transport.Error
	if errors.As(h.err, &te) {
		return te.Message, te.Code
	}

	return h.err.Error(), transport.Classify(h.err)
}

func (h *fakeHandle) Close() error {
	h.closed++
	return nil
}
