package driver

import (
	"iter"
	"strings"
)

type headerField struct {
	name  string
	value string
}

// Header is an ordered set of header fields. Names compare without regard
// to case; the spelling of the first Set is kept.
type Header struct {
	fields []headerField
	index  map[string]int
}

// NewHeader returns an empty Header.
func NewHeader() *Header {
	return &Header{index: make(map[string]int)}
}

// Set stores value under name, replacing an existing value in place.
func (h *Header) Set(name, value string) *Header {
	if h.index == nil {
		h.index = make(map[string]int)
	}

	key := strings.ToLower(name)
	if i, ok := h.index[key]; ok {
		h.fields[i].value = value
		return h
	}

	h.index[key] = len(h.fields)
	h.fields = append(h.fields, headerField{name: name, value: value})

	return h
}

// Get returns the value stored under name, or "".
func (h *Header) Get(name string) string {
	v, _ := h.Lookup(name)
	return v
}

// Lookup returns the value stored under name and whether it was present.
func (h *Header) Lookup(name string) (string, bool) {
	if h == nil {
		return "", false
	}

	i, ok := h.index[strings.ToLower(name)]
	if !ok {
		return "", false
	}

	return h.fields[i].value, true
}

func (h *Header) Len() int {
	if h == nil {
		return 0
	}

	return len(h.fields)
}

// All iterates over the fields in insertion order.
func (h *Header) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if h == nil {
			return
		}
		for _, f := range h.fields {
			if !yield(f.name, f.value) {
				return
			}
		}
	}
}

// Clone returns a deep copy of h.
func (h *Header) Clone() *Header {
	out := NewHeader()
	for name, value := range h.All() {
		out.Set(name, value)
	}

	return out
}

// Lines renders the fields as "Name: value" strings.
func (h *Header) Lines() []string {
	lines := make([]string, 0, h.Len())
	for name, value := range h.All() {
		lines = append(lines, name+": "+value)
	}

	return lines
}

// Map returns the fields as a plain map keyed by their stored spelling.
func (h *Header) Map() map[string]string {
	out := make(map[string]string, h.Len())
	for name, value := range h.All() {
		out[name] = value
	}

	return out
}
