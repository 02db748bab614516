package driver

import (
	"fmt"

	"github.com/adamwoolhether/httpdriver/format"
	"github.com/adamwoolhether/httpdriver/uri"
)

// contentType picks the type request params are encoded as: the declared
// Content-Type header, then the type of the previous response, then
// [DefaultContentType].
func contentType(h *Header, previous string) string {
	if ct := h.Get("Content-Type"); ct != "" {
		return ct
	}
	if previous != "" {
		return previous
	}

	return DefaultContentType
}

// encode renders params for a request body of type ct. Params that are not
// a mapping or a struct are returned unchanged, as is the value of a lone
// "form-data" entry. Types without a registered format are sent urlencoded,
// with structs read through their `url` tags; registered formats read
// structs through their json tags.
func encode(params any, ct string) (any, error) {
	f, registered := format.Lookup(ct)

	fromParams := format.FromAny
	if registered {
		fromParams = format.FromBody
	}

	m, ok, err := fromParams(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	if !ok {
		return params, nil
	}

	if !registered {
		if m.Len() == 1 {
			if v, found := m.Get(formDataKey); found {
				return v, nil
			}
		}
		return uri.BuildQuery(m), nil
	}

	var b []byte
	switch f {
	case format.XML:
		b, err = encodeXML(m)
	default:
		b, err = format.Encode(m, f)
	}
	if err != nil {
		return nil, fmt.Errorf("encode params as %s: %w", f, err)
	}

	return b, nil
}

// encodeXML names the document after the only top-level entry when there is
// exactly one.
func encodeXML(m *format.Map) ([]byte, error) {
	if m.Len() != 1 {
		return format.EncodeXML(m, "")
	}

	root := m.Keys()[0]
	v, _ := m.Get(root)

	return format.EncodeXML(v, root)
}
