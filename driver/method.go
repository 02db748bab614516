package driver

import (
	"fmt"

	"github.com/adamwoolhether/httpdriver/transport"
	"github.com/adamwoolhether/httpdriver/uri"
)

// exchange is the request materialized for one Execute. It is built from a
// copy of the Driver's state and never written back.
type exchange struct {
	resource string
	method   Method
	headers  *Header
	params   any
	options  transport.Options

	// previous is the content type of the last response, the encoding
	// fallback when no Content-Type header is declared.
	previous string
	urls     *uri.Builder
}

// shape rewrites an exchange for one method.
type shape func(ex exchange) (exchange, error)

var shapes = map[Method]shape{
	MethodGet:    shapeGet,
	MethodHead:   shapeHead,
	MethodPost:   shapePost,
	MethodPut:    shapeOverride(MethodPut),
	MethodDelete: shapeOverride(MethodDelete),
}

// shapeFor returns the shape of m. The zero Method shapes as GET.
func shapeFor(m Method) (shape, error) {
	if m == "" {
		return shapeGet, nil
	}

	s, ok := shapes[m]
	if !ok {
		return nil, fmt.Errorf("unsupported method %q", m)
	}

	return s, nil
}

func shapeGet(ex exchange) (exchange, error) {
	resource, err := ex.urls.Create(ex.resource, ex.params)
	if err != nil {
		return ex, fmt.Errorf("building query: %w", err)
	}
	ex.resource = resource

	return ex, nil
}

func shapeHead(ex exchange) (exchange, error) {
	ex, err := shapeGet(ex)
	if err != nil {
		return ex, err
	}
	ex.options[transport.KeyNoBody] = true
	ex.options[transport.KeyHeader] = true

	return ex, nil
}

func shapePost(ex exchange) (exchange, error) {
	body, err := encode(ex.params, contentType(ex.headers, ex.previous))
	if err != nil {
		return ex, err
	}
	ex.options[transport.KeyPost] = true
	ex.options[transport.KeyPostFields] = body

	return ex, nil
}

func shapeOverride(m Method) shape {
	return func(ex exchange) (exchange, error) {
		body, err := encode(ex.params, contentType(ex.headers, ex.previous))
		if err != nil {
			return ex, err
		}
		ex.options[transport.KeyPostFields] = body
		ex.headers.Set(MethodOverrideHeader, m.String())

		return ex, nil
	}
}
