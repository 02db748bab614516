package driver

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/adamwoolhether/httpdriver/format"
	"github.com/adamwoolhether/httpdriver/transport"
)

// Response is the result of one Execute. It is not modified after it is
// returned.
type Response struct {
	status      int
	body        any
	raw         []byte
	headers     *Header
	contentType string
	accept      string
	requestID   string
	info        transport.Info
}

// Status returns the HTTP status code.
func (r *Response) Status() int {
	return r.status
}

// Body returns the decoded body when auto-formatting applied, and the raw
// bytes otherwise.
func (r *Response) Body() any {
	return r.body
}

// Raw returns the body bytes as received, without any captured headers.
func (r *Response) Raw() []byte {
	return r.raw
}

// Headers returns a copy of the captured headers. It is empty unless header
// capture was requested.
func (r *Response) Headers() *Header {
	return r.headers.Clone()
}

// Header returns the captured header called name.
func (r *Response) Header(name string) string {
	return r.headers.Get(name)
}

// ContentType returns the response content type, [DefaultContentType] when
// the server sent none.
func (r *Response) ContentType() string {
	return r.contentType
}

// Accept returns the Accept header of the request, if one was set.
func (r *Response) Accept() string {
	return r.accept
}

// RequestID identifies the Execute call in logs.
func (r *Response) RequestID() string {
	return r.requestID
}

// Info returns the transport telemetry of the exchange.
func (r *Response) Info() transport.Info {
	return r.info
}

// Get looks up path in a JSON body using gjson path syntax.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.raw, path)
}

// Decode unmarshals the raw body into v according to the content type.
func (r *Response) Decode(v any) error {
	f, ok := format.Lookup(r.contentType)
	if !ok {
		return fmt.Errorf("decode %s: %w", r.contentType, format.ErrUnsupported)
	}

	var err error
	switch f {
	case format.JSON:
		err = json.Unmarshal(r.raw, v)
	case format.XML:
		err = xml.Unmarshal(r.raw, v)
	case format.YAML:
		err = yaml.Unmarshal(r.raw, v)
	default:
		return fmt.Errorf("decode %s: %w", f, format.ErrUnsupported)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", f, err)
	}

	return nil
}

// normalize builds the Response for a completed exchange. When capture is
// set, the first info.HeaderSize bytes of raw are the header block.
func normalize(raw []byte, info transport.Info, capture bool, accept string) *Response {
	resp := &Response{
		status:      info.StatusCode,
		raw:         raw,
		headers:     NewHeader(),
		contentType: info.ContentType,
		accept:      accept,
		info:        info,
	}

	if capture {
		size := min(max(info.HeaderSize, 0), len(raw))
		resp.headers = parseHeaderBlock(raw[:size])
		resp.raw = raw[size:]
	}

	if resp.status == 0 {
		resp.status = http.StatusOK
	}
	if resp.contentType == "" {
		resp.contentType = DefaultContentType
	}
	resp.body = resp.raw

	return resp
}

// parseHeaderBlock splits each line on its first colon. Lines without one,
// such as the status line, are skipped.
func parseHeaderBlock(block []byte) *Header {
	h := NewHeader()

	for line := range bytes.Lines(block) {
		name, value, ok := strings.Cut(string(line), ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		h.Set(name, strings.TrimSpace(value))
	}

	return h
}

// autoFormat decodes the body by the response content type, falling back to
// the Accept type when the response type has no codec.
func (r *Response) autoFormat() error {
	f, ok := format.Lookup(r.contentType)
	if !ok || !decodable(f) {
		if f, ok = format.Lookup(r.accept); !ok || !decodable(f) {
			return nil
		}
	}
	if len(bytes.TrimSpace(r.raw)) == 0 {
		return nil
	}

	v, err := format.Decode(r.raw, f)
	if err != nil {
		return fmt.Errorf("auto format: %w", err)
	}
	r.body = v

	return nil
}

func decodable(f format.Format) bool {
	switch f {
	case format.JSON, format.XML, format.CSV, format.YAML:
		return true
	}

	return false
}
