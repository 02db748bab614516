// Package format encodes and decodes structured data for the wire formats a
// request body or response body can take. Formats are picked by MIME type
// through a closed registry; unregistered types are left to the caller.
package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/elliotchance/phpserialize"
	"gopkg.in/yaml.v3"
)

// Format names a structured-data wire format.
type Format string

const (
	XML       Format = "xml"
	JSON      Format = "json"
	Serialize Format = "serialize"
	PHP       Format = "php"
	CSV       Format = "csv"
	YAML      Format = "yaml"
)

var (
	// ErrUnsupported is returned when a format has no codec for the requested direction.
	ErrUnsupported = errors.New("unsupported format")
)

var mimeTypes = map[string]Format{
	"application/xml":                XML,
	"application/soap+xml":           XML,
	"text/xml":                       XML,
	"application/json":               JSON,
	"text/json":                      JSON,
	"application/vnd.php.serialized": Serialize,
	"application/x-php":              PHP,
	"text/x-php":                     PHP,
	"text/csv":                       CSV,
	"application/csv":                CSV,
	"application/x-yaml":             YAML,
	"application/yaml":               YAML,
	"text/yaml":                      YAML,
}

var canonical = map[Format]string{
	XML:       "application/xml",
	JSON:      "application/json",
	Serialize: "application/vnd.php.serialized",
	PHP:       "application/x-php",
	CSV:       "text/csv",
	YAML:      "application/x-yaml",
}

// Lookup returns the Format registered for contentType. Media type
// parameters such as charset are ignored.
func Lookup(contentType string) (Format, bool) {
	mt := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}

	f, ok := mimeTypes[mt]
	return f, ok
}

// MimeType returns the canonical MIME type for f.
func MimeType(f Format) (string, bool) {
	mt, ok := canonical[f]
	return mt, ok
}

// Encode renders data in format f.
func Encode(data any, f Format) ([]byte, error) {
	switch f {
	case XML:
		return EncodeXML(data, "")
	case JSON:
		return json.Marshal(Normalize(data))
	case Serialize:
		t, err := Tree(data)
		if err != nil {
			return nil, fmt.Errorf("encode serialize: %w", err)
		}
		return phpserialize.Marshal(plain(t), nil)
	case PHP:
		return EncodePHP(data)
	case CSV:
		return EncodeCSV(data)
	case YAML:
		return yaml.Marshal(Normalize(data))
	}

	return nil, fmt.Errorf("encode %q: %w", f, ErrUnsupported)
}

// Decode parses raw in format f. Objects decode to *Map so key order is kept.
func Decode(raw []byte, f Format) (any, error) {
	switch f {
	case XML:
		return DecodeXML(raw)
	case JSON:
		return DecodeJSON(raw)
	case CSV:
		return DecodeCSV(raw)
	case YAML:
		var node yaml.Node
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return nodeValue(&node)
	}

	return nil, fmt.Errorf("decode %q: %w", f, ErrUnsupported)
}
