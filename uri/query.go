package uri

import (
	"encoding"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/adamwoolhether/httpdriver/format"
)

// pairSeparator joins encoded key/value pairs.
const pairSeparator = "&"

// BuildQuery encodes m as application/x-www-form-urlencoded data in
// insertion order. Nested mappings and lists use bracket keys (a[b]=c,
// a[0]=c) and nil values are skipped. Nested structs are read through their
// `url` tags and text marshalers such as time.Time use their text form.
func BuildQuery(m *format.Map) string {
	var pairs []string
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		pairs = appendPairs(pairs, k, v)
	}

	return strings.Join(pairs, pairSeparator)
}

func appendPairs(pairs []string, key string, v any) []string {
	switch val := format.Normalize(v).(type) {
	case nil:
		return pairs
	case *format.Map:
		for _, k := range val.Keys() {
			child, _ := val.Get(k)
			pairs = appendPairs(pairs, key+"["+k+"]", child)
		}
		return pairs
	case []any:
		for i, child := range val {
			pairs = appendPairs(pairs, key+"["+strconv.Itoa(i)+"]", child)
		}
		return pairs
	case encoding.TextMarshaler:
		if text, err := val.MarshalText(); err == nil {
			return appendPair(pairs, key, string(text))
		}
	default:
		if m, ok, err := format.FromAny(val); ok && err == nil {
			return appendPairs(pairs, key, m)
		}
	}

	return appendPair(pairs, key, queryText(v))
}

func appendPair(pairs []string, key, val string) []string {
	return append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(val))
}

func queryText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case json.Number:
		return val.String()
	}

	return fmt.Sprint(v)
}
