package format

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned by DecodeJSON for malformed documents.
var ErrInvalidJSON = errors.New("invalid json")

// DecodeJSON parses raw into nested *Map and []any values. Objects keep
// document key order and numbers are kept as json.Number.
func DecodeJSON(raw []byte) (any, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}

	return jsonValue(gjson.ParseBytes(raw)), nil
}

func jsonValue(r gjson.Result) any {
	switch {
	case r.IsObject():
		out := NewMap()
		r.ForEach(func(key, value gjson.Result) bool {
			out.Set(key.String(), jsonValue(value))
			return true
		})
		return out

	case r.IsArray():
		out := []any{}
		r.ForEach(func(_, value gjson.Result) bool {
			out = append(out, jsonValue(value))
			return true
		})
		return out
	}

	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return json.Number(r.Raw)
	case gjson.True:
		return true
	case gjson.False:
		return false
	}

	return nil
}
