package format

import (
	"cmp"
	"encoding"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"slices"
)

// Normalize converts string keyed Go maps into *Map values and slices or
// arrays into []any, recursively, so every encoder walks a single
// structured type. Structs, pointers and values that marshal themselves are
// left untouched for the codec.
func Normalize(v any) any {
	out, _ := walk(v, nil)
	return out
}

// Tree is Normalize for codecs that walk the data themselves. Structs and
// pointers are expanded through their JSON form, so json tags apply, and
// values implementing encoding.TextMarshaler become their text.
func Tree(v any) (any, error) {
	return walk(v, expand)
}

func walk(v any, leaf func(any) (any, error)) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case *Map:
		out := NewMap()
		for _, k := range val.Keys() {
			child, _ := val.Get(k)
			c, err := walk(child, leaf)
			if err != nil {
				return nil, fmt.Errorf("key[%s]: %w", k, err)
			}
			out.Set(k, c)
		}
		return out, nil
	case Map:
		return walk(&val, leaf)
	case url.Values:
		return walk(fromValues(val), leaf)
	case string, []byte, bool, json.Number:
		return val, nil
	case json.Marshaler, encoding.TextMarshaler:
		return opaque(v, leaf)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return opaque(v, leaf)
		}

		type entry struct {
			key string
			val reflect.Value
		}
		entries := make([]entry, 0, rv.Len())
		for iter := rv.MapRange(); iter.Next(); {
			entries = append(entries, entry{key: iter.Key().String(), val: iter.Value()})
		}
		slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(a.key, b.key) })

		out := NewMap()
		for _, e := range entries {
			c, err := walk(e.val.Interface(), leaf)
			if err != nil {
				return nil, fmt.Errorf("key[%s]: %w", e.key, err)
			}
			out.Set(e.key, c)
		}
		return out, nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v, nil
		}

		out := make([]any, rv.Len())
		for i := range out {
			c, err := walk(rv.Index(i).Interface(), leaf)
			if err != nil {
				return nil, fmt.Errorf("index[%d]: %w", i, err)
			}
			out[i] = c
		}
		return out, nil

	case reflect.Struct, reflect.Pointer:
		return opaque(v, leaf)
	}

	return v, nil
}

func opaque(v any, leaf func(any) (any, error)) (any, error) {
	if leaf == nil {
		return v, nil
	}

	return leaf(v)
}

func expand(v any) (any, error) {
	_, isJSON := v.(json.Marshaler)
	if tm, ok := v.(encoding.TextMarshaler); ok && !isJSON {
		b, err := tm.MarshalText()
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return DecodeJSON(b)
}

// plain turns *Map values back into Go maps and numbers into Go numerics
// for codecs that only understand builtin types.
func plain(v any) any {
	switch val := v.(type) {
	case *Map:
		out := make(map[string]any, val.Len())
		for _, k := range val.Keys() {
			child, _ := val.Get(k)
			out[k] = plain(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = plain(child)
		}
		return out
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	}

	return v
}
