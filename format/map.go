package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"slices"

	"github.com/google/go-querystring/query"
	"gopkg.in/yaml.v3"
)

// Map is a string keyed mapping that remembers insertion order.
// The zero value is ready to use. A nil *Map reads as empty.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap returns an empty *Map.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// Set stores val under key. Existing keys keep their position.
func (m *Map) Set(key string, val any) *Map {
	if m.values == nil {
		m.values = make(map[string]any)
	}

	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = val

	return m
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}

	v, ok := m.values[key]
	return v, ok
}

// Delete removes key if present.
func (m *Map) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}

	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}

	return slices.Clone(m.keys)
}

// Clone returns a shallow copy of m.
func (m *Map) Clone() *Map {
	out := NewMap()
	for _, k := range m.Keys() {
		out.Set(k, m.values[k])
	}

	return out
}

// Merge copies every entry of other into m, overriding values on collision.
func (m *Map) Merge(other *Map) *Map {
	for _, k := range other.Keys() {
		v, _ := other.Get(k)
		m.Set(k, v)
	}

	return m
}

// MarshalJSON writes the entries as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')

		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal key[%s]: %w", k, err)
		}
		buf.Write(vb)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// MarshalYAML emits a mapping node so key order survives encoding.
func (m *Map) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, k := range m.Keys() {
		var val yaml.Node
		if err := val.Encode(m.values[k]); err != nil {
			return nil, fmt.Errorf("marshal key[%s]: %w", k, err)
		}

		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		node.Content = append(node.Content, key, &val)
	}

	return node, nil
}

// UnmarshalYAML fills m from a mapping node, keeping document order.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	v, err := nodeValue(node)
	if err != nil {
		return err
	}

	out, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("yaml node kind[%d] is not a mapping", node.Kind)
	}
	*m = *out

	return nil
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])

	case yaml.AliasNode:
		return nodeValue(n.Alias)

	case yaml.MappingNode:
		out := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Set(n.Content[i].Value, v)
		}
		return out, nil

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}

	return v, nil
}

// FromAny converts structured params into a *Map. The bool result is false
// when v is not structured (strings, byte slices, readers and other scalars),
// in which case callers pass v through untouched. A nil v is an empty Map.
//
// Go maps carry no order, so their keys are sorted. Structs are read through
// their `url` tags, the way a query string would carry them.
func FromAny(v any) (*Map, bool, error) {
	if m, ok := fromMapping(v); ok {
		return m, true, nil
	}
	if !isStruct(v) {
		return nil, false, nil
	}

	vals, err := query.Values(v)
	if err != nil {
		return nil, false, fmt.Errorf("struct to values: %w", err)
	}

	return fromValues(vals), true, nil
}

// FromBody is FromAny for request bodies: structs are read through their
// JSON form, so json tags, numbers and nested values survive.
func FromBody(v any) (*Map, bool, error) {
	if m, ok := fromMapping(v); ok {
		return m, true, nil
	}
	if !isStruct(v) {
		return nil, false, nil
	}

	t, err := expand(v)
	if err != nil {
		return nil, false, fmt.Errorf("struct to map: %w", err)
	}

	m, ok := t.(*Map)
	if !ok {
		return nil, false, fmt.Errorf("struct %T does not encode as an object", v)
	}

	return m, true, nil
}

// fromMapping returns v as a shallow *Map when v is a mapping with string keys.
func fromMapping(v any) (*Map, bool) {
	switch val := v.(type) {
	case nil:
		return NewMap(), true
	case *Map:
		if val == nil {
			return NewMap(), true
		}
		return val, true
	case Map:
		return &val, true
	case url.Values:
		return fromValues(val), true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	keys := make([]string, 0, rv.Len())
	vals := make(map[string]any, rv.Len())
	for iter := rv.MapRange(); iter.Next(); {
		k := iter.Key().String()
		keys = append(keys, k)
		vals[k] = iter.Value().Interface()
	}
	slices.Sort(keys)

	out := NewMap()
	for _, k := range keys {
		out.Set(k, vals[k])
	}

	return out, true
}

func isStruct(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}

	return rv.Kind() == reflect.Struct
}

func fromValues(vals url.Values) *Map {
	out := NewMap()
	for _, k := range sortedKeys(vals) {
		vs := vals[k]
		if len(vs) == 1 {
			out.Set(k, vs[0])
			continue
		}

		list := make([]any, len(vs))
		for i, s := range vs {
			list[i] = s
		}
		out.Set(k, list)
	}

	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}
