package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EncodePHP renders data as a PHP array literal, the way var_export prints it.
func EncodePHP(data any) ([]byte, error) {
	t, err := Tree(data)
	if err != nil {
		return nil, fmt.Errorf("encode php: %w", err)
	}

	var b bytes.Buffer
	exportPHP(&b, t, 0)

	return b.Bytes(), nil
}

func exportPHP(b *bytes.Buffer, v any, depth int) {
	indent := strings.Repeat("  ", depth)

	writeEntry := func(key string, child any) {
		b.WriteString(indent + "  ")
		b.WriteString(phpKey(key))
		b.WriteString(" => ")
		switch child.(type) {
		case *Map, []any:
			b.WriteString("\n" + indent + "  ")
			exportPHP(b, child, depth+1)
		default:
			b.WriteString(phpScalar(child))
		}
		b.WriteString(",\n")
	}

	switch val := v.(type) {
	case *Map:
		b.WriteString("array (\n")
		for _, k := range val.Keys() {
			child, _ := val.Get(k)
			writeEntry(k, child)
		}
		b.WriteString(indent + ")")
	case []any:
		b.WriteString("array (\n")
		for i, child := range val {
			writeEntry(strconv.Itoa(i), child)
		}
		b.WriteString(indent + ")")
	default:
		b.WriteString(phpScalar(val))
	}
}

func phpKey(k string) string {
	if n, err := strconv.Atoi(k); err == nil && strconv.Itoa(n) == k {
		return k
	}

	return phpString(k)
}

func phpScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case string:
		return phpString(val)
	case []byte:
		return phpString(string(val))
	case json.Number:
		return val.String()
	case float32:
		return phpFloat(float64(val))
	case float64:
		return phpFloat(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val)
	}

	return phpString(fmt.Sprint(v))
}

func phpFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if f == math.Trunc(f) && !strings.ContainsAny(s, "eE") {
		s += ".0"
	}

	return s
}

func phpString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)

	return "'" + s + "'"
}
