package format

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// EncodeCSV renders data as CSV with a heading row. A mapping whose values
// are themselves mappings (or a list of mappings) is one row per value, with
// headings taken from the first row; any other mapping is a single row.
func EncodeCSV(data any) ([]byte, error) {
	t, err := Tree(data)
	if err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}

	var rows []*Map

	switch val := t.(type) {
	case *Map:
		if first, ok := firstValue(val).(*Map); ok && first != nil {
			for _, k := range val.Keys() {
				row, _ := val.Get(k)
				rows = append(rows, asRow(row))
			}
		} else {
			rows = []*Map{val}
		}
	case []any:
		for _, row := range val {
			rows = append(rows, asRow(row))
		}
	default:
		return nil, fmt.Errorf("encode csv: %T is not tabular", data)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if len(rows) > 0 {
		headings := rows[0].Keys()
		if err := w.Write(headings); err != nil {
			return nil, fmt.Errorf("write headings: %w", err)
		}

		for _, row := range rows {
			record := make([]string, len(headings))
			for i, h := range headings {
				if v, ok := row.Get(h); ok && v != nil {
					record[i] = scalarText(v)
				}
			}
			if err := w.Write(record); err != nil {
				return nil, fmt.Errorf("write row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return buf.Bytes(), nil
}

func firstValue(m *Map) any {
	keys := m.Keys()
	if len(keys) == 0 {
		return nil
	}

	v, _ := m.Get(keys[0])
	return v
}

func asRow(v any) *Map {
	if m, ok := v.(*Map); ok {
		return m
	}

	return NewMap().Set("0", v)
}

// DecodeCSV parses CSV whose first record holds the headings. Every
// following record becomes a *Map keyed by heading.
func DecodeCSV(raw []byte) (any, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1

	headings, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read headings: %w", err)
	}

	rows := []any{}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		row := NewMap()
		for i, h := range headings {
			if i < len(record) {
				row.Set(h, record[i])
			} else {
				row.Set(h, "")
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
