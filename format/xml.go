package format

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	defaultXMLRoot = "xml"
	xmlListItem    = "item"
)

// EncodeXML renders data as an XML document with root as the document
// element. An empty root uses the default "xml" element.
func EncodeXML(data any, root string) ([]byte, error) {
	if root = elementName(root); root == "" {
		root = defaultXMLRoot
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	t, err := Tree(data)
	if err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}

	enc := xml.NewEncoder(&buf)
	if err := writeElement(enc, root, t); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("flush xml: %w", err)
	}

	return buf.Bytes(), nil
}

func writeElement(enc *xml.Encoder, name string, v any) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	switch val := v.(type) {
	case *Map:
		for _, k := range val.Keys() {
			child, _ := val.Get(k)
			childName := elementName(k)
			if childName == "" {
				childName = xmlListItem
			}
			if err := writeElement(enc, childName, child); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range val {
			if err := writeElement(enc, xmlListItem, child); err != nil {
				return err
			}
		}
	case nil:
	default:
		if err := enc.EncodeToken(xml.CharData(scalarText(val))); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

// elementName strips characters that are not valid in an element name.
// Names that end up empty or start with a digit are rejected.
func elementName(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}

	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') || name[0] == '-' {
		return ""
	}

	return name
}

func scalarText(v any) string {
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
	}

	return fmt.Sprint(v)
}

type xmlNode struct {
	name     string
	text     strings.Builder
	children []*xmlNode
}

// DecodeXML parses an XML document into nested *Map values keyed by element
// name, dropping the document element itself. Repeated siblings collapse
// into a list; leaf elements become their trimmed text.
func DecodeXML(raw []byte) (any, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	var (
		root  *xmlNode
		stack []*xmlNode
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local}
			if len(stack) == 0 {
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("decode xml: no document element")
	}

	return root.value(), nil
}

func (n *xmlNode) value() any {
	if len(n.children) == 0 {
		return strings.TrimSpace(n.text.String())
	}

	out := NewMap()
	lists := make(map[string]bool)
	for _, c := range n.children {
		v := c.value()

		existing, ok := out.Get(c.name)
		switch {
		case !ok:
			out.Set(c.name, v)
		case lists[c.name]:
			out.Set(c.name, append(existing.([]any), v))
		default:
			out.Set(c.name, []any{existing, v})
			lists[c.name] = true
		}
	}

	return out
}
