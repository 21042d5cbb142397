package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseTree decodes a nested JSON object, preserving key order. Values must
// be strings or objects.
func ParseTree(data []byte) (*Tree, error) {
	tree, err := parse(data, false)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return tree, nil
}

// ParseDictionary decodes a remote dictionary. The service may answer with
// flat slugs or with a nested object; both end up as a flat catalog.
//
// Dictionaries are read leniently: an empty array (how some backends encode
// an empty map) or null is an empty catalog, null values become "" and
// numbers or booleans keep their JSON text.
func ParseDictionary(data []byte) (*Flat, error) {
	tree, err := parse(data, true)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return Flatten(tree), nil
}

type parser struct {
	dec     *json.Decoder
	lenient bool
}

func parse(data []byte, lenient bool) (*Tree, error) {
	p := &parser{dec: json.NewDecoder(bytes.NewReader(data)), lenient: lenient}
	p.dec.UseNumber()

	t, err := p.dec.Token()
	if err != nil {
		return nil, err
	}

	var tree *Tree
	switch {
	case t == json.Delim('{'):
		if tree, err = p.object(""); err != nil {
			return nil, err
		}
	case lenient && t == nil:
		tree = NewTree()
	case lenient && t == json.Delim('['):
		if err := p.emptyArray(""); err != nil {
			return nil, err
		}
		tree = NewTree()
	default:
		return nil, fmt.Errorf("expected {, got %v", t)
	}

	if _, err := p.dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return tree, nil
}

// object reads key/value pairs up to and including the closing brace.
// The opening brace has already been consumed.
func (p *parser) object(prefix string) (*Tree, error) {
	tree := NewTree()

	for p.dec.More() {
		kt, err := p.dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %T", kt)
		}
		path := key
		if prefix != "" {
			path = prefix + Delimiter + key
		}

		vt, err := p.dec.Token()
		if err != nil {
			return nil, err
		}
		switch v := vt.(type) {
		case string:
			tree.Set(key, LeafNode(v))
		case json.Delim:
			switch {
			case v == '{':
				child, err := p.object(path)
				if err != nil {
					return nil, err
				}
				tree.Set(key, TreeNode(child))
			case v == '[' && p.lenient:
				if err := p.emptyArray(path); err != nil {
					return nil, err
				}
				tree.Set(key, TreeNode(NewTree()))
			default:
				return nil, fmt.Errorf("unsupported value %v at %q", v, path)
			}
		case nil:
			if !p.lenient {
				return nil, fmt.Errorf("expected string or object at %q, got null", path)
			}
			tree.Set(key, LeafNode(""))
		case json.Number:
			if !p.lenient {
				return nil, fmt.Errorf("expected string or object at %q, got number", path)
			}
			tree.Set(key, LeafNode(v.String()))
		case bool:
			if !p.lenient {
				return nil, fmt.Errorf("expected string or object at %q, got bool", path)
			}
			tree.Set(key, LeafNode(strconv.FormatBool(v)))
		default:
			return nil, fmt.Errorf("expected string or object at %q, got %T", path, vt)
		}
	}

	// Closing brace.
	if _, err := p.dec.Token(); err != nil {
		return nil, err
	}
	return tree, nil
}

// emptyArray consumes the closing bracket of an array that must be empty.
func (p *parser) emptyArray(path string) error {
	if p.dec.More() {
		if path == "" {
			return fmt.Errorf("expected object or empty array, got non-empty array")
		}
		return fmt.Errorf("non-empty array at %q", path)
	}
	_, err := p.dec.Token()
	return err
}

// Marshal renders the tree as indented JSON (2 spaces) in key order.
// Non-ASCII characters are written literally and HTML is not escaped.
func (t *Tree) Marshal() ([]byte, error) {
	var b strings.Builder
	writeTree(&b, t, 0)
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func writeTree(b *strings.Builder, t *Tree, depth int) {
	if t.Len() == 0 {
		b.WriteString("{}")
		return
	}

	indent := strings.Repeat("  ", depth+1)
	b.WriteString("{\n")
	for i, key := range t.keys {
		b.WriteString(indent)
		b.WriteString(jsonString(key))
		b.WriteString(": ")

		n := t.nodes[key]
		if n.IsLeaf() {
			b.WriteString(jsonString(n.value))
		} else {
			writeTree(b, n.children, depth+1)
		}

		if i < len(t.keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteByte('}')
}

// jsonString returns s as a JSON string literal. Only quotes, backslashes
// and control characters are escaped; everything else, including U+2028,
// U+2029 and bytes that are not valid UTF-8, is written as is.
func jsonString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if c < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
