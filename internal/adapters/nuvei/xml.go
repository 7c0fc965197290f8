package nuvei

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kevin07696/nuvei-gateway/pkg/encoding"
	"golang.org/x/net/html/charset"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Marshal renders fields as children of a single root element.
// Element text is escaped; no attributes are written.
func Marshal(root string, fields Fields) ([]byte, error) {
	if root == "" {
		return nil, errors.New("xml root element name is required")
	}

	buf := encoding.GetBuffer()
	defer encoding.PutBuffer(buf)
	buf.WriteString(xmlHeader)

	enc := xml.NewEncoder(buf)
	enc.Indent("", "  ")

	start := xml.StartElement{Name: xml.Name{Local: root}}
	if err := enc.EncodeToken(start); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", root, err)
	}
	if err := encodeFields(enc, fields); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", root, err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush xml: %w", err)
	}
	return encoding.Detach(buf), nil
}

func encodeFields(enc *xml.Encoder, fields Fields) error {
	for _, f := range fields {
		start := xml.StartElement{Name: xml.Name{Local: f.Name}}
		if f.Children != nil {
			if err := enc.EncodeToken(start); err != nil {
				return fmt.Errorf("failed to encode %s: %w", f.Name, err)
			}
			if err := encodeFields(enc, f.Children); err != nil {
				return err
			}
			if err := enc.EncodeToken(start.End()); err != nil {
				return fmt.Errorf("failed to encode %s: %w", f.Name, err)
			}
			continue
		}
		if err := enc.EncodeElement(f.Value, start); err != nil {
			return fmt.Errorf("failed to encode %s: %w", f.Name, err)
		}
	}
	return nil
}

// Unmarshal parses a request document back into its root name and fields.
// An element with child elements becomes a nested block; leaf text is kept verbatim.
func Unmarshal(data []byte) (string, Fields, error) {
	root, err := parseDocument(data)
	if err != nil {
		return "", nil, err
	}
	return root.name, root.toFields(), nil
}

// node is a minimal element tree used for both request round-trips and
// response parsing.
type node struct {
	name     string
	text     strings.Builder
	children []*node
}

func parseDocument(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	// Responses may declare a non-UTF-8 encoding such as ISO-8859-1.
	dec.CharsetReader = charset.NewReaderLabel

	var root *node
	var stack []*node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
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
		return nil, errors.New("document has no root element")
	}
	if len(stack) != 0 {
		return nil, errors.New("unexpected end of document")
	}
	return root, nil
}

func (n *node) toFields() Fields {
	fields := make(Fields, 0, len(n.children))
	for _, c := range n.children {
		if len(c.children) > 0 {
			fields = append(fields, Field{Name: c.name, Children: c.toFields()})
			continue
		}
		fields = append(fields, Field{Name: c.name, Value: c.text.String()})
	}
	return fields
}

// find returns the first element with the given name in document order,
// searching n's descendants.
func (n *node) find(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
		if found := c.find(name); found != nil {
			return found
		}
	}
	return nil
}

// lookup is find that also matches n itself
func (n *node) lookup(name string) *node {
	if n.name == name {
		return n
	}
	return n.find(name)
}

// textOf returns a pointer to the element's text as received, or nil when
// absent. The text is not trimmed; RESPONSETEXT is hashed verbatim.
func (n *node) textOf(name string) *string {
	el := n.lookup(name)
	if el == nil {
		return nil
	}
	s := el.text.String()
	return &s
}
