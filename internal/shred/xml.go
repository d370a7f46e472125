package shred

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/KilimcininKorOglu/revtree/internal/node"
)

// ErrNoRootElement is returned for XML input without an element.
var ErrNoRootElement = errors.New("xml has no root element")

// ParseXML decodes the root element of an XML document. Attributes become
// Attribute children ahead of the element content; whitespace-only text is
// dropped.
func ParseXML(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)

	var stack []*Node
	var root *Node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Node{Kind: node.KindElement, Name: qualified(t.Name)}
			for _, a := range t.Attr {
				el.Children = append(el.Children, &Node{Kind: node.KindAttribute, Name: qualified(a.Name), Value: []byte(a.Value)})
			}
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.Children = append(top.Children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 || strings.TrimSpace(string(t)) == "" {
				continue
			}
			top := stack[len(stack)-1]
			top.Children = append(top.Children, &Node{Kind: node.KindText, Value: []byte(string(t))})
		case xml.Comment:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			top.Children = append(top.Children, &Node{Kind: node.KindComment, Value: []byte(string(t))})
		}
	}

	if root == nil {
		return nil, ErrNoRootElement
	}
	return root, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
