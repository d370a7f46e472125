package shred

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/KilimcininKorOglu/revtree/internal/node"
)

// ErrUnsupportedValue is returned for Go values with no node mapping.
var ErrUnsupportedValue = errors.New("unsupported value type")

// FromValue converts a decoded JSON value into a tree. Objects become an
// Object node with one ObjectKey child per key, in sorted key order, each
// holding the key's value.
func FromValue(v interface{}) (*Node, error) {
	switch x := v.(type) {
	case nil:
		return &Node{Kind: node.KindNull}, nil
	case bool:
		b := byte(0)
		if x {
			b = 1
		}
		return &Node{Kind: node.KindBoolean, Value: []byte{b}}, nil
	case string:
		return &Node{Kind: node.KindString, Value: []byte(x)}, nil
	case json.Number:
		return &Node{Kind: node.KindNumber, Value: []byte(x.String())}, nil
	case float64:
		return &Node{Kind: node.KindNumber, Value: []byte(strconv.FormatFloat(x, 'g', -1, 64))}, nil
	case int:
		return &Node{Kind: node.KindNumber, Value: []byte(strconv.Itoa(x))}, nil
	case int64:
		return &Node{Kind: node.KindNumber, Value: []byte(strconv.FormatInt(x, 10))}, nil
	case []interface{}:
		arr := &Node{Kind: node.KindArray, Children: make([]*Node, 0, len(x))}
		for i, item := range x {
			child, err := FromValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr.Children = append(arr.Children, child)
		}
		return arr, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		obj := &Node{Kind: node.KindObject, Children: make([]*Node, 0, len(x))}
		for _, k := range keys {
			child, err := FromValue(x[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			obj.Children = append(obj.Children, &Node{Kind: node.KindObjectKey, Name: k, Children: []*Node{child}})
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// ParseJSON decodes one JSON document from r. Numbers keep their textual
// form.
func ParseJSON(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return FromValue(v)
}
