// Package tokens models DTCG token documents: ordered JSON trees, token records,
// the path codec that maps nested groups onto slash-delimited variable names, and
// the normalizer that flattens a group tree into records.
package tokens

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Fields is an ordered JSON object.
type Fields = orderedmap.OrderedMap[string, *Node]

// Node is a JSON value that keeps object key order.
//
// Objects populate Fields; every other JSON value (string, float64, bool, nil,
// []any) is held in Scalar.
type Node struct {
	Fields *Fields
	Scalar any
}

// NewGroup returns an empty object node.
func NewGroup() *Node {
	return &Node{Fields: orderedmap.New[string, *Node]()}
}

// NewScalar wraps a plain JSON value.
func NewScalar(v any) *Node {
	return &Node{Scalar: v}
}

// IsObject reports whether the node is a JSON object.
func (n *Node) IsObject() bool {
	return n != nil && n.Fields != nil
}

// Get returns the child stored under key. It returns nil, false for non-objects.
func (n *Node) Get(key string) (*Node, bool) {
	if !n.IsObject() {
		return nil, false
	}
	return n.Fields.Get(key)
}

// Set stores child under key, keeping the position of an existing key.
func (n *Node) Set(key string, child *Node) {
	if n.Fields == nil {
		n.Fields = orderedmap.New[string, *Node]()
	}
	n.Fields.Set(key, child)
}

// Keys returns the object keys in insertion order.
func (n *Node) Keys() []string {
	if !n.IsObject() {
		return nil
	}
	keys := make([]string, 0, n.Fields.Len())
	for pair := n.Fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// AsString returns the scalar string value, if the node holds one.
func (n *Node) AsString() (string, bool) {
	if n == nil || n.Fields != nil {
		return "", false
	}
	s, ok := n.Scalar.(string)
	return s, ok
}

// Interface converts the node into plain Go values (map[string]any for objects).
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}
	if n.Fields == nil {
		return n.Scalar
	}
	out := make(map[string]any, n.Fields.Len())
	for pair := n.Fields.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value.Interface()
	}
	return out
}

// UnmarshalJSON decodes objects into ordered Fields and everything else into Scalar.
func (n *Node) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		n.Fields = orderedmap.New[string, *Node]()
		n.Scalar = nil
		return json.Unmarshal(trimmed, n.Fields)
	}
	n.Fields = nil
	return json.Unmarshal(trimmed, &n.Scalar)
}

// MarshalJSON encodes the node, preserving object key order.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	if n.Fields != nil {
		return n.Fields.MarshalJSON()
	}
	return json.Marshal(n.Scalar)
}

// ParseNode decodes a JSON document into a Node.
func ParseNode(data []byte) (*Node, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// MarshalIndent encodes the node with two-space indentation.
func MarshalIndent(n *Node) ([]byte, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
