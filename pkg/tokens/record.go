package tokens

import (
	"strconv"
	"strings"
)

// Type tags used by token documents.
const (
	TypeColor     = "color"
	TypeNumber    = "number"
	TypeBoolean   = "boolean"
	TypeString    = "string"
	TypeDimension = "dimension"
)

// ValueKind classifies a token value.
type ValueKind int

const (
	// KindScalar is a plain JSON value (string, number, bool) or an
	// unrecognised structure passed through as-is.
	KindScalar ValueKind = iota
	// KindColor is a {colorSpace, components} object.
	KindColor
	// KindDimension is a {value, unit} object.
	KindDimension
	// KindAlias references another variable.
	KindAlias
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindColor:
		return "color"
	case KindDimension:
		return "dimension"
	case KindAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// Value is the tagged union held by a token record. Only the fields that
// belong to Kind are meaningful.
type Value struct {
	Kind ValueKind

	// KindScalar
	Scalar any

	// KindColor
	ColorSpace string
	Components [3]float64
	Alpha      *float64

	// KindDimension
	Number float64
	Unit   string

	// KindAlias
	Alias AliasRef
}

// ScalarValue wraps a plain value.
func ScalarValue(v any) Value { return Value{Kind: KindScalar, Scalar: v} }

// AliasValue wraps an alias reference.
func AliasValue(ref AliasRef) Value { return Value{Kind: KindAlias, Alias: ref} }

// IsAlias reports whether the value references another variable.
func (v Value) IsAlias() bool { return v.Kind == KindAlias }

// Node renders the value back into its JSON shape.
func (v Value) Node() *Node {
	switch v.Kind {
	case KindColor:
		n := NewGroup()
		n.Set("colorSpace", NewScalar(v.ColorSpace))
		n.Set("components", NewScalar([]any{v.Components[0], v.Components[1], v.Components[2]}))
		if v.Alpha != nil {
			n.Set("alpha", NewScalar(*v.Alpha))
		}
		return n
	case KindDimension:
		n := NewGroup()
		n.Set("value", NewScalar(v.Number))
		n.Set("unit", NewScalar(v.Unit))
		return n
	case KindAlias:
		return NewScalar(v.Alias.String())
	default:
		if node, ok := v.Scalar.(*Node); ok {
			return node
		}
		return NewScalar(v.Scalar)
	}
}

// Record is a normalized token leaf.
type Record struct {
	Type        string
	Value       Value
	Description string

	// Legacy is set when the leaf used type/value instead of $type/$value.
	Legacy bool
}

// Node renders the record as a DTCG leaf.
func (r Record) Node() *Node {
	n := NewGroup()
	n.Set("$type", NewScalar(r.Type))
	n.Set("$value", r.Value.Node())
	if r.Description != "" {
		n.Set("$description", NewScalar(r.Description))
	}
	return n
}

// classifyValue turns a raw $value node into the tagged union.
func classifyValue(n *Node) Value {
	if n == nil {
		return ScalarValue(nil)
	}
	if !n.IsObject() {
		if s, ok := n.Scalar.(string); ok {
			if ref, ok := ParseAliasString(s); ok {
				return AliasValue(ref)
			}
		}
		return ScalarValue(n.Scalar)
	}

	if space, ok := n.Get("colorSpace"); ok {
		if comps, ok := n.Get("components"); ok {
			if c, ok := components3(comps); ok {
				v := Value{Kind: KindColor, Components: c}
				v.ColorSpace, _ = space.AsString()
				if alpha, ok := n.Get("alpha"); ok {
					if a, ok := toFloat(alpha.Scalar); ok {
						v.Alpha = &a
					}
				}
				return v
			}
		}
	}

	if raw, ok := n.Get("value"); ok {
		if unit, ok := n.Get("unit"); ok {
			if num, ok := toFloat(raw.Scalar); ok {
				u, _ := unit.AsString()
				return Value{Kind: KindDimension, Number: num, Unit: u}
			}
		}
	}

	return ScalarValue(n)
}

func components3(n *Node) ([3]float64, bool) {
	var out [3]float64
	items, ok := n.Scalar.([]any)
	if !ok || len(items) != 3 {
		return out, false
	}
	for i, item := range items {
		f, ok := toFloat(item)
		if !ok {
			return out, false
		}
		out[i] = f
	}
	return out, true
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
