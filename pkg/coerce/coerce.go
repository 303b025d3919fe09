// Package coerce converts between token-format values and host-native typed
// values. Import coercion is best-effort: anything it cannot convert is passed
// through unchanged and the host decides whether to accept it.
package coerce

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/gnana997/tokensync/pkg/host"
	"github.com/gnana997/tokensync/pkg/tokens"
)

// ResolvedTypeFor maps a token type tag to a host type. Unknown tags map to STRING.
func ResolvedTypeFor(tag string) host.ResolvedType {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case tokens.TypeColor:
		return host.TypeColor
	case tokens.TypeNumber:
		return host.TypeFloat
	case tokens.TypeBoolean:
		return host.TypeBoolean
	default:
		return host.TypeString
	}
}

// TypeTag returns the simplified-format type tag for a host type.
func TypeTag(t host.ResolvedType) string {
	switch t {
	case host.TypeColor:
		return tokens.TypeColor
	case host.TypeFloat:
		return tokens.TypeNumber
	case host.TypeBoolean:
		return tokens.TypeBoolean
	default:
		return tokens.TypeString
	}
}

// FullSpecTypeTag is TypeTag with FLOAT rendered as "dimension".
func FullSpecTypeTag(t host.ResolvedType) string {
	if t == host.TypeFloat {
		return tokens.TypeDimension
	}
	return TypeTag(t)
}

// ToHost converts a non-alias token value into a host value for a variable of
// type t. ok is false when a conversion was attempted and failed, in which case
// the original value is returned unchanged.
func ToHost(v tokens.Value, t host.ResolvedType) (val host.Value, ok bool) {
	switch v.Kind {
	case tokens.KindColor:
		a := 1.0
		if v.Alpha != nil {
			a = *v.Alpha
		}
		return host.Color{R: v.Components[0], G: v.Components[1], B: v.Components[2], A: a}, true
	case tokens.KindDimension:
		return v.Number, true
	case tokens.KindAlias:
		return v.Alias.String(), false
	}

	if node, isNode := v.Scalar.(*tokens.Node); isNode {
		return node.Interface(), false
	}
	s, isString := v.Scalar.(string)
	if !isString {
		return v.Scalar, true
	}

	switch t {
	case host.TypeColor:
		if !strings.HasPrefix(strings.TrimSpace(s), "#") {
			return s, false
		}
		c, err := ParseHex(s)
		if err != nil {
			return s, false
		}
		return c, true
	case host.TypeFloat:
		f, err := cast.ToFloat64E(strings.TrimSpace(s))
		if err != nil {
			return s, false
		}
		return f, true
	case host.TypeBoolean:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		return s, false
	default:
		return s, true
	}
}
