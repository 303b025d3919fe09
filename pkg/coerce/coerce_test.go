package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/tokensync/pkg/host"
	"github.com/gnana997/tokensync/pkg/tokens"
)

func TestResolvedTypeFor(t *testing.T) {
	tests := map[string]host.ResolvedType{
		"color":      host.TypeColor,
		"COLOR":      host.TypeColor,
		"number":     host.TypeFloat,
		"Boolean":    host.TypeBoolean,
		"string":     host.TypeString,
		"dimension":  host.TypeString,
		"fontFamily": host.TypeString,
		"":           host.TypeString,
	}
	for tag, want := range tests {
		assert.Equal(t, want, ResolvedTypeFor(tag), "tag %q", tag)
	}
}

func TestTypeTags(t *testing.T) {
	assert.Equal(t, "number", TypeTag(host.TypeFloat))
	assert.Equal(t, "dimension", FullSpecTypeTag(host.TypeFloat))
	assert.Equal(t, "color", FullSpecTypeTag(host.TypeColor))
	assert.Equal(t, "boolean", TypeTag(host.TypeBoolean))
	assert.Equal(t, "string", TypeTag(host.TypeString))
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want host.Color
	}{
		{"#FF0000", host.Color{R: 1, G: 0, B: 0, A: 1}},
		{"#00ff00", host.Color{R: 0, G: 1, B: 0, A: 1}},
		{"#00F", host.Color{R: 0, G: 0, B: 1, A: 1}},
		{"#FFFFFF80", host.Color{R: 1, G: 1, B: 1, A: 128.0 / 255}},
		{"#0000", host.Color{R: 0, G: 0, B: 0, A: 0}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseHex(tc.in)
			require.NoError(t, err)
			assert.InDelta(t, tc.want.R, got.R, 1e-9)
			assert.InDelta(t, tc.want.G, got.G, 1e-9)
			assert.InDelta(t, tc.want.B, got.B, 1e-9)
			assert.InDelta(t, tc.want.A, got.A, 1e-9)
		})
	}

	for _, bad := range []string{"FF0000", "#FF00", "#GG0000", "#12345Z", "#"} {
		_, err := ParseHex(bad)
		if bad == "#FF00" {
			// four digits is #RGBA
			assert.NoError(t, err)
			continue
		}
		assert.Error(t, err, bad)
	}
}

func TestHexString(t *testing.T) {
	assert.Equal(t, "#FF0000", HexString(host.Color{R: 1, A: 1}))
	assert.Equal(t, "#AABBCC", HexString(host.Color{R: 170.0 / 255, G: 187.0 / 255, B: 204.0 / 255, A: 0.2}))
	assert.Equal(t, "#FFFFFF", HexString(host.Color{R: 1.2, G: 1, B: 1}))
	assert.Equal(t, "#000000", HexString(host.Color{R: -0.1}))
}

func TestColorRoundTrip(t *testing.T) {
	hex := HexString(host.Color{R: 1, G: 0, B: 0, A: 1})
	assert.Equal(t, "#FF0000", hex)

	back, ok := ToHost(tokens.ScalarValue(hex), host.TypeColor)
	require.True(t, ok)
	c := back.(host.Color)
	assert.InDelta(t, 1.0, c.R, 1.0/255)
	assert.InDelta(t, 0.0, c.G, 1.0/255)
	assert.InDelta(t, 0.0, c.B, 1.0/255)
	assert.Equal(t, 1.0, c.A)
}

func TestToHost(t *testing.T) {
	half := 0.5
	tests := []struct {
		name   string
		value  tokens.Value
		typ    host.ResolvedType
		want   host.Value
		wantOK bool
	}{
		{"structured color", tokens.Value{Kind: tokens.KindColor, ColorSpace: "srgb", Components: [3]float64{0.1, 0.2, 0.3}}, host.TypeColor, host.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}, true},
		{"structured color alpha", tokens.Value{Kind: tokens.KindColor, Components: [3]float64{1, 1, 1}, Alpha: &half}, host.TypeColor, host.Color{R: 1, G: 1, B: 1, A: 0.5}, true},
		{"dimension unwraps", tokens.Value{Kind: tokens.KindDimension, Number: 12, Unit: "px"}, host.TypeFloat, 12.0, true},
		{"numeric string", tokens.ScalarValue(" 8.5 "), host.TypeFloat, 8.5, true},
		{"bad numeric string passes through", tokens.ScalarValue("large"), host.TypeFloat, "large", false},
		{"number stays number", tokens.ScalarValue(4.0), host.TypeFloat, 4.0, true},
		{"true string", tokens.ScalarValue("TRUE"), host.TypeBoolean, true, true},
		{"false string", tokens.ScalarValue("false"), host.TypeBoolean, false, true},
		{"bad boolean string", tokens.ScalarValue("yes"), host.TypeBoolean, "yes", false},
		{"bool literal", tokens.ScalarValue(true), host.TypeBoolean, true, true},
		{"string untouched", tokens.ScalarValue("Inter"), host.TypeString, "Inter", true},
		{"non-hex color string", tokens.ScalarValue("red"), host.TypeColor, "red", false},
		{"alias is not coerced", tokens.AliasValue(tokens.AliasRef{Collection: "A", Path: "B"}), host.TypeColor, "{A.B}", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ToHost(tc.value, tc.typ)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToHost_UnknownObjectFails(t *testing.T) {
	node := tokens.NewGroup()
	node.Set("foo", tokens.NewScalar("bar"))
	got, ok := ToHost(tokens.ScalarValue(node), host.TypeString)
	assert.False(t, ok)
	assert.Equal(t, map[string]any{"foo": "bar"}, got)
}
