package tokens

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Node {
	t.Helper()
	n, err := ParseNode([]byte(src))
	require.NoError(t, err)
	return n
}

func TestFlatten_NestedPaths(t *testing.T) {
	tree := mustParse(t, `{
		"Color": {
			"Primary": {"$type": "color", "$value": "#AABBCC"},
			"Text": {"Muted": {"$type": "color", "$value": "{Core.Gray.500}"}}
		},
		"Radius": {"$type": "number", "$value": 4}
	}`)

	flat := Flatten(tree, "")
	assert.Equal(t, []string{"Color/Primary", "Color/Text/Muted", "Radius"}, flat.Paths())
	assert.False(t, flat.Legacy)

	muted, ok := flat.Get("Color/Text/Muted")
	require.True(t, ok)
	assert.Equal(t, KindAlias, muted.Value.Kind)
	assert.Equal(t, AliasRef{Collection: "Core", Path: "Gray/500"}, muted.Value.Alias)

	radius, ok := flat.Get("Radius")
	require.True(t, ok)
	assert.Equal(t, KindScalar, radius.Value.Kind)
	assert.Equal(t, 4.0, radius.Value.Scalar)
}

func TestFlatten_Prefix(t *testing.T) {
	tree := mustParse(t, `{"Small": {"$type": "number", "$value": 2}}`)
	flat := Flatten(tree, "Spacing")
	assert.Equal(t, []string{"Spacing/Small"}, flat.Paths())
}

func TestFlatten_SkipsMetadataKeys(t *testing.T) {
	tree := mustParse(t, `{
		"$schema": "https://example.com/schema.json",
		"_notes": {"Hidden": {"$type": "color", "$value": "#000000"}},
		"$extensions": {"Also": {"$type": "color", "$value": "#000000"}},
		"Visible": {"$type": "color", "$value": "#FFFFFF"}
	}`)

	flat := Flatten(tree, "")
	assert.Equal(t, []string{"Visible"}, flat.Paths())
}

func TestFlatten_DialectEquivalence(t *testing.T) {
	legacy := Flatten(mustParse(t, `{"Brand": {"type": "color", "value": "#AABBCC", "description": "main"}}`), "")
	dtcg := Flatten(mustParse(t, `{"Brand": {"$type": "color", "$value": "#AABBCC", "$description": "main"}}`), "")

	assert.True(t, legacy.Legacy)
	assert.False(t, dtcg.Legacy)

	l, ok := legacy.Get("Brand")
	require.True(t, ok)
	d, ok := dtcg.Get("Brand")
	require.True(t, ok)

	assert.Equal(t, d.Type, l.Type)
	assert.Equal(t, d.Value, l.Value)
	assert.Equal(t, d.Description, l.Description)
	assert.True(t, l.Legacy)
	assert.False(t, d.Legacy)
}

func TestFlatten_DTCGWinsOverLegacy(t *testing.T) {
	flat := Flatten(mustParse(t, `{"X": {"$type": "number", "type": "string", "$value": 8, "value": "ignored"}}`), "")
	rec, ok := flat.Get("X")
	require.True(t, ok)
	assert.Equal(t, "number", rec.Type)
	assert.Equal(t, 8.0, rec.Value.Scalar)
	assert.False(t, flat.Legacy)
}

func TestFlatten_ExplicitAliasTarget(t *testing.T) {
	flat := Flatten(mustParse(t, `{"Accent": {"targetCollection": "Brand", "targetVariable": "Color/Primary"}}`), "")
	rec, ok := flat.Get("Accent")
	require.True(t, ok)
	assert.True(t, rec.Value.IsAlias())
	assert.Equal(t, AliasRef{Collection: "Brand", Path: "Color/Primary"}, rec.Value.Alias)
	assert.Empty(t, rec.Type)
}

func TestFlatten_ExplicitTargetBeatsValue(t *testing.T) {
	flat := Flatten(mustParse(t, `{"Accent": {"$type": "color", "$value": "#FF0000", "targetCollection": "Brand", "targetVariable": "Primary"}}`), "")
	rec, ok := flat.Get("Accent")
	require.True(t, ok)
	assert.Equal(t, AliasRef{Collection: "Brand", Path: "Primary"}, rec.Value.Alias)
	assert.Equal(t, "color", rec.Type)
}

func TestFlatten_DuplicatePathLastWriterWins(t *testing.T) {
	tree := NewGroup()
	a := mustParse(t, `{"B": {"$type": "number", "$value": 1}}`)
	tree.Set("A", a)
	tree.Set("Z", mustParse(t, `{"$type": "number", "$value": 9}`))

	flat := Flatten(tree, "")
	// A second walk under the same prefix overwrites in place.
	walk(mustParse(t, `{"A": {"B": {"$type": "number", "$value": 2}}}`), "", flat)

	assert.Equal(t, []string{"A/B", "Z"}, flat.Paths())
	rec, _ := flat.Get("A/B")
	assert.Equal(t, 2.0, rec.Value.Scalar)
}

func TestFlatten_StructuredValues(t *testing.T) {
	flat := Flatten(mustParse(t, `{
		"Red": {"$type": "color", "$value": {"colorSpace": "srgb", "components": [1, 0, 0], "alpha": 0.5}},
		"Gap": {"$type": "dimension", "$value": {"value": 12, "unit": "px"}},
		"Odd": {"$type": "string", "$value": {"foo": "bar"}}
	}`), "")

	red, _ := flat.Get("Red")
	assert.Equal(t, KindColor, red.Value.Kind)
	assert.Equal(t, [3]float64{1, 0, 0}, red.Value.Components)
	require.NotNil(t, red.Value.Alpha)
	assert.Equal(t, 0.5, *red.Value.Alpha)

	gap, _ := flat.Get("Gap")
	assert.Equal(t, KindDimension, gap.Value.Kind)
	assert.Equal(t, 12.0, gap.Value.Number)
	assert.Equal(t, "px", gap.Value.Unit)

	odd, _ := flat.Get("Odd")
	assert.Equal(t, KindScalar, odd.Value.Kind)
}

func TestFlatten_SingleSegmentBraceIsNotAlias(t *testing.T) {
	flat := Flatten(mustParse(t, `{"Label": {"$type": "string", "$value": "{plain}"}}`), "")
	rec, _ := flat.Get("Label")
	assert.Equal(t, KindScalar, rec.Value.Kind)
	assert.Equal(t, "{plain}", rec.Value.Scalar)
}

func TestFlatten_RoundTripNesting(t *testing.T) {
	src := `{
		"Color": {
			"Primary": {"$type": "color", "$value": "#AABBCC"},
			"Red": {"$type": "color", "$value": {"colorSpace": "srgb", "components": [1, 0, 0]}},
			"Text": {"Muted": {"$type": "color", "$value": "{Core.Gray.500}"}}
		},
		"Spacing": {
			"Small": {"$type": "number", "$value": 4, "$description": "small gap"},
			"Gap": {"$type": "dimension", "$value": {"value": 12, "unit": "px"}}
		},
		"Flag": {"$type": "boolean", "$value": true}
	}`
	original := mustParse(t, src)

	rebuilt := Unflatten(Flatten(original, "").Entries())

	want, err := json.Marshal(original)
	require.NoError(t, err)
	got, err := json.Marshal(rebuilt)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}
