package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinSplitPath(t *testing.T) {
	assert.Equal(t, "Color/Brand/Primary", JoinPath("Color", "Brand", "Primary"))
	assert.Equal(t, []string{"Color", "Brand", "Primary"}, SplitPath("Color/Brand/Primary"))
	assert.Nil(t, SplitPath(""))
}

func TestTransliterate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Color/Brand/Primary", "color-brand-primary"},
		{"Font Size/Body Large", "font-size-body-large"},
		{"Spacing\t2X", "spacing-2x"},
		{"already-kebab", "already-kebab"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Transliterate(tc.in))
		})
	}
}

func TestParseAliasString(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   AliasRef
		wantOK bool
	}{
		{"two segments", "{Core.Primary}", AliasRef{Collection: "Core", Path: "Primary"}, true},
		{"deep path", "{Brand.Color.Text.Muted}", AliasRef{Collection: "Brand", Path: "Color/Text/Muted"}, true},
		{"single segment", "{Primary}", AliasRef{}, false},
		{"no braces", "Core.Primary", AliasRef{}, false},
		{"hex color", "#FF0000", AliasRef{}, false},
		{"empty", "", AliasRef{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseAliasString(tc.in)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAliasRef_String(t *testing.T) {
	ref := AliasRef{Collection: "Brand", Path: "Color/Primary"}
	assert.Equal(t, "{Brand.Color.Primary}", ref.String())

	back, ok := ParseAliasString(ref.String())
	require.True(t, ok)
	assert.Equal(t, ref, back)
}

func TestUnflatten_BuildsGroupsInOrder(t *testing.T) {
	root := Unflatten([]Entry{
		{Path: "B/One", Node: NewScalar(1.0)},
		{Path: "A", Node: NewScalar(2.0)},
		{Path: "B/Two/Deep", Node: NewScalar(3.0)},
	})

	assert.Equal(t, []string{"B", "A"}, root.Keys())
	b, ok := root.Get("B")
	require.True(t, ok)
	assert.Equal(t, []string{"One", "Two"}, b.Keys())
}

func TestUnflatten_TokenKeyNamedSegments(t *testing.T) {
	leaf := func(v string) *Node {
		n := NewGroup()
		n.Set("$type", NewScalar("string"))
		n.Set("$value", NewScalar(v))
		return n
	}
	root := Unflatten([]Entry{
		{Path: "Input/type", Node: leaf("text")},
		{Path: "Input/value", Node: leaf("hello")},
		{Path: "Input/label", Node: leaf("Name")},
		{Path: "Other/type/value", Node: leaf("x")},
	})

	input, ok := root.Get("Input")
	require.True(t, ok)
	assert.Equal(t, []string{"type", "value", "label"}, input.Keys())

	other, ok := root.Get("Other")
	require.True(t, ok)
	typ, ok := other.Get("type")
	require.True(t, ok)
	assert.Equal(t, []string{"value"}, typ.Keys())
}

func TestUnflatten_LeafReplacedByGroup(t *testing.T) {
	root := Unflatten([]Entry{
		{Path: "A", Node: NewScalar(1.0)},
		{Path: "A/B", Node: NewScalar(2.0)},
	})
	a, ok := root.Get("A")
	require.True(t, ok)
	assert.Equal(t, []string{"B"}, a.Keys())
}

func TestDocument_Parse(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"$schema": "ignored",
		"Primitives": {
			"Light": {"Gray": {"$type": "color", "$value": "#EEEEEE"}},
			"Dark": {"Gray": {"$type": "color", "$value": "#111111"}},
			"Broken": 42
		},
		"Orphan": "not an object"
	}`))
	require.NoError(t, err)

	require.Len(t, doc.Collections, 1)
	coll := doc.Collections[0]
	assert.Equal(t, "Primitives", coll.Name)
	require.Len(t, coll.Modes, 2)
	first, ok := coll.FirstMode()
	require.True(t, ok)
	assert.Equal(t, "Light", first.Name)
	assert.ElementsMatch(t, []string{"Primitives.Broken", "Orphan"}, doc.Skipped)
}

func TestDocument_RejectsNonObjectRoot(t *testing.T) {
	_, err := ParseDocument([]byte(`[1, 2, 3]`))
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = ParseDocument([]byte(`{not json`))
	assert.Error(t, err)
}
