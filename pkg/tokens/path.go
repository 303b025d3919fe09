package tokens

import (
	"strings"
	"unicode"
)

// PathSeparator separates group names in a variable name.
const PathSeparator = "/"

// JoinPath joins group and leaf names into a variable name.
func JoinPath(parts ...string) string {
	return strings.Join(parts, PathSeparator)
}

// SplitPath splits a variable name into its group and leaf names.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

// childPath appends key to prefix, omitting the separator for the root.
func childPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + PathSeparator + key
}

// Transliterate renders a path as a CSS identifier fragment or Tailwind key:
// separators and whitespace become "-" and the result is lower-cased.
// The mapping is lossy and has no inverse.
func Transliterate(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	for _, r := range path {
		if r == '/' || unicode.IsSpace(r) {
			b.WriteByte('-')
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// AliasRef names an alias target by collection name and variable path.
type AliasRef struct {
	Collection string
	Path       string
}

// String renders the reference in brace form: {Collection.Path.With.Dots}.
func (r AliasRef) String() string {
	return "{" + r.Collection + "." + strings.ReplaceAll(r.Path, PathSeparator, ".") + "}"
}

// ParseAliasString decodes a brace reference such as "{Colors.Brand.Primary}".
// The content must split on "." into at least two segments: the first names the
// collection and the rest form the variable path.
func ParseAliasString(s string) (AliasRef, bool) {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return AliasRef{}, false
	}
	segments := strings.Split(s[1:len(s)-1], ".")
	if len(segments) < 2 {
		return AliasRef{}, false
	}
	return AliasRef{
		Collection: segments[0],
		Path:       JoinPath(segments[1:]...),
	}, true
}

// Entry pairs a variable path with the node rendered for it.
type Entry struct {
	Path string
	Node *Node
}

// Unflatten rebuilds a nested group from flat entries, creating intermediate
// groups in first-seen order. A later entry whose path passes through an
// existing leaf replaces that leaf with a group. Only groups created here are
// descended into, so segments named like token keys ("type", "value") stay
// groups.
func Unflatten(entries []Entry) *Node {
	root := NewGroup()
	groups := map[*Node]bool{root: true}
	for _, e := range entries {
		parts := SplitPath(e.Path)
		if len(parts) == 0 {
			continue
		}
		group := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := group.Get(part)
			if !ok || !groups[child] {
				child = NewGroup()
				groups[child] = true
				group.Set(part, child)
			}
			group = child
		}
		group.Set(parts[len(parts)-1], e.Node)
	}
	return root
}
