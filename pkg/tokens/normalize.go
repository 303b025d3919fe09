package tokens

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Flat is the result of flattening a group tree.
type Flat struct {
	// Tokens maps full variable paths to records in traversal order.
	Tokens *orderedmap.OrderedMap[string, Record]

	// Legacy is set once any leaf used the legacy type/value dialect.
	Legacy bool
}

// Len returns the number of flattened records.
func (f *Flat) Len() int { return f.Tokens.Len() }

// Paths returns the flattened paths in traversal order.
func (f *Flat) Paths() []string {
	out := make([]string, 0, f.Tokens.Len())
	for pair := f.Tokens.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Get returns the record for path.
func (f *Flat) Get(path string) (Record, bool) { return f.Tokens.Get(path) }

// Entries renders every record as a DTCG leaf, ready for Unflatten.
func (f *Flat) Entries() []Entry {
	out := make([]Entry, 0, f.Tokens.Len())
	for pair := f.Tokens.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Entry{Path: pair.Key, Node: pair.Value.Node()})
	}
	return out
}

// IsMetadataKey reports whether a group key is reserved metadata ("_" or "$" prefix).
func IsMetadataKey(key string) bool {
	return strings.HasPrefix(key, "_") || strings.HasPrefix(key, "$")
}

// Flatten walks a group and returns every leaf keyed by its full path.
// Duplicate paths keep the last record at the first position seen.
func Flatten(group *Node, prefix string) *Flat {
	flat := &Flat{Tokens: orderedmap.New[string, Record]()}
	walk(group, prefix, flat)
	return flat
}

func walk(group *Node, prefix string, acc *Flat) {
	if !group.IsObject() {
		return
	}
	for pair := group.Fields.Oldest(); pair != nil; pair = pair.Next() {
		key, child := pair.Key, pair.Value
		if IsMetadataKey(key) {
			continue
		}
		path := childPath(prefix, key)
		if rec, ok := normalizeLeaf(child); ok {
			if rec.Legacy {
				acc.Legacy = true
			}
			acc.Tokens.Set(path, rec)
			continue
		}
		if child.IsObject() {
			walk(child, path, acc)
		}
	}
}

// normalizeLeaf recognises a leaf and converts it to a Record. DTCG fields win
// over legacy ones on the same node.
func normalizeLeaf(n *Node) (Record, bool) {
	if !n.IsObject() {
		return Record{}, false
	}

	dtcgType, hasDTCGType := n.Get("$type")
	dtcgValue, hasDTCGValue := n.Get("$value")
	legacyType, hasLegacyType := n.Get("type")
	legacyValue, hasLegacyValue := n.Get("value")

	typeNode, hasType := dtcgType, hasDTCGType
	if !hasType {
		typeNode, hasType = legacyType, hasLegacyType
	}
	valueNode, hasValue := dtcgValue, hasDTCGValue
	if !hasValue {
		valueNode, hasValue = legacyValue, hasLegacyValue
	}

	targetCollection, hasTargetCollection := stringField(n, "targetCollection")
	targetVariable, hasTargetVariable := stringField(n, "targetVariable")
	explicitAlias := hasTargetCollection && hasTargetVariable

	if !(hasType && hasValue) && !explicitAlias {
		return Record{}, false
	}

	rec := Record{
		Legacy: !hasDTCGType && !hasDTCGValue && (hasLegacyType || hasLegacyValue),
	}
	if hasType {
		rec.Type, _ = typeNode.AsString()
	}
	if desc, ok := stringField(n, "$description"); ok {
		rec.Description = desc
	} else if desc, ok := stringField(n, "description"); ok {
		rec.Description = desc
	}

	if explicitAlias {
		rec.Value = AliasValue(AliasRef{Collection: targetCollection, Path: targetVariable})
		return rec, true
	}
	rec.Value = classifyValue(valueNode)
	return rec, true
}

func stringField(n *Node, key string) (string, bool) {
	child, ok := n.Get(key)
	if !ok {
		return "", false
	}
	return child.AsString()
}
