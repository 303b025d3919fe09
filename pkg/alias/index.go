// Package alias resolves token alias references against a snapshot of the
// host variable namespace and encodes host alias values back into brace form.
package alias

import (
	"context"
	"fmt"
	"strings"

	"github.com/gnana997/tokensync/pkg/host"
	"github.com/gnana997/tokensync/pkg/tokens"
)

// BrokenAlias is rendered in place of an alias whose target no longer exists.
const BrokenAlias = "BROKEN_ALIAS"

type varKey struct {
	collectionID string
	name         string
}

// Index is an in-memory view of the host namespace, taken once per operation
// and updated locally as entities are created.
type Index struct {
	collections []*host.Collection
	variables   []*host.Variable

	collectionByID map[string]*host.Collection
	variableByID   map[string]*host.Variable
	variableByKey  map[varKey]*host.Variable
}

// NewIndex builds an index from already fetched entities.
func NewIndex(collections []*host.Collection, variables []*host.Variable) *Index {
	idx := &Index{
		collectionByID: make(map[string]*host.Collection, len(collections)),
		variableByID:   make(map[string]*host.Variable, len(variables)),
		variableByKey:  make(map[varKey]*host.Variable, len(variables)),
	}
	for _, c := range collections {
		idx.AddCollection(c)
	}
	for _, v := range variables {
		idx.AddVariable(v)
	}
	return idx
}

// Snapshot reads the whole namespace from store.
func Snapshot(ctx context.Context, store host.Store) (*Index, error) {
	collections, err := store.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	variables, err := store.Variables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	return NewIndex(collections, variables), nil
}

// AddCollection records a collection, replacing one with the same id.
func (idx *Index) AddCollection(c *host.Collection) {
	if _, exists := idx.collectionByID[c.ID]; !exists {
		idx.collections = append(idx.collections, c)
	} else {
		for i, existing := range idx.collections {
			if existing.ID == c.ID {
				idx.collections[i] = c
			}
		}
	}
	idx.collectionByID[c.ID] = c
}

// AddVariable records a variable. The first variable with a given
// (collection, name) pair wins lookups.
func (idx *Index) AddVariable(v *host.Variable) {
	if _, exists := idx.variableByID[v.ID]; !exists {
		idx.variables = append(idx.variables, v)
	}
	idx.variableByID[v.ID] = v
	key := varKey{collectionID: v.CollectionID, name: v.Name}
	if _, exists := idx.variableByKey[key]; !exists {
		idx.variableByKey[key] = v
	}
}

// Collections returns collections in host order.
func (idx *Index) Collections() []*host.Collection { return idx.collections }

// VariablesIn returns the variables of a collection in host order.
func (idx *Index) VariablesIn(collectionID string) []*host.Variable {
	var out []*host.Variable
	for _, v := range idx.variables {
		if v.CollectionID == collectionID {
			out = append(out, v)
		}
	}
	return out
}

// CollectionByID looks up a collection.
func (idx *Index) CollectionByID(id string) (*host.Collection, bool) {
	c, ok := idx.collectionByID[id]
	return c, ok
}

// VariableByID looks up a variable.
func (idx *Index) VariableByID(id string) (*host.Variable, bool) {
	v, ok := idx.variableByID[id]
	return v, ok
}

// CollectionByName returns the first collection named name.
func (idx *Index) CollectionByName(name string) (*host.Collection, bool) {
	for _, c := range idx.collections {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Lookup finds a variable by name within a collection.
func (idx *Index) Lookup(collectionID, name string) (*host.Variable, bool) {
	v, ok := idx.variableByKey[varKey{collectionID: collectionID, name: name}]
	return v, ok
}

// Match describes how an alias was resolved.
type Match int

const (
	MatchNone Match = iota
	MatchExact
	MatchFuzzy
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	Match    Match
	Variable *host.Variable

	// Collection owns Variable. For MatchFuzzy it differs from the requested one.
	Collection *host.Collection

	// Suggestion is the closest existing variable name when nothing matched.
	Suggestion string
}

// Resolve finds the variable an alias reference points at: first by
// collection name then variable name, then by variable name across every
// collection, taking the first match.
func (idx *Index) Resolve(ref tokens.AliasRef) Resolution {
	if c, ok := idx.CollectionByName(ref.Collection); ok {
		if v, ok := idx.Lookup(c.ID, ref.Path); ok {
			return Resolution{Match: MatchExact, Variable: v, Collection: c}
		}
	}
	for _, v := range idx.variables {
		if v.Name != ref.Path {
			continue
		}
		// Variables whose collection is missing from the snapshot never match.
		if c, ok := idx.collectionByID[v.CollectionID]; ok {
			return Resolution{Match: MatchFuzzy, Variable: v, Collection: c}
		}
	}
	return Resolution{Match: MatchNone, Suggestion: idx.suggest(ref.Path)}
}

// Encode renders the variable behind an alias id as {Collection.path.dots}.
// ok is false when the target or its collection is missing, in which case
// BrokenAlias is returned.
func (idx *Index) Encode(targetID string) (string, bool) {
	target, ok := idx.variableByID[targetID]
	if !ok {
		return BrokenAlias, false
	}
	c, ok := idx.collectionByID[target.CollectionID]
	if !ok {
		return BrokenAlias, false
	}
	return tokens.AliasRef{Collection: c.Name, Path: target.Name}.String(), true
}

// Target returns the alias target and its collection.
func (idx *Index) Target(targetID string) (*host.Variable, *host.Collection, bool) {
	target, ok := idx.variableByID[targetID]
	if !ok {
		return nil, nil, false
	}
	c, ok := idx.collectionByID[target.CollectionID]
	if !ok {
		return nil, nil, false
	}
	return target, c, true
}

// suggestThreshold is the minimum similarity for a "did you mean" hint.
const suggestThreshold = 0.6

func (idx *Index) suggest(path string) string {
	best, bestScore := "", 0.0
	want := strings.ToLower(path)
	for _, v := range idx.variables {
		score := similarity(want, strings.ToLower(v.Name))
		if score > bestScore {
			best, bestScore = v.Name, score
		}
	}
	if bestScore < suggestThreshold {
		return ""
	}
	return best
}
