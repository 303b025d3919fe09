// Package exporter renders host variables as DTCG JSON, CSS custom properties
// or a Tailwind theme module.
package exporter

import (
	"context"
	"fmt"

	"github.com/gnana997/tokensync/pkg/alias"
	"github.com/gnana997/tokensync/pkg/coerce"
	"github.com/gnana997/tokensync/pkg/events"
	"github.com/gnana997/tokensync/pkg/host"
	"github.com/gnana997/tokensync/pkg/tokens"
)

// Exporter reads a store and renders artifacts.
type Exporter struct {
	store host.Store
	log   *events.Logger

	// TailwindTypeScript emits tailwind.config.ts instead of CommonJS.
	TailwindTypeScript bool
}

// New creates an Exporter. A nil log discards events.
func New(store host.Store, log *events.Logger) *Exporter {
	if log == nil {
		log = events.NewLogger(nil, nil)
	}
	return &Exporter{store: store, log: log}
}

// Export snapshots the store once and renders it in format f.
func (e *Exporter) Export(ctx context.Context, f Format) (*Artifact, error) {
	idx, err := alias.Snapshot(ctx, e.store)
	if err != nil {
		return nil, err
	}

	var content []byte
	switch f {
	case FormatSimplified:
		content, err = e.renderJSON(idx, simplifiedStyle)
	case FormatFullSpec:
		content, err = e.renderJSON(idx, fullSpecStyle)
	case FormatCSS:
		content = e.renderCSS(idx)
	case FormatTailwind:
		content, err = e.renderTailwind(idx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", f, err)
	}
	return newArtifact(f, e.TailwindTypeScript, content), nil
}

// slot is one variable's value in one mode.
type slot struct {
	collection *host.Collection
	mode       host.Mode
	variable   *host.Variable
	raw        host.Value
}

// each visits every (collection, mode, variable) that holds a value, in host order.
func each(idx *alias.Index, firstModeOnly bool, fn func(slot)) {
	for _, c := range idx.Collections() {
		modes := c.Modes
		if firstModeOnly && len(modes) > 1 {
			modes = modes[:1]
		}
		vars := idx.VariablesIn(c.ID)
		for _, m := range modes {
			for _, v := range vars {
				raw, ok := v.Values[m.ID]
				if !ok {
					continue
				}
				fn(slot{collection: c, mode: m, variable: v, raw: raw})
			}
		}
	}
}

// encodeAlias renders an alias as a brace reference, warning when it is broken.
func (e *Exporter) encodeAlias(idx *alias.Index, s slot, a host.Alias) string {
	ref, ok := idx.Encode(a.ID)
	if !ok {
		e.log.Warnf("Broken alias in %q (collection %q, mode %q): target %s not found",
			s.variable.Name, s.collection.Name, s.mode.Name, a.ID)
	}
	return ref
}

// jsonStyle decides how the two JSON formats render type tags and scalars.
type jsonStyle struct {
	typeTag func(host.ResolvedType) string
	value   func(v *host.Variable, raw host.Value) *tokens.Node
}

var simplifiedStyle = jsonStyle{
	typeTag: coerce.TypeTag,
	value: func(_ *host.Variable, raw host.Value) *tokens.Node {
		if c, ok := raw.(host.Color); ok {
			return tokens.NewScalar(coerce.HexString(c))
		}
		return tokens.NewScalar(raw)
	},
}

var fullSpecStyle = jsonStyle{
	typeTag: coerce.FullSpecTypeTag,
	value: func(v *host.Variable, raw host.Value) *tokens.Node {
		switch val := raw.(type) {
		case host.Color:
			n := tokens.NewGroup()
			n.Set("colorSpace", tokens.NewScalar("srgb"))
			n.Set("components", tokens.NewScalar(coerce.Components(val)))
			return n
		case float64:
			if v.Type == host.TypeFloat {
				n := tokens.NewGroup()
				n.Set("value", tokens.NewScalar(val))
				n.Set("unit", tokens.NewScalar("px"))
				return n
			}
		}
		return tokens.NewScalar(raw)
	},
}

// renderJSON builds Collection -> Mode -> nested token tree.
func (e *Exporter) renderJSON(idx *alias.Index, style jsonStyle) ([]byte, error) {
	type modeKey struct{ collectionID, modeID string }
	entries := make(map[modeKey][]tokens.Entry)

	each(idx, false, func(s slot) {
		node := tokens.NewGroup()
		node.Set("$type", tokens.NewScalar(style.typeTag(s.variable.Type)))
		if a, ok := host.AsAlias(s.raw); ok {
			node.Set("$value", tokens.NewScalar(e.encodeAlias(idx, s, a)))
		} else {
			node.Set("$value", style.value(s.variable, s.raw))
		}
		key := modeKey{s.collection.ID, s.mode.ID}
		entries[key] = append(entries[key], tokens.Entry{Path: s.variable.Name, Node: node})
	})

	root := tokens.NewGroup()
	for _, c := range idx.Collections() {
		collNode := tokens.NewGroup()
		for _, m := range c.Modes {
			collNode.Set(m.Name, tokens.Unflatten(entries[modeKey{c.ID, m.ID}]))
		}
		root.Set(c.Name, collNode)
	}
	return tokens.MarshalIndent(root)
}
