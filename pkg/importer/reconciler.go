// Package importer reconciles a token document into a host variable store in
// three passes: collections and modes, variable existence, then values.
package importer

import (
	"context"
	"fmt"
	"runtime"

	"github.com/gnana997/tokensync/pkg/alias"
	"github.com/gnana997/tokensync/pkg/coerce"
	"github.com/gnana997/tokensync/pkg/events"
	"github.com/gnana997/tokensync/pkg/host"
	"github.com/gnana997/tokensync/pkg/tokens"
)

// DefaultBatchSize is how many items are processed between progress notices.
const DefaultBatchSize = 20

// Report summarises one import.
type Report struct {
	CollectionsCreated int  `json:"collectionsCreated"`
	ModesCreated       int  `json:"modesCreated"`
	ModesRenamed       int  `json:"modesRenamed"`
	VariablesCreated   int  `json:"variablesCreated"`
	ValuesSet          int  `json:"valuesSet"`
	AliasesSet         int  `json:"aliasesSet"`
	Unresolved         int  `json:"unresolvedAliases"`
	Failures           int  `json:"failures"`
	Legacy             bool `json:"legacyFormat"`
}

// Reconciler upserts documents into a store.
type Reconciler struct {
	store host.Store
	log   *events.Logger

	// BatchSize is the progress granularity for passes 2 and 3.
	BatchSize int
	// Yield is called at every progress notice. Defaults to runtime.Gosched.
	Yield func()
}

// New creates a Reconciler. A nil log discards events.
func New(store host.Store, log *events.Logger) *Reconciler {
	if log == nil {
		log = events.NewLogger(nil, nil)
	}
	return &Reconciler{
		store:     store,
		log:       log,
		BatchSize: DefaultBatchSize,
		Yield:     runtime.Gosched,
	}
}

// run holds the state of a single import.
type run struct {
	*Reconciler
	idx    *alias.Index
	report *Report

	// collections maps collection name to its host handle.
	collections map[string]*host.Collection
	// modes maps collection name to mode name to mode id.
	modes map[string]map[string]string
}

// Run imports doc. Item-level failures are logged and skipped; the returned
// error is reserved for failures that abort the whole operation.
func (r *Reconciler) Run(ctx context.Context, doc *tokens.Document) (*Report, error) {
	idx, err := alias.Snapshot(ctx, r.store)
	if err != nil {
		return nil, err
	}
	st := &run{
		Reconciler:  r,
		idx:         idx,
		report:      &Report{},
		collections: make(map[string]*host.Collection),
		modes:       make(map[string]map[string]string),
	}

	for _, skipped := range doc.Skipped {
		r.log.Warnf("Skipping %q: expected an object", skipped)
	}

	if err := st.ensureCollections(ctx, doc); err != nil {
		return st.report, err
	}
	st.ensureVariables(ctx, doc)
	st.setValues(ctx, doc)

	if st.report.Legacy {
		r.log.Warnf("Legacy token format detected (type/value). Consider migrating to the DTCG format ($type/$value).")
	}
	r.log.Infof("Import complete: %d variables created, %d values set, %d aliases set",
		st.report.VariablesCreated, st.report.ValuesSet, st.report.AliasesSet)
	return st.report, nil
}

// ensureCollections is pass 1. Any store failure here is fatal.
func (st *run) ensureCollections(ctx context.Context, doc *tokens.Document) error {
	for _, cdoc := range doc.Collections {
		c, ok := st.idx.CollectionByName(cdoc.Name)
		if !ok {
			created, err := st.store.CreateCollection(ctx, cdoc.Name)
			if err != nil {
				return fmt.Errorf("create collection %q: %w", cdoc.Name, err)
			}
			c = created
			st.idx.AddCollection(c)
			st.report.CollectionsCreated++
			st.log.Infof("Created collection %q", cdoc.Name)
		}
		st.collections[cdoc.Name] = c

		modeIDs := make(map[string]string, len(cdoc.Modes))
		for i, mdoc := range cdoc.Modes {
			id, err := st.ensureMode(ctx, c, i, mdoc.Name)
			if err != nil {
				return fmt.Errorf("collection %q: %w", cdoc.Name, err)
			}
			modeIDs[mdoc.Name] = id
		}
		st.modes[cdoc.Name] = modeIDs
	}
	return nil
}

func (st *run) ensureMode(ctx context.Context, c *host.Collection, index int, name string) (string, error) {
	if m, ok := c.ModeByName(name); ok {
		return m.ID, nil
	}

	if index == 0 {
		for i, m := range c.Modes {
			if m.Name != host.DefaultModeName {
				continue
			}
			if err := st.store.RenameMode(ctx, c.ID, m.ID, name); err != nil {
				return "", fmt.Errorf("rename mode %q to %q: %w", m.Name, name, err)
			}
			c.Modes[i].Name = name
			st.report.ModesRenamed++
			return m.ID, nil
		}
	}

	id, err := st.store.AddMode(ctx, c.ID, name)
	if err != nil {
		return "", fmt.Errorf("add mode %q: %w", name, err)
	}
	c.Modes = append(c.Modes, host.Mode{ID: id, Name: name})
	st.report.ModesCreated++
	return id, nil
}

// ensureVariables is pass 2: only the first declared mode decides which
// variables exist.
func (st *run) ensureVariables(ctx context.Context, doc *tokens.Document) {
	type discovered struct {
		collection *host.Collection
		flat       *tokens.Flat
	}
	var work []discovered
	total := 0
	for _, cdoc := range doc.Collections {
		first, ok := cdoc.FirstMode()
		if !ok {
			continue
		}
		flat := tokens.Flatten(first.Tree, "")
		st.report.Legacy = st.report.Legacy || flat.Legacy
		work = append(work, discovered{collection: st.collections[cdoc.Name], flat: flat})
		total += flat.Len()
	}

	done := 0
	for _, w := range work {
		for pair := w.flat.Tokens.Oldest(); pair != nil; pair = pair.Next() {
			path, rec := pair.Key, pair.Value
			if _, exists := st.idx.Lookup(w.collection.ID, path); !exists {
				v, err := st.store.CreateVariable(ctx, path, w.collection.ID, coerce.ResolvedTypeFor(rec.Type))
				if err != nil {
					st.report.Failures++
					st.log.Errorf("Failed to create variable %q in %q: %v", path, w.collection.Name, err)
				} else {
					st.idx.AddVariable(v)
					st.report.VariablesCreated++
				}
			}
			done++
			st.tick("Creating variables", done, total)
		}
	}
}

// setValues is pass 3.
func (st *run) setValues(ctx context.Context, doc *tokens.Document) {
	type modeWork struct {
		collection *host.Collection
		modeName   string
		modeID     string
		flat       *tokens.Flat
	}
	var work []modeWork
	total := 0
	for _, cdoc := range doc.Collections {
		for _, mdoc := range cdoc.Modes {
			flat := tokens.Flatten(mdoc.Tree, "")
			st.report.Legacy = st.report.Legacy || flat.Legacy
			work = append(work, modeWork{
				collection: st.collections[cdoc.Name],
				modeName:   mdoc.Name,
				modeID:     st.modes[cdoc.Name][mdoc.Name],
				flat:       flat,
			})
			total += flat.Len()
		}
	}

	done := 0
	for _, w := range work {
		for pair := w.flat.Tokens.Oldest(); pair != nil; pair = pair.Next() {
			if v, ok := st.idx.Lookup(w.collection.ID, pair.Key); ok {
				st.setValue(ctx, v, w.modeID, w.modeName, pair.Value)
			}
			done++
			st.tick("Setting values", done, total)
		}
	}
}

func (st *run) setValue(ctx context.Context, v *host.Variable, modeID, modeName string, rec tokens.Record) {
	if rec.Value.IsAlias() {
		ref := rec.Value.Alias
		res := st.idx.Resolve(ref)
		switch res.Match {
		case alias.MatchNone:
			st.report.Unresolved++
			if res.Suggestion != "" {
				st.log.Warnf("Could not resolve alias %s for %q (did you mean %q?)", ref, v.Name, res.Suggestion)
			} else {
				st.log.Warnf("Could not resolve alias %s for %q", ref, v.Name)
			}
			return
		case alias.MatchFuzzy:
			st.log.Warnf("Alias %s for %q: expected collection %q, found %q in collection %q",
				ref, v.Name, ref.Collection, res.Variable.Name, res.Collection.Name)
		}
		if err := st.store.SetValue(ctx, v.ID, modeID, host.AliasTo(res.Variable)); err != nil {
			st.report.Failures++
			st.log.Errorf("Failed to set alias for %q in mode %q: %v", v.Name, modeName, err)
			return
		}
		st.report.AliasesSet++
		return
	}

	val, ok := coerce.ToHost(rec.Value, v.Type)
	if !ok {
		st.log.Warnf("Could not coerce value %v for %q to %s; passing it through", val, v.Name, v.Type)
	}
	if err := st.store.SetValue(ctx, v.ID, modeID, val); err != nil {
		st.report.Failures++
		st.log.Errorf("Failed to set value for %q in mode %q: %v", v.Name, modeName, err)
		return
	}
	st.report.ValuesSet++
}

// tick emits a progress notice and yields every BatchSize items.
func (st *run) tick(label string, done, total int) {
	batch := st.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	if done%batch != 0 {
		return
	}
	st.log.Progress("%s: %d/%d", label, done, total)
	if st.Yield != nil {
		st.Yield()
	}
}
