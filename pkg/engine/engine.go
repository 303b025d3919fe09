// Package engine is the single entry point the CLI, HTTP and MCP surfaces use
// to run import, export and clear operations against a host store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/tokensync/pkg/events"
	"github.com/gnana997/tokensync/pkg/exporter"
	"github.com/gnana997/tokensync/pkg/host"
	"github.com/gnana997/tokensync/pkg/importer"
	"github.com/gnana997/tokensync/pkg/parser"
	"github.com/gnana997/tokensync/pkg/tokens"
)

// ErrBusy is returned when an operation is requested while another runs.
var ErrBusy = errors.New("another operation is in progress")

// Operation names used to tag events.
const (
	OpImport = "import"
	OpExport = "export"
	OpClear  = "clear"
)

// Options configures an Engine.
type Options struct {
	// BatchSize is the import progress granularity (0 uses the importer default).
	BatchSize int
	// CacheSize bounds the export cache; 0 disables caching. Caching also
	// requires a store implementing host.Revisioner.
	CacheSize int
	// Verify parses Tailwind output with tree-sitter before returning it.
	Verify bool
	// TailwindTypeScript emits tailwind.config.ts.
	TailwindTypeScript bool
	// AfterWrite runs after an operation that may have changed the store,
	// for example to persist a snapshot.
	AfterWrite func(ctx context.Context) error
}

type cacheKey struct {
	revision int64
	format   exporter.Format
}

// cachedExport keeps the warnings logged while rendering so a cache hit
// reports the same problems as the original export.
type cachedExport struct {
	artifact *exporter.Artifact
	warnings []string
}

// Engine serialises operations: at most one runs at a time and overlapping
// calls fail fast with ErrBusy.
type Engine struct {
	store  host.Store
	sink   events.Sink
	logger *slog.Logger
	opts   Options

	busy    sync.Mutex
	cache   *lru.Cache[cacheKey, cachedExport]
	checker *parser.Manager
}

// New creates an Engine. Events go to sink; a nil logger uses slog.Default().
func New(store host.Store, sink events.Sink, logger *slog.Logger, opts Options) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{store: store, sink: sink, logger: logger, opts: opts}
	if _, ok := store.(host.Revisioner); ok && opts.CacheSize > 0 {
		cache, err := lru.New[cacheKey, cachedExport](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create export cache: %w", err)
		}
		e.cache = cache
	}
	if opts.Verify {
		e.checker = parser.NewManager(logger, 0)
	}
	return e, nil
}

// Close releases parser resources.
func (e *Engine) Close() error {
	if e.checker != nil {
		return e.checker.Close()
	}
	return nil
}

// Store returns the underlying host store.
func (e *Engine) Store() host.Store { return e.store }

func (e *Engine) logFor(op string) *events.Logger {
	return events.NewLogger(e.sink, e.logger).WithOperation(op)
}

// run executes fn under the single-flight guard. A returned error or a panic
// is logged, emitted as an error event and returned; success emits a result
// event carrying the payload.
func (e *Engine) run(ctx context.Context, op string, fn func(log *events.Logger) (any, error)) (payload any, err error) {
	if !e.busy.TryLock() {
		return nil, ErrBusy
	}
	defer e.busy.Unlock()

	log := e.logFor(op)
	defer func() {
		if r := recover(); r != nil {
			payload, err = nil, fmt.Errorf("%s: panic: %v", op, r)
		}
		if err != nil {
			log.Errorf("%s failed: %v", op, err)
			log.Fail(err)
			return
		}
		log.Result(payload)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fn(log)
}

func (e *Engine) afterWrite(ctx context.Context) error {
	if e.opts.AfterWrite == nil {
		return nil
	}
	if err := e.opts.AfterWrite(ctx); err != nil {
		return fmt.Errorf("persist store: %w", err)
	}
	return nil
}

// Import parses data as a root document and reconciles it into the store.
func (e *Engine) Import(ctx context.Context, data []byte) (*importer.Report, error) {
	doc, err := tokens.ParseDocument(data)
	if err != nil {
		log := e.logFor(OpImport)
		log.Errorf("import failed: %v", err)
		log.Fail(err)
		return nil, err
	}
	return e.ImportDocument(ctx, doc)
}

// ImportDocument reconciles an already parsed document.
func (e *Engine) ImportDocument(ctx context.Context, doc *tokens.Document) (*importer.Report, error) {
	var report *importer.Report
	_, err := e.run(ctx, OpImport, func(log *events.Logger) (any, error) {
		r := importer.New(e.store, log)
		if e.opts.BatchSize > 0 {
			r.BatchSize = e.opts.BatchSize
		}
		var runErr error
		report, runErr = r.Run(ctx, doc)
		if werr := e.afterWrite(ctx); runErr == nil {
			runErr = werr
		}
		if runErr != nil {
			return nil, runErr
		}
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ExportResult is the payload of a successful export event.
type ExportResult struct {
	Format    exporter.Format `json:"format"`
	FileName  string          `json:"fileName"`
	MediaType string          `json:"mediaType"`
	Content   string          `json:"content"`
	Cached    bool            `json:"cached,omitempty"`
}

// Export renders the store in format f. Results are cached per store
// revision, so any write to the store, from this process or another, makes
// the next export render again.
func (e *Engine) Export(ctx context.Context, f exporter.Format) (*exporter.Artifact, error) {
	var artifact *exporter.Artifact
	_, err := e.run(ctx, OpExport, func(log *events.Logger) (any, error) {
		var key cacheKey
		useCache := false
		if e.cache != nil {
			rev, err := e.store.(host.Revisioner).Revision(ctx)
			if err != nil {
				log.Slog().Warn("Store revision unavailable, export cache bypassed", "error", err)
			} else {
				key, useCache = cacheKey{revision: rev, format: f}, true
			}
		}

		var entry cachedExport
		cached := false
		if useCache {
			entry, cached = e.cache.Get(key)
		}
		if cached {
			artifact = entry.artifact
			for _, msg := range entry.warnings {
				log.Warnf("%s", msg)
			}
		} else {
			warnings := &events.Recorder{}
			xlog := events.NewLogger(events.Multi(e.sink, warnings), e.logger).WithOperation(OpExport)
			x := exporter.New(e.store, xlog)
			x.TailwindTypeScript = e.opts.TailwindTypeScript
			var err error
			if artifact, err = x.Export(ctx, f); err != nil {
				return nil, err
			}
			if err := e.verify(artifact); err != nil {
				return nil, err
			}
			if useCache {
				entry = cachedExport{artifact: artifact}
				for _, w := range warnings.Logs(events.LevelWarn) {
					entry.warnings = append(entry.warnings, w.Message)
				}
				e.cache.Add(key, entry)
			}
		}
		return ExportResult{
			Format:    artifact.Format,
			FileName:  artifact.FileName,
			MediaType: artifact.MediaType,
			Content:   string(artifact.Content),
			Cached:    cached,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

func (e *Engine) verify(a *exporter.Artifact) error {
	if e.checker == nil || a.Format != exporter.FormatTailwind {
		return nil
	}
	return e.checker.Check(a.Content, a.FileName)
}

// ClearResult is the payload of a successful clear event.
type ClearResult struct {
	CollectionsRemoved int `json:"collectionsRemoved"`
}

// Clear removes every collection and its variables.
func (e *Engine) Clear(ctx context.Context) (*ClearResult, error) {
	res := &ClearResult{}
	_, err := e.run(ctx, OpClear, func(log *events.Logger) (any, error) {
		collections, err := e.store.Collections(ctx)
		if err != nil {
			return nil, fmt.Errorf("list collections: %w", err)
		}
		var runErr error
		for _, c := range collections {
			if err := e.store.RemoveCollection(ctx, c.ID); err != nil {
				runErr = fmt.Errorf("remove collection %q: %w", c.Name, err)
				break
			}
			res.CollectionsRemoved++
		}
		if werr := e.afterWrite(ctx); runErr == nil {
			runErr = werr
		}
		if runErr != nil {
			return nil, runErr
		}
		log.Infof("Removed %d collections", res.CollectionsRemoved)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CollectionSummary describes one collection for listings.
type CollectionSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Modes     []string `json:"modes"`
	Variables int      `json:"variables"`
}

// Collections lists collections with their modes and variable counts. It is a
// plain read and does not take the operation guard.
func (e *Engine) Collections(ctx context.Context) ([]CollectionSummary, error) {
	collections, err := e.store.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	variables, err := e.store.Variables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	counts := make(map[string]int, len(collections))
	for _, v := range variables {
		counts[v.CollectionID]++
	}
	out := make([]CollectionSummary, 0, len(collections))
	for _, c := range collections {
		s := CollectionSummary{ID: c.ID, Name: c.Name, Variables: counts[c.ID], Modes: []string{}}
		for _, m := range c.Modes {
			s.Modes = append(s.Modes, m.Name)
		}
		out = append(out, s)
	}
	return out, nil
}
