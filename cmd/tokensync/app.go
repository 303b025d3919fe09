package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gnana997/tokensync/pkg/config"
	"github.com/gnana997/tokensync/pkg/engine"
	"github.com/gnana997/tokensync/pkg/events"
	"github.com/gnana997/tokensync/pkg/host"
	"github.com/gnana997/tokensync/pkg/host/pgstore"
)

// app wires a store, an event sink and an engine for one command run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *engine.Engine
	feed   *events.Broadcaster

	closers []func() error
}

// openApp builds the engine described by opts.cfg. When live is true, events
// are also fanned out to a broadcaster for streaming surfaces.
func openApp(ctx context.Context, opts *globalOptions, live bool) (*app, error) {
	a := &app{cfg: opts.cfg, logger: opts.logger}

	store, afterWrite, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	jsonl, err := events.OpenJSONL(a.cfg.Log.EventsFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	if jsonl != nil {
		a.closers = append(a.closers, jsonl.Close)
	}
	var sink events.Sink = events.Discard
	if live {
		a.feed = events.NewBroadcaster(0)
		sink = a.feed
	}
	if jsonl != nil {
		sink = events.Multi(sink, jsonl)
	}

	e, err := engine.New(store, sink, a.logger, engine.Options{
		BatchSize:          a.cfg.Import.BatchSize,
		CacheSize:          a.cfg.Export.CacheSize,
		Verify:             a.cfg.Export.Verify,
		TailwindTypeScript: a.cfg.Export.TypeScript,
		AfterWrite:         afterWrite,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = e
	a.closers = append(a.closers, e.Close)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (host.Store, func(context.Context) error, error) {
	switch a.cfg.Store {
	case config.StorePostgres:
		s, err := pgstore.Open(ctx, a.cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		a.logger.Debug("Using postgres store")
		return s, nil, nil
	default:
		s, err := host.LoadMemoryStore(a.cfg.StateFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load state: %w", err)
		}
		a.logger.Debug("Using memory store", "state", a.cfg.StateFile)
		path := a.cfg.StateFile
		return s, func(context.Context) error { return s.Save(path) }, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Close failed", "error", err)
		}
	}
	a.closers = nil
}
