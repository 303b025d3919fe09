package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnana997/tokensync/pkg/engine"
	"github.com/gnana997/tokensync/pkg/tokenfile"
)

type watchOptions struct {
	root     string
	debounce time.Duration
}

func newWatchCmd(g *globalOptions) *cobra.Command {
	opts := watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Import token files, then re-import them whenever they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, g, false)
			if err != nil {
				return err
			}
			defer a.Close()

			w, err := startWatch(ctx, g, a, opts)
			if err != nil {
				return err
			}
			defer w.Stop()

			<-ctx.Done()
			return nil
		},
	}
	addWatchFlags(cmd, &opts)
	return cmd
}

func addWatchFlags(cmd *cobra.Command, opts *watchOptions) {
	cmd.Flags().StringVar(&opts.root, "root", ".", "directory to watch")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 0, "quiet period before re-importing (default watch.debounce_ms)")
}

// startWatch imports every discovered token file once and then starts a
// watcher that re-imports files as they change.
func startWatch(ctx context.Context, g *globalOptions, a *app, opts watchOptions) (*tokenfile.Watcher, error) {
	m, err := tokenfile.NewMatcher(g.cfg.Tokens.Include, g.cfg.Tokens.Exclude)
	if err != nil {
		return nil, err
	}
	files, err := tokenfile.Discover(opts.root, m)
	if err != nil {
		return nil, fmt.Errorf("discover token files: %w", err)
	}
	a.logger.Info("Discovered token files", "count", len(files), "root", opts.root)
	reimport(ctx, a, files)

	debounce := opts.debounce
	if debounce == 0 {
		debounce = time.Duration(g.cfg.Watch.DebounceMS) * time.Millisecond
	}
	w, err := tokenfile.NewWatcher(opts.root, m, debounce, func(paths []string) {
		reimport(ctx, a, paths)
	}, a.logger)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}

// reimport imports each file in turn. Failures are logged and do not stop
// the remaining files.
func reimport(ctx context.Context, a *app, paths []string) {
	for _, l := range tokenfile.NewBatch(0, a.logger).LoadAll(ctx, paths) {
		if ctx.Err() != nil {
			return
		}
		path := l.Path
		report, err := importLoaded(ctx, a, l)
		switch {
		case errors.Is(err, engine.ErrBusy):
			a.logger.Warn("Skipped import while another operation runs", "file", path)
		case err != nil:
			a.logger.Error("Import failed", "file", path, "error", err)
		default:
			a.logger.Info("Imported token file", "file", path,
				"variables_created", report.VariablesCreated,
				"values_set", report.ValuesSet,
				"aliases_set", report.AliasesSet,
				"unresolved", report.Unresolved,
			)
		}
	}
}
