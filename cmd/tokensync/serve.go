package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gnana997/tokensync/pkg/web"
)

type serveOptions struct {
	listen string
	watch  bool
	watchOptions
}

func newServeCmd(g *globalOptions) *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the live event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				g.cfg.Serve.Listen = opts.listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, g, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if opts.watch {
				w, err := startWatch(ctx, g, a, opts.watchOptions)
				if err != nil {
					return err
				}
				defer w.Stop()
			}

			return web.NewServer(a.engine, a.feed, a.logger).ListenAndServe(ctx, g.cfg.Serve.Listen)
		},
	}
	cmd.Flags().StringVar(&opts.listen, "listen", "", "http listen address (overrides serve.listen)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "also watch token files and re-import on change")
	addWatchFlags(cmd, &opts.watchOptions)
	return cmd
}
