package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnana997/tokensync/pkg/config"
	"github.com/gnana997/tokensync/pkg/util"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	store      string
	stateFile  string
	pgDSN      string
	logLevel   string
	logFormat  string
	eventsFile string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "tokensync",
		Short:         "Sync DTCG design tokens with a variable store",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "config yaml path")
	fs.StringVar(&opts.store, "store", "", "variable store: memory or postgres")
	fs.StringVar(&opts.stateFile, "state", "", "memory store snapshot file")
	fs.StringVar(&opts.pgDSN, "pg-dsn", "", "postgres connection string")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&opts.logFormat, "log-format", "", "log format: auto, json, text")
	fs.StringVar(&opts.eventsFile, "events-file", "", "append every event as JSON lines to this file")

	cmd.AddCommand(
		newImportCmd(opts),
		newExportCmd(opts),
		newCollectionsCmd(opts),
		newClearCmd(opts),
		newServeCmd(opts),
		newMCPCmd(opts),
		newWatchCmd(opts),
		newSetupCmd(),
		newVersionCmd(),
	)
	return cmd
}

// load reads the config file and environment, then applies any flags the
// user set explicitly.
func (o *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("store", &cfg.Store, o.store)
	override("state", &cfg.StateFile, o.stateFile)
	override("pg-dsn", &cfg.PostgresDSN, o.pgDSN)
	override("log-level", &cfg.Log.Level, o.logLevel)
	override("log-format", &cfg.Log.Format, o.logFormat)
	override("events-file", &cfg.Log.EventsFile, o.eventsFile)

	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	o.cfg = cfg
	o.logger = util.NewLogger(util.LoggerConfig{
		Level:  util.LogLevel(cfg.Log.Level),
		Format: util.LogFormat(cfg.Log.Format),
		Output: os.Stderr,
	})
	util.SetDefault(o.logger)
	return nil
}
