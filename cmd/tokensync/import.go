package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gnana997/tokensync/pkg/importer"
	"github.com/gnana997/tokensync/pkg/tokenfile"
)

type importOptions struct {
	root string
}

func newImportCmd(g *globalOptions) *cobra.Command {
	opts := importOptions{}
	cmd := &cobra.Command{
		Use:   "import [file ...]",
		Short: "Import token documents into the variable store",
		Long: "Import token documents into the variable store. With no arguments every file\n" +
			"matching tokens.include under --root is imported. Use - to read stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), g, false)
			if err != nil {
				return err
			}
			defer a.Close()

			files := args
			if len(files) == 0 {
				if files, err = discover(g, opts.root); err != nil {
					return err
				}
				if len(files) == 0 {
					return fmt.Errorf("no token files found under %s", opts.root)
				}
			}
			if len(files) == 1 && files[0] == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				report, err := a.engine.Import(cmd.Context(), data)
				if err != nil {
					return fmt.Errorf("stdin: %w", err)
				}
				printReport(cmd.OutOrStdout(), "stdin", report)
				return nil
			}
			for _, l := range tokenfile.NewBatch(0, a.logger).LoadAll(cmd.Context(), files) {
				report, err := importLoaded(cmd.Context(), a, l)
				if err != nil {
					return fmt.Errorf("%s: %w", l.Path, err)
				}
				printReport(cmd.OutOrStdout(), l.Path, report)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.root, "root", ".", "directory searched when no files are given")
	return cmd
}

func discover(g *globalOptions, root string) ([]string, error) {
	m, err := tokenfile.NewMatcher(g.cfg.Tokens.Include, g.cfg.Tokens.Exclude)
	if err != nil {
		return nil, err
	}
	return tokenfile.Discover(root, m)
}

func importLoaded(ctx context.Context, a *app, l tokenfile.Loaded) (*importer.Report, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	return a.engine.ImportDocument(ctx, l.Doc)
}

func printReport(w io.Writer, path string, r *importer.Report) {
	fmt.Fprintf(w, "%s: %d collections, %d modes created, %d variables created, %d values set, %d aliases set",
		path, r.CollectionsCreated, r.ModesCreated, r.VariablesCreated, r.ValuesSet, r.AliasesSet)
	if r.Unresolved > 0 {
		fmt.Fprintf(w, ", %d unresolved aliases", r.Unresolved)
	}
	if r.Failures > 0 {
		fmt.Fprintf(w, ", %d failures", r.Failures)
	}
	fmt.Fprintln(w)
}

