package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd(g *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every collection and variable from the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !promptYesNo(cmd.InOrStdin(), cmd.ErrOrStderr(), "Remove all collections and variables? [Y/n]") {
				fmt.Fprintln(cmd.ErrOrStderr(), "aborted")
				return nil
			}

			a, err := openApp(cmd.Context(), g, false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.engine.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d collections\n", res.CollectionsRemoved)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
