package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gnana997/tokensync/pkg/engine"
)

const maxWidth = 80

func newCollectionsCmd(g *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "List collections with their modes and variable counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), g, false)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.engine.Collections(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			printCollections(cmd.OutOrStdout(), list)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// printCollections renders the collection table with dynamic column widths.
func printCollections(w io.Writer, list []engine.CollectionSummary) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No collections.")
		return
	}

	nameW := len("NAME")
	varsW := len("VARIABLES")
	for _, c := range list {
		if len(c.Name) > nameW {
			nameW = len(c.Name)
		}
	}

	indent := 2 + nameW + 2 + varsW + 2
	fmt.Fprintf(w, "  %-*s  %*s  %s\n", nameW, "NAME", varsW, "VARIABLES", "MODES")
	fmt.Fprintf(w, "  %s\n", strings.Repeat("─", indent-2+len("MODES")))

	for _, c := range list {
		fmt.Fprintf(w, "  %-*s  %*s  %s\n",
			nameW, c.Name, varsW, strconv.Itoa(c.Variables), wrapModes(c.Modes, indent))
	}
}

// wrapModes joins mode names, wrapping at maxWidth and aligning continuation
// lines under the first mode.
func wrapModes(modes []string, indent int) string {
	if len(modes) == 0 {
		return "—"
	}
	var sb strings.Builder
	lineLen := indent
	for i, m := range modes {
		addition := len(m)
		if i > 0 {
			addition += 2 // ", "
		}
		if lineLen+addition > maxWidth && i > 0 {
			sb.WriteString(",\n")
			sb.WriteString(strings.Repeat(" ", indent))
			lineLen = indent
		} else if i > 0 {
			sb.WriteString(", ")
			lineLen += 2
		}
		sb.WriteString(m)
		lineLen += len(m)
	}
	return sb.String()
}
