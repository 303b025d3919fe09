package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/tokensync/pkg/exporter"
)

func formatNames() []string {
	var names []string
	for _, f := range exporter.Formats() {
		names = append(names, string(f))
	}
	return names
}

func importTokensTool() mcp.Tool {
	return mcp.NewTool("import_tokens",
		mcp.WithDescription("Import a design token document (collection -> mode -> token tree, DTCG or legacy keys) into the variable store. Creates missing collections, modes and variables, then sets values and aliases."),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("The token document as a JSON string"),
		),
	)
}

func exportTokensTool() mcp.Tool {
	return mcp.NewTool("export_tokens",
		mcp.WithDescription("Export every collection in the variable store in one of: "+strings.Join(formatNames(), ", ")+"."),
		mcp.WithString("format",
			mcp.Description("Output format (default simplified)"),
			mcp.Enum(formatNames()...),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func listCollectionsTool() mcp.Tool {
	return mcp.NewTool("list_collections",
		mcp.WithDescription("List variable collections with their modes and variable counts."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func clearVariablesTool() mcp.Tool {
	return mcp.NewTool("clear_variables",
		mcp.WithDescription("Remove every collection and variable from the store. Requires confirm=true."),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true to proceed"),
		),
		mcp.WithDestructiveHintAnnotation(true),
	)
}
