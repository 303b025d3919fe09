package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// shortStringMax is the longest string argument logged verbatim.
const shortStringMax = 64

// loggingMiddleware records every tool call with its duration and response
// size.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := time.Now()
			result, err := next(ctx, req)

			attrs := []any{
				"tool", req.Params.Name,
				"params", sanitizeParams(req.GetArguments()),
				"duration_ms", time.Since(start).Milliseconds(),
				"response_bytes", responseBytes(result),
			}
			switch {
			case err != nil:
				s.logger.Error("MCP tool call failed", append(attrs, "error", err)...)
			case result != nil && result.IsError:
				s.logger.Warn("MCP tool returned an error", attrs...)
			default:
				s.logger.Info("MCP tool call", attrs...)
			}
			return result, err
		}
	}
}

// sanitizeParams replaces long string arguments, such as whole token
// documents, with a "<key>_len" entry.
func sanitizeParams(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && len(s) > shortStringMax {
			out[k+"_len"] = len(s)
		} else {
			out[k] = v
		}
	}
	return out
}

// responseBytes returns the serialized size of a result's content.
func responseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}
