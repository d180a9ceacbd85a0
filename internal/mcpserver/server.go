// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes the specbuild build and check operations as MCP tools over
// stdio.
package mcpserver

import (
	"context"
	"regexp"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/specbuild"
)

const serverInstructions = `specbuild MCP server: merges Swagger 2.0 documents into one and checks them.

Configuration: All defaults are configurable via SPECBUILD_* environment variables set in your MCP client config.

Key settings:
- SPECBUILD_IGNORE_CONFLICT (default: false): let later specs override operations on the same path and method
- SPECBUILD_SHAKE_STRATEGY (default: none): tree-shake strategy applied by build (bottom-up or top-down)
- SPECBUILD_MAX_SPECS (default: 50): maximum specs per tool call
- SPECBUILD_MAX_INLINE_SIZE (default: 10MiB): maximum inline content size
- SPECBUILD_ALLOW_PRIVATE_IPS (default: false): allow URL specs on private networks`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "specbuild", Version: specbuild.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "build",
		Description: "Merge Swagger 2.0 documents (files, URLs, inline content or split configurations) into one document. Conflicting definitions, parameters and responses are renamed _<Source><Name>; references into other documents are imported. Optional post-processing: tree_shake (bottom-up or top-down) removes unreachable definitions, flatten_conflicts collapses allOf over renamed definitions, strip_prefixes removes vendor fields. Use output to write to a file instead of returning inline.",
	}, handleBuild)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check",
		Description: "Run static checks on each Swagger 2.0 document: operation-id (missing or duplicated operationId), multi-success (different success response schemas for one operation), dictionary (dictionary annotations not embedded in their reply). Returns findings per document; an empty result means every check passed.",
	}, handleCheck)
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

func formatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
