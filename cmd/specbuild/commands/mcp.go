package commands

import (
	"context"
	"errors"
	"flag"
	"io"

	"github.com/erraggy/specbuild/internal/cliutil"
	"github.com/erraggy/specbuild/internal/mcpserver"
)

// HandleMCP runs the MCP server over stdio until the client disconnects.
func HandleMCP(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: specbuild mcp\n\n")
		cliutil.Writef(fs.Output(), "Serve the build and check tools over the Model Context Protocol (stdio).\n\n")
		cliutil.Writef(fs.Output(), "Environment:\n")
		cliutil.Writef(fs.Output(), "  SPECBUILD_IGNORE_CONFLICT   default for ignore_conflict (default: false)\n")
		cliutil.Writef(fs.Output(), "  SPECBUILD_SHAKE_STRATEGY    default tree-shake strategy (default: none)\n")
		cliutil.Writef(fs.Output(), "  SPECBUILD_MAX_SPECS         maximum specs per call (default: 50)\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	return mcpserver.Run(ctx)
}
