package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erraggy/specbuild/cmd/specbuild/commands"
	"github.com/erraggy/specbuild/internal/cliutil"
)

// validCommands lists the subcommands, used for typo suggestions.
var validCommands = []string{"build", "check", "mcp", "version", "help"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	if len(args) < 1 {
		printUsage()
		return 1
	}

	var err error
	switch command := args[0]; command {
	case "version", "-version", "--version":
		err = commands.HandleVersion(args[1:], os.Stdout, os.Stderr)
	case "help", "-h", "--help":
		printUsage()
	case "build":
		err = commands.HandleBuild(ctx, args[1:], os.Stdout, os.Stderr)
	case "check":
		err = commands.HandleCheck(ctx, args[1:], os.Stdout, os.Stderr)
	case "mcp":
		err = commands.HandleMCP(ctx, args[1:], os.Stderr)
	default:
		cliutil.Writef(os.Stderr, "Unknown command: %s\n", command)
		if suggestion := suggestCommand(command); suggestion != "" {
			cliutil.Writef(os.Stderr, "Did you mean: %s?\n", suggestion)
		}
		cliutil.Writef(os.Stderr, "\n")
		printUsage()
		return 1
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, commands.ErrFindings):
		return 1
	default:
		cliutil.Writef(os.Stderr, "Error: %v\n", err)
		return 1
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `specbuild - Swagger 2.0 specification builder

Usage:
  specbuild <command> [flags] [args]

Commands:
  build      Merge documents, resolve references and write one document
  check      Run static checks (operationId, success responses, dictionaries)
  mcp        Serve build and check as MCP tools over stdio
  version    Show version information
  help       Show this help message

Run 'specbuild <command> -h' for more information on a command.
`)
}

// suggestCommand returns the command closest to input within an edit
// distance of 2, or "".
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, cmd := range validCommands {
		if d := levenshtein(input, cmd); d < bestDist {
			best, bestDist = cmd, d
		}
	}
	return best
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
