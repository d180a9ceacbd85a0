package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/erraggy/specbuild/checker"
	"github.com/erraggy/specbuild/internal/cliutil"
	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/joiner"
)

// CheckFlags contains flags for the check command
type CheckFlags struct {
	Checkers       string
	IgnoreConflict bool
	Quiet          bool
	Verbose        bool
}

// SetupCheckFlags creates and configures a FlagSet for the check command.
// Returns the FlagSet and a CheckFlags struct with bound flag variables.
func SetupCheckFlags() (*flag.FlagSet, *CheckFlags) {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	flags := &CheckFlags{}

	fs.StringVar(&flags.Checkers, "checker", strings.Join(checker.Names(), ","), "comma-separated checkers to run")
	fs.BoolVar(&flags.IgnoreConflict, "ignore-conflict", false, "let later documents of a split configuration override operations")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: print findings only")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: print findings only")
	fs.BoolVar(&flags.Verbose, "v", false, "verbose mode: debug logging on stderr")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: specbuild check [flags] <spec|config> [spec...]\n\n")
		cliutil.Writef(fs.Output(), "Run static checks on every given document.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nCheckers:\n")
		cliutil.Writef(fs.Output(), "  operation-id     missing or duplicated operationId\n")
		cliutil.Writef(fs.Output(), "  multi-success    different success response schemas for one operation\n")
		cliutil.Writef(fs.Output(), "  dictionary       dictionary annotations not embedded in their reply\n")
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  specbuild check api.yaml\n")
		cliutil.Writef(fs.Output(), "  specbuild check -checker operation-id,multi-success generate.config.json\n")
		cliutil.Writef(fs.Output(), "\nExit Codes:\n")
		cliutil.Writef(fs.Output(), "  0    no findings\n")
		cliutil.Writef(fs.Output(), "  1    findings reported or checks could not run\n")
	}

	return fs, flags
}

// HandleCheck executes the check command. It returns ErrFindings when any
// document has findings.
func HandleCheck(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, flags := SetupCheckFlags()
	fs.SetOutput(stderr)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("check command requires at least 1 spec or config")
	}

	checkers, err := checker.ByName(splitList(flags.Checkers)...)
	if err != nil {
		return err
	}
	if len(checkers) == 0 {
		return fmt.Errorf("no checker selected")
	}

	logger := NewLogger(stderr, flags.Quiet, flags.Verbose)
	// Dangling references are logged; the document is still checked.
	j := joiner.New(joiner.Config{
		IgnoreConflict:          flags.IgnoreConflict,
		AllowDanglingReferences: true,
		Logger:                  logger,
	})

	// Each target is loaded on its own so findings stay attributed to it.
	docs := make(map[string]map[string]any, fs.NArg())
	for _, target := range fs.Args() {
		result, err := j.JoinPaths(ctx, []string{target})
		if err != nil {
			return fmt.Errorf("loading %s: %w", target, err)
		}
		docs[target] = result.Document
	}

	reports, err := checker.Run(ctx, docs, checkers...)
	if err != nil {
		return err
	}

	total := 0
	for _, name := range nodewalk.SortedKeys(reports) {
		report := reports[name]
		total += len(report)
		cliutil.Writef(stdout, "%s: %s\n", name, cliutil.Plural(len(report), "finding"))
		for _, f := range report {
			cliutil.WriteIndented(stdout, "  ", f.String())
		}
	}

	if !flags.Quiet {
		if total == 0 {
			cliutil.Writef(stderr, "✓ %s checked, no findings\n", cliutil.Plural(len(docs), "document"))
		} else {
			cliutil.Writef(stderr, "\n%s in %s\n", cliutil.Plural(total, "finding"), cliutil.Plural(len(reports), "document"))
		}
	}
	if total > 0 {
		return ErrFindings
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
