package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/erraggy/specbuild"
	"github.com/erraggy/specbuild/internal/cliutil"
	"github.com/erraggy/specbuild/internal/output"
	"github.com/erraggy/specbuild/internal/severity"
	"github.com/erraggy/specbuild/joiner"
	"github.com/erraggy/specbuild/postprocess"
	"github.com/erraggy/specbuild/refs"
	"github.com/erraggy/specbuild/shaker"
	"github.com/erraggy/specbuild/source"
)

// BuildFlags contains flags for the build command
type BuildFlags struct {
	Output           string
	Format           string
	SetVersion       string
	IgnoreConflict   bool
	Dedup            bool
	TreeShake        string
	FlattenConflicts bool
	StripPrefixes    stringsFlag
	Mark             markFlag
	SearchPaths      stringsFlag
	Retries          int
	Quiet            bool
	Verbose          bool
}

// SetupBuildFlags creates and configures a FlagSet for the build command.
// Returns the FlagSet and a BuildFlags struct with bound flag variables.
func SetupBuildFlags() (*flag.FlagSet, *BuildFlags) {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	flags := &BuildFlags{}

	fs.StringVar(&flags.Output, "o", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Output, "output", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Format, "format", "", "output format: yaml or json (default: from output extension, else yaml)")
	fs.StringVar(&flags.SetVersion, "set-version", "", "overwrite info.version of the result")
	fs.BoolVar(&flags.IgnoreConflict, "ignore-conflict", false, "let later documents override operations already defined on the same path")
	fs.BoolVar(&flags.Dedup, "dedup", false, "keep one entry when colliding entries have identical content")
	fs.StringVar(&flags.TreeShake, "tree-shake", "", "remove unreachable definitions: bottom-up or top-down")
	fs.BoolVar(&flags.FlattenConflicts, "flatten-conflicts", false, "flatten allOf compositions over conflict-renamed definitions")
	fs.Var(&flags.StripPrefixes, "strip-prefix", "remove every field starting with this prefix (can be repeated)")
	fs.Var(&flags.Mark, "mark", "set field=value on every definition")
	fs.Var(&flags.SearchPaths, "search-path", "directory searched for package targets (can be repeated)")
	fs.IntVar(&flags.Retries, "retries", -1, "retries for remote documents (default: 2)")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only errors on stderr")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only errors on stderr")
	fs.BoolVar(&flags.Verbose, "v", false, "verbose mode: debug logging on stderr")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: specbuild build [flags] <spec|config> [spec...]\n\n")
		cliutil.Writef(fs.Output(), "Merge Swagger 2.0 documents, resolve references between them and write one document.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nTargets:\n")
		cliutil.Writef(fs.Output(), "  A target is a file path, a URL, a package path found under -search-path\n")
		cliutil.Writef(fs.Output(), "  or node_modules, or a split configuration (generate.config.json).\n")
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  specbuild build -o api.yaml generate.config.json\n")
		cliutil.Writef(fs.Output(), "  specbuild build -tree-shake top-down -set-version 1.4.0 pets.yaml store.yaml\n")
		cliutil.Writef(fs.Output(), "  specbuild build -flatten-conflicts -strip-prefix x-internal- -o api.json spec.yaml\n")
		cliutil.Writef(fs.Output(), "\nNotes:\n")
		cliutil.Writef(fs.Output(), "  - Documents are merged in the order given\n")
		cliutil.Writef(fs.Output(), "  - Conflicting definitions are renamed _<Source><Name>\n")
		cliutil.Writef(fs.Output(), "  - When -o is specified, file is written with restrictive permissions (0600)\n")
	}

	return fs, flags
}

// HandleBuild executes the build command
func HandleBuild(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, flags := SetupBuildFlags()
	fs.SetOutput(stderr)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("build command requires at least 1 spec or config")
	}
	targets := fs.Args()

	format := flags.Format
	if format == "" {
		format = output.FormatYAML
		if flags.Output != "" {
			format = output.FormatFromPath(flags.Output)
		}
	}
	if err := output.ValidateFormat(format); err != nil {
		return err
	}

	pipeline, err := buildPipeline(flags)
	if err != nil {
		return err
	}

	if flags.Output != "" {
		if err := ValidateOutputPath(flags.Output, targets); err != nil {
			return err
		}
	}

	logger := NewLogger(stderr, flags.Quiet, flags.Verbose)
	sourceOpts := []source.Option{source.WithUserAgent(specbuild.UserAgent())}
	if len(flags.SearchPaths) > 0 {
		sourceOpts = append(sourceOpts, source.WithSearchPaths(flags.SearchPaths...))
	}
	if flags.Retries >= 0 {
		sourceOpts = append(sourceOpts, source.WithRetries(flags.Retries))
	}

	startTime := time.Now()
	result, err := joiner.JoinWithOptions(ctx,
		joiner.WithFilePaths(targets...),
		joiner.WithSetVersion(flags.SetVersion),
		joiner.WithIgnoreConflict(flags.IgnoreConflict),
		joiner.WithDeduplicateIdentical(flags.Dedup),
		joiner.WithLogger(logger),
		joiner.WithSourceOptions(sourceOpts...),
	)
	if err != nil {
		return fmt.Errorf("building specification: %w", err)
	}

	doc, err := pipeline.WithLogger(logger).Run(ctx, result.Document)
	if err != nil {
		return err
	}
	totalTime := time.Since(startTime)

	if !flags.Quiet {
		cliutil.Writef(stderr, "Swagger Specification Builder\n")
		cliutil.Writef(stderr, "=============================\n\n")
		cliutil.Writef(stderr, "specbuild version: %s\n", specbuild.Version())
		cliutil.Writef(stderr, "Merged: %s\n", cliutil.Plural(len(result.Sources), "document"))
		if flags.Output != "" {
			cliutil.Writef(stderr, "Output: %s\n", flags.Output)
		} else {
			cliutil.Writef(stderr, "Output: <stdout>\n")
		}
		cliutil.Writef(stderr, "Paths: %d\n", len(nodeMap(doc, refs.Paths)))
		cliutil.Writef(stderr, "Definitions: %d\n", len(nodeMap(doc, refs.Definitions)))
		cliutil.Writef(stderr, "Post-processing stages: %d\n", pipeline.Len())
		cliutil.Writef(stderr, "Total Time: %v\n\n", totalTime)
		if len(result.Conflicts) > 0 {
			cliutil.Writef(stderr, "Conflicts renamed: %d\n", len(result.Conflicts))
		}
		if warnings := result.Warnings.AtLeast(severity.SeverityWarning); len(warnings) > 0 {
			cliutil.Writef(stderr, "%s\n", warnings.Summary())
		}
	}

	if flags.Output != "" {
		if err := output.WriteFile(flags.Output, doc, format); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
		if !flags.Quiet {
			cliutil.Writef(stderr, "Output written to: %s\n", flags.Output)
		}
		return nil
	}
	if err := output.Write(stdout, doc, format); err != nil {
		return fmt.Errorf("writing built document to stdout: %w", err)
	}
	return nil
}

// buildPipeline turns the post-processing flags into a pipeline. Flattening
// runs before tree shaking so the renamed definitions it drops are gone
// before reachability is computed.
func buildPipeline(flags *BuildFlags) (*postprocess.Pipeline, error) {
	var stages []postprocess.Stage
	if flags.FlattenConflicts {
		stages = append(stages, postprocess.FlattenConflictedAllOf())
	}
	if flags.TreeShake != "" {
		strategy, err := shaker.ParseStrategy(flags.TreeShake)
		if err != nil {
			return nil, err
		}
		stages = append(stages, postprocess.TreeShake(strategy))
	}
	if len(flags.StripPrefixes) > 0 {
		stages = append(stages, postprocess.StripVendorFields(flags.StripPrefixes...))
	}
	if flags.Mark.Field != "" {
		stages = append(stages, postprocess.MarkDefinitions(flags.Mark.Field, flags.Mark.Value))
	}
	return postprocess.NewPipeline(stages...), nil
}

func nodeMap(doc map[string]any, key string) map[string]any {
	m, _ := doc[key].(map[string]any)
	return m
}
