package commands

import (
	"errors"
	"flag"
	"io"

	"github.com/erraggy/specbuild"
	"github.com/erraggy/specbuild/internal/cliutil"
)

// HandleVersion prints the version, or the full build information with -build-info.
func HandleVersion(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	fs.SetOutput(stderr)
	buildInfo := fs.Bool("build-info", false, "print commit, build time and Go version")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if *buildInfo {
		cliutil.Writef(stdout, "%s\n", specbuild.BuildInfo())
		return nil
	}
	cliutil.Writef(stdout, "specbuild v%s\n", specbuild.Version())
	return nil
}
