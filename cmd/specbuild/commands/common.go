package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/erraggy/specbuild/internal/fileutil"
)

// ErrFindings is returned by HandleCheck when at least one checker reported
// a finding. The caller turns it into a non-zero exit code.
var ErrFindings = errors.New("checks reported findings")

// NewLogger creates the text logger the commands write diagnostics to.
// quiet keeps errors only, verbose enables debug output.
func NewLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ValidateOutputPath checks that output does not overwrite an input and is
// not a symlink.
func ValidateOutputPath(output string, inputs []string) error {
	if err := fileutil.CheckOverwrite(output, inputs); err != nil {
		return err
	}
	return fileutil.RejectSymlink(output)
}

// stringsFlag collects a flag that may be repeated.
type stringsFlag []string

func (s *stringsFlag) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *stringsFlag) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("value must not be empty")
	}
	*s = append(*s, value)
	return nil
}

// markFlag holds a "field=value" pair. true, false and integers are
// decoded, anything else stays a string.
type markFlag struct {
	Field string
	Value any
}

func (m *markFlag) String() string {
	if m == nil || m.Field == "" {
		return ""
	}
	return fmt.Sprintf("%s=%v", m.Field, m.Value)
}

func (m *markFlag) Set(value string) error {
	field, raw, ok := strings.Cut(value, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return fmt.Errorf("invalid mark format: %q (expected field=value)", value)
	}
	m.Field = field
	m.Value = parseScalar(strings.TrimSpace(raw))
	return nil
}

func parseScalar(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}
