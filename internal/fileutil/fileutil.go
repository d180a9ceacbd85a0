// Package fileutil holds the file-writing rules shared by the CLI and the
// MCP server.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// OwnerReadWrite is the file permission mode for spec output files
// containing potentially sensitive API data (owner read/write only).
const OwnerReadWrite os.FileMode = 0o600

// RejectSymlink returns an error if path is a symlink. A missing file is
// fine.
func RejectSymlink(path string) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fileutil: checking output path: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("fileutil: refusing to write to symlink: %s", path)
	}
	return nil
}

// CheckOverwrite returns an error if output names one of inputs.
func CheckOverwrite(output string, inputs []string) error {
	absOutput, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("fileutil: invalid output path: %w", err)
	}
	for _, in := range inputs {
		absInput, err := filepath.Abs(in)
		if err != nil {
			continue
		}
		if absOutput == absInput {
			return fmt.Errorf("fileutil: output file %s would overwrite input file %s", output, in)
		}
	}
	return nil
}

// WriteFile writes data to path with OwnerReadWrite permissions, creating
// the parent directory if needed. Symlinks are refused.
func WriteFile(path string, data []byte) error {
	cleaned := filepath.Clean(path)
	if err := RejectSymlink(cleaned); err != nil {
		return err
	}
	if dir := filepath.Dir(cleaned); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("fileutil: creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(cleaned, data, OwnerReadWrite); err != nil {
		return fmt.Errorf("fileutil: writing %s: %w", cleaned, err)
	}
	return nil
}
