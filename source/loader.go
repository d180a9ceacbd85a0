package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/erraggy/specbuild"
	"github.com/erraggy/specbuild/oaserrors"
	"github.com/erraggy/specbuild/refs"
)

// SearchPathEnv lists extra package search directories, separated by the
// OS path list separator.
const SearchPathEnv = "SPECBUILD_PATH"

const (
	defaultRetries = 2
	defaultTimeout = 30 * time.Second
)

// Loader opens targets and picks the matching Accessor variant.
// A Loader is safe for sequential reuse; it keeps no per-document state.
type Loader struct {
	client      *http.Client
	userAgent   string
	searchPaths []string
	retries     int
	baseDir     string
	consolidate Consolidator
	logger      *slog.Logger
}

// NewLoader creates a Loader with the given options.
func NewLoader(opts ...Option) (*Loader, error) {
	l := &Loader{
		client:    &http.Client{Timeout: defaultTimeout},
		userAgent: specbuild.UserAgent(),
		retries:   defaultRetries,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	if l.baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("source: failed to get working directory: %w", err)
		}
		l.baseDir = wd
	}
	return l, nil
}

// Open is a convenience wrapper around NewLoader and Loader.Open.
func Open(ctx context.Context, target string, opts ...Option) (Accessor, error) {
	l, err := NewLoader(opts...)
	if err != nil {
		return nil, err
	}
	return l.Open(ctx, target)
}

// Open selects the accessor variant for target. Local files are located
// immediately; their content is only read on Parse or first getter call.
func (l *Loader) Open(ctx context.Context, target string) (Accessor, error) {
	return l.openFrom(ctx, target, l.baseDir)
}

func (l *Loader) openFrom(ctx context.Context, target, dir string) (Accessor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if refs.IsURL(target) {
		return newRemote(l, target), nil
	}

	path, kind, err := l.locate(target, dir)
	if err != nil {
		return nil, err
	}
	format := formatFromPath(path)
	switch format {
	case formatJSON:
		if cfg, ok := readSplitConfig(path); ok {
			return newSplit(l, path, kind, cfg), nil
		}
		return newLocalFile(l, path, kind, format), nil
	case formatYAML:
		return newLocalFile(l, path, kind, format), nil
	default:
		return nil, &oaserrors.ParseError{Path: path, Message: "unsupported file type, expected .json, .yaml or .yml"}
	}
}

// locate finds target on disk: relative to dir first, then as a package.
func (l *Loader) locate(target, dir string) (string, Kind, error) {
	local := target
	if !filepath.IsAbs(local) {
		local = filepath.Join(dir, target)
	}
	if isFile(local) {
		abs, err := filepath.Abs(local)
		if err != nil {
			return "", "", fmt.Errorf("source: %w", err)
		}
		return abs, KindLocalPath, nil
	}

	for _, candidate := range l.packageDirs(dir) {
		p := filepath.Join(candidate, target)
		if isFile(p) {
			abs, err := filepath.Abs(p)
			if err != nil {
				return "", "", fmt.Errorf("source: %w", err)
			}
			return abs, KindPackage, nil
		}
	}
	return "", "", &oaserrors.ParseError{
		Path:    target,
		Message: "document does not exist",
		Cause:   fs.ErrNotExist,
	}
}

// packageDirs lists the package search directories for dir, in lookup order.
func (l *Loader) packageDirs(dir string) []string {
	dirs := append([]string(nil), l.searchPaths...)
	if env := os.Getenv(SearchPathEnv); env != "" {
		dirs = append(dirs, filepath.SplitList(env)...)
	}
	for d := dir; ; {
		dirs = append(dirs, filepath.Join(d, "node_modules"))
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	return dirs
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
