package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Consolidator merges the given documents, in order, into one document.
// A Split accessor uses it to answer its getters.
type Consolidator func(ctx context.Context, docs []Accessor) (map[string]any, error)

// Option configures a Loader.
type Option func(*Loader) error

// WithHTTPClient sets the client used to fetch remote documents.
// A nil client leaves the default in place (30s timeout).
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) error {
		if client != nil {
			l.client = client
		}
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent with remote fetches.
// Default: "specbuild/<version>"
func WithUserAgent(ua string) Option {
	return func(l *Loader) error {
		l.userAgent = ua
		return nil
	}
}

// WithSearchPaths adds directories in which targets that do not exist
// relative to the base directory are looked up. They are tried before the
// SPECBUILD_PATH environment variable and node_modules directories.
func WithSearchPaths(dirs ...string) Option {
	return func(l *Loader) error {
		l.searchPaths = append(l.searchPaths, dirs...)
		return nil
	}
}

// WithRetries sets how many times a failed remote fetch is retried.
// Client errors (4xx) are never retried.
// Default: 2
func WithRetries(n int) Option {
	return func(l *Loader) error {
		if n < 0 {
			return fmt.Errorf("source: retries cannot be negative: %d", n)
		}
		l.retries = n
		return nil
	}
}

// WithBaseDir sets the directory relative targets are resolved against.
// Default: the working directory.
func WithBaseDir(dir string) Option {
	return func(l *Loader) error {
		l.baseDir = dir
		return nil
	}
}

// WithConsolidator sets how split configurations consolidate their
// constituents when read directly.
func WithConsolidator(fn Consolidator) Option {
	return func(l *Loader) error {
		l.consolidate = fn
		return nil
	}
}

// WithLogger sets the logger used for fetch retries and document loads.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger != nil {
			l.logger = logger
		}
		return nil
	}
}
