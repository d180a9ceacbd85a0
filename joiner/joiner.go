package joiner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erraggy/specbuild/source"
)

// ConflictExtension marks an entry renamed because its name was taken.
const ConflictExtension = "x-generated-from-conflict"

// Config configures how documents are merged.
type Config struct {
	// SetVersion, when not empty, overwrites info.version of the result.
	SetVersion string
	// IgnoreConflict lets a later document override an operation already
	// defined on the same path and method instead of failing.
	IgnoreConflict bool
	// DeduplicateIdentical keeps a single entry when two documents define
	// the same name with deep-equal content, instead of renaming the second.
	DeduplicateIdentical bool
	// AllowDanglingReferences reports references to missing entries as
	// warnings instead of failing the merge.
	AllowDanglingReferences bool
	// Logger receives rename, override and load events.
	// Default: slog.Default()
	Logger *slog.Logger
	// SourceOptions configure the loader used for file paths and outer
	// references.
	SourceOptions []source.Option
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Logger: slog.Default()}
}

// Joiner merges documents.
//
// A Joiner keeps no state between merges: the outer document cache and the
// resolved reference table belong to a single call, so one Joiner can be
// reused, including concurrently.
type Joiner struct {
	config Config
	logger *slog.Logger
}

// New creates a Joiner.
func New(config Config) *Joiner {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Joiner{config: config, logger: logger}
}

// JoinResult is the outcome of a merge.
type JoinResult struct {
	// Document is the merged document.
	Document map[string]any
	// Sources lists the merged documents in order, after split
	// configurations were expanded.
	Sources []string
	// Conflicts lists every entry renamed because its name was taken.
	Conflicts []ConflictRecord
	// Warnings lists non-fatal events such as overridden operations.
	Warnings JoinWarnings
}

// ConflictsIn returns the conflict records of one collection.
func (r *JoinResult) ConflictsIn(collection string) []ConflictRecord {
	var out []ConflictRecord
	for _, c := range r.Conflicts {
		if c.Collection == collection {
			out = append(out, c)
		}
	}
	return out
}

// loader creates the loader for one merge. Split configurations read
// through it consolidate with this Joiner.
func (j *Joiner) loader() (*source.Loader, error) {
	opts := append([]source.Option{source.WithLogger(j.logger)}, j.config.SourceOptions...)
	opts = append(opts, source.WithConsolidator(j.Consolidate))
	l, err := source.NewLoader(opts...)
	if err != nil {
		return nil, fmt.Errorf("joiner: %w", err)
	}
	return l, nil
}

// JoinPaths opens every target (file path, package path, URL or split
// configuration) and merges them in order.
func (j *Joiner) JoinPaths(ctx context.Context, targets []string) (*JoinResult, error) {
	l, err := j.loader()
	if err != nil {
		return nil, err
	}
	docs := make([]source.Accessor, 0, len(targets))
	for i, target := range targets {
		acc, err := l.Open(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("joiner: failed to open %s (%d of %d): %w", target, i+1, len(targets), err)
		}
		docs = append(docs, acc)
	}
	return j.join(ctx, l, docs)
}

// Join merges the given documents in order.
func (j *Joiner) Join(ctx context.Context, docs []source.Accessor) (*JoinResult, error) {
	l, err := j.loader()
	if err != nil {
		return nil, err
	}
	return j.join(ctx, l, docs)
}

// Consolidate merges docs and returns the merged document. It has the
// signature of source.Consolidator.
func (j *Joiner) Consolidate(ctx context.Context, docs []source.Accessor) (map[string]any, error) {
	result, err := j.Join(ctx, docs)
	if err != nil {
		return nil, err
	}
	return result.Document, nil
}

func (j *Joiner) join(ctx context.Context, l *source.Loader, docs []source.Accessor) (*JoinResult, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("joiner: at least one document is required")
	}
	expanded, err := expand(ctx, docs)
	if err != nil {
		return nil, err
	}

	m := newMerge(j, l, expanded)
	if err := m.run(ctx); err != nil {
		return nil, err
	}
	return m.result, nil
}

// expand replaces split configurations by their constituents, recursively,
// and parses every document.
func expand(ctx context.Context, docs []source.Accessor) ([]source.Accessor, error) {
	var out []source.Accessor
	for _, d := range docs {
		if e, ok := d.(source.Expander); ok {
			parts, err := e.Constituents(ctx)
			if err != nil {
				return nil, fmt.Errorf("joiner: failed to expand %s: %w", d.SourcePath(), err)
			}
			sub, err := expand(ctx, parts)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		if err := d.Parse(ctx); err != nil {
			return nil, fmt.Errorf("joiner: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}
