package joiner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erraggy/specbuild/source"
)

// Option is a function that configures a join operation
type Option func(*joinConfig) error

// joinConfig holds configuration for a join operation
type joinConfig struct {
	// Input sources, merged in the order their options were given
	inputs []input

	setVersion           string
	ignoreConflict       bool
	deduplicateIdentical bool
	allowDangling        bool
	logger               *slog.Logger
	sourceOptions        []source.Option
}

// input is one document to merge: an opened accessor or a target to open.
type input struct {
	accessor source.Accessor
	target   string
}

// JoinWithOptions merges documents using functional options.
//
// Example:
//
//	result, err := joiner.JoinWithOptions(ctx,
//	    joiner.WithFilePaths("products/pets.yaml", "products/store.yaml"),
//	    joiner.WithIgnoreConflict(true),
//	)
func JoinWithOptions(ctx context.Context, opts ...Option) (*JoinResult, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("joiner: invalid options: %w", err)
	}

	j := New(Config{
		SetVersion:              cfg.setVersion,
		IgnoreConflict:          cfg.ignoreConflict,
		DeduplicateIdentical:    cfg.deduplicateIdentical,
		AllowDanglingReferences: cfg.allowDangling,
		Logger:                  cfg.logger,
		SourceOptions:           cfg.sourceOptions,
	})

	l, err := j.loader()
	if err != nil {
		return nil, err
	}
	docs := make([]source.Accessor, 0, len(cfg.inputs))
	for i, in := range cfg.inputs {
		if in.accessor != nil {
			docs = append(docs, in.accessor)
			continue
		}
		acc, err := l.Open(ctx, in.target)
		if err != nil {
			return nil, fmt.Errorf("joiner: failed to open %s (%d of %d): %w", in.target, i+1, len(cfg.inputs), err)
		}
		docs = append(docs, acc)
	}
	return j.join(ctx, l, docs)
}

// applyOptions applies option functions and validates configuration
func applyOptions(opts ...Option) (*joinConfig, error) {
	cfg := &joinConfig{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if len(cfg.inputs) == 0 {
		return nil, fmt.Errorf("at least one document is required (use WithFilePaths, WithSources or WithDocuments)")
	}
	return cfg, nil
}

// WithFilePaths adds targets to merge: file paths, package paths, URLs or
// split configurations.
func WithFilePaths(paths ...string) Option {
	return func(cfg *joinConfig) error {
		for _, p := range paths {
			if p == "" {
				return fmt.Errorf("file path cannot be empty")
			}
			cfg.inputs = append(cfg.inputs, input{target: p})
		}
		return nil
	}
}

// WithSources adds already opened documents to merge.
func WithSources(docs ...source.Accessor) Option {
	return func(cfg *joinConfig) error {
		for i, d := range docs {
			if d == nil {
				return fmt.Errorf("source %d is nil", i)
			}
			cfg.inputs = append(cfg.inputs, input{accessor: d})
		}
		return nil
	}
}

// WithDocuments adds a decoded document to merge under the given name.
// The name is used for conflict renames and error messages.
func WithDocuments(name string, doc map[string]any) Option {
	return func(cfg *joinConfig) error {
		if doc == nil {
			return fmt.Errorf("document %q is nil", name)
		}
		cfg.inputs = append(cfg.inputs, input{accessor: source.NewInMemory(name, doc)})
		return nil
	}
}

// WithSetVersion overwrites info.version of the merged document.
func WithSetVersion(version string) Option {
	return func(cfg *joinConfig) error {
		cfg.setVersion = version
		return nil
	}
}

// WithIgnoreConflict lets later operations override earlier ones on the
// same path and method.
// Default: false
func WithIgnoreConflict(enabled bool) Option {
	return func(cfg *joinConfig) error {
		cfg.ignoreConflict = enabled
		return nil
	}
}

// WithDeduplicateIdentical keeps one entry for deep-equal same-named
// entries instead of renaming.
// Default: false
func WithDeduplicateIdentical(enabled bool) Option {
	return func(cfg *joinConfig) error {
		cfg.deduplicateIdentical = enabled
		return nil
	}
}

// WithAllowDanglingReferences turns references to entries missing from the
// merged document into warnings instead of errors.
// Default: false
func WithAllowDanglingReferences(enabled bool) Option {
	return func(cfg *joinConfig) error {
		cfg.allowDangling = enabled
		return nil
	}
}

// WithLogger sets the logger for merge events.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *joinConfig) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithSourceOptions configures how file paths and outer references are
// loaded (search paths, HTTP client, retries...).
func WithSourceOptions(opts ...source.Option) Option {
	return func(cfg *joinConfig) error {
		cfg.sourceOptions = append(cfg.sourceOptions, opts...)
		return nil
	}
}
