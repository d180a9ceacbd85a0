package postprocess

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/oaserrors"
	"github.com/erraggy/specbuild/refs"
	"github.com/erraggy/specbuild/shaker"
)

// Stage is one rewrite of a document. Apply may modify doc in place and
// returns the resulting document.
type Stage interface {
	Name() string
	Apply(ctx context.Context, doc map[string]any) (map[string]any, error)
}

type stageFunc struct {
	name  string
	apply func(ctx context.Context, doc map[string]any) (map[string]any, error)
}

func (s stageFunc) Name() string { return s.name }

func (s stageFunc) Apply(ctx context.Context, doc map[string]any) (map[string]any, error) {
	return s.apply(ctx, doc)
}

// NewStage wraps fn as a Stage.
func NewStage(name string, fn func(ctx context.Context, doc map[string]any) (map[string]any, error)) Stage {
	return stageFunc{name: name, apply: fn}
}

// Pipeline applies stages in order.
type Pipeline struct {
	stages []Stage
	logger *slog.Logger
}

// NewPipeline returns a pipeline of stages.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, logger: slog.Default()}
}

// WithLogger sets the logger reporting applied stages.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Len returns the number of stages.
func (p *Pipeline) Len() int { return len(p.stages) }

// Run applies the stages to a copy of doc. doc itself is not modified.
func (p *Pipeline) Run(ctx context.Context, doc map[string]any) (map[string]any, error) {
	out := nodewalk.CloneMap(doc)
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("postprocess: %w", err)
		}
		next, err := stage.Apply(ctx, out)
		if err != nil {
			return nil, fmt.Errorf("postprocess: stage %d (%s): %w", i+1, stage.Name(), err)
		}
		out = next
		p.logger.Debug("applied post-processing stage", "stage", stage.Name())
	}
	return out, nil
}

// TreeShake removes what the paths of the document cannot reach.
func TreeShake(strategy shaker.Strategy) Stage {
	return NewStage("tree-shake:"+string(strategy), func(_ context.Context, doc map[string]any) (map[string]any, error) {
		return shaker.Shake(doc, strategy)
	})
}

// StripVendorFields removes every object key starting with one of prefixes.
func StripVendorFields(prefixes ...string) Stage {
	return NewStage("strip-vendor-fields", func(_ context.Context, doc map[string]any) (map[string]any, error) {
		for _, p := range prefixes {
			if p == "" {
				return nil, &oaserrors.ConfigError{Option: "prefix", Message: "prefix cannot be empty"}
			}
		}
		return nodewalk.TransformMap(doc, func(key string, _ any) nodewalk.Result {
			for _, p := range prefixes {
				if key != "" && strings.HasPrefix(key, p) {
					return nodewalk.Drop()
				}
			}
			return nodewalk.Unchanged
		}), nil
	})
}

// MarkDefinitions sets field to value on every definition.
func MarkDefinitions(field string, value any) Stage {
	return NewStage("mark-definitions", func(_ context.Context, doc map[string]any) (map[string]any, error) {
		if field == "" {
			return nil, &oaserrors.ConfigError{Option: "field", Message: "field cannot be empty"}
		}
		for _, def := range nodewalk.Map(doc[refs.Definitions]) {
			if m := nodewalk.Map(def); m != nil {
				m[field] = value
			}
		}
		return doc, nil
	})
}
