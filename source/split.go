package source

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/erraggy/specbuild/oaserrors"
)

// ProductFolder is the default folder products are looked up in, relative
// to the configuration file.
const ProductFolder = "products"

// templateName is the source path given to an inline swagger template.
const templateName = "_template.yaml"

//go:embed split_config.schema.json
var splitConfigSchema []byte

var compileSplitSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(splitConfigSchema))
	if err != nil {
		return nil, fmt.Errorf("source: failed to parse split configuration schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("split_config.schema.json", doc); err != nil {
		return nil, fmt.Errorf("source: failed to add split configuration schema: %w", err)
	}
	return c.Compile("split_config.schema.json")
})

var yamlFileName = regexp.MustCompile(`(?i)\.ya?ml$`)

// SplitConfig describes a specification split into product files.
type SplitConfig struct {
	// SwaggerTemplate is a path, a list of paths or an inline document
	// providing the envelope. It is merged after every product.
	SwaggerTemplate any `json:"swaggerTemplate"`
	// Products are names resolved to <ProductFolder>/<name>.yaml or to a
	// file in one of ProductFolders.
	Products []string `json:"products"`
	// AdditionalSpecs are extra documents; entries may be glob patterns.
	AdditionalSpecs []string `json:"additionalSpecs,omitempty"`
	// ProductFolders are searched when a product is not in ProductFolder.
	ProductFolders []string `json:"productFolders,omitempty"`
	// Output is the output path recorded by generators; it is not used here.
	Output string `json:"output,omitempty"`
}

// ParseSplitConfig decodes and validates a split configuration.
func ParseSplitConfig(data []byte) (*SplitConfig, error) {
	schema, err := compileSplitSchema()
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, &oaserrors.ConfigError{Option: "split configuration", Message: "invalid JSON", Cause: err}
	}
	if err := schema.Validate(inst); err != nil {
		return nil, &oaserrors.ConfigError{Option: "split configuration", Message: "does not match the expected schema", Cause: err}
	}
	var cfg SplitConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &oaserrors.ConfigError{Option: "split configuration", Message: "invalid JSON", Cause: err}
	}
	return &cfg, nil
}

// readSplitConfig reports whether the JSON file at path is a split
// configuration rather than a specification.
func readSplitConfig(path string) (*SplitConfig, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	cfg, err := ParseSplitConfig(data)
	if err != nil {
		return nil, false
	}
	return cfg, true
}

// Split is a specification described by a split configuration.
// A merge expands it into its constituents; read directly, it answers with
// the consolidation of those constituents.
type Split struct {
	lazyGetters
	path   string
	kind   Kind
	cfg    *SplitConfig
	loader *Loader
	doc    parsedDocument
}

func newSplit(l *Loader, path string, kind Kind, cfg *SplitConfig) *Split {
	s := &Split{path: path, kind: kind, cfg: cfg, loader: l}
	s.lazyGetters = lazyGetters{doc: &s.doc, parse: s.Parse}
	return s
}

// OpenSplit creates a Split from a configuration that was not read from
// disk. path locates the configuration: relative entries resolve against
// its directory.
func (l *Loader) OpenSplit(path string, cfg SplitConfig) (*Split, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, &oaserrors.ConfigError{Option: "split configuration", Cause: err}
	}
	checked, err := ParseSplitConfig(data)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	return newSplit(l, abs, KindLocalPath, checked), nil
}

// SourcePath returns the path of the configuration file.
func (s *Split) SourcePath() string { return s.path }

// Kind reports how the configuration file was located.
func (s *Split) Kind() Kind { return s.kind }

// IsParsed reports whether the constituents have been consolidated.
func (s *Split) IsParsed() bool { return s.doc.IsParsed() }

// Config returns a copy of the configuration.
func (s *Split) Config() SplitConfig { return *s.cfg }

// Parse consolidates the constituents with the loader's Consolidator.
func (s *Split) Parse(ctx context.Context) error {
	return s.doc.ensure(ctx, func(ctx context.Context) (map[string]any, []string, error) {
		if s.loader.consolidate == nil {
			return nil, nil, &oaserrors.ConfigError{
				Option:  "consolidator",
				Message: "a split configuration can only be read directly when a consolidator is set",
			}
		}
		docs, err := s.Constituents(ctx)
		if err != nil {
			return nil, nil, err
		}
		root, err := s.loader.consolidate(ctx, docs)
		if err != nil {
			return nil, nil, err
		}
		var order []string
		for _, d := range docs {
			names, err := d.DefinitionNames(ctx)
			if err != nil {
				return nil, nil, err
			}
			order = append(order, names...)
		}
		return root, order, nil
	})
}

// Constituents returns the documents the configuration stands for: the
// products, then the additional specs, then the swagger template(s).
func (s *Split) Constituents(ctx context.Context) ([]Accessor, error) {
	dir := filepath.Dir(s.path)
	var docs []Accessor

	for _, product := range s.cfg.Products {
		p, err := s.productPath(dir, product)
		if err != nil {
			return nil, err
		}
		acc, err := s.loader.openFrom(ctx, p, dir)
		if err != nil {
			return nil, err
		}
		docs = append(docs, acc)
	}

	additional, err := s.additionalSpecs(dir)
	if err != nil {
		return nil, err
	}
	for _, spec := range additional {
		acc, err := s.loader.openFrom(ctx, spec, dir)
		if err != nil {
			return nil, err
		}
		docs = append(docs, acc)
	}

	templates, err := s.templates(ctx, dir)
	if err != nil {
		return nil, err
	}
	return append(docs, templates...), nil
}

// productPath resolves a product name to a file relative to dir.
func (s *Split) productPath(dir, product string) (string, error) {
	filename := product
	if !yamlFileName.MatchString(filename) {
		filename += ".yaml"
	}
	if p := filepath.Join(ProductFolder, filename); isFile(filepath.Join(dir, p)) {
		return p, nil
	}
	for _, folder := range s.cfg.ProductFolders {
		if p := filepath.Join(folder, filename); isFile(filepath.Join(dir, p)) {
			return p, nil
		}
	}
	return "", &oaserrors.ConfigError{
		Option:  "products",
		Value:   product,
		Message: fmt.Sprintf("no file for the product in %s", s.path),
	}
}

// additionalSpecs expands glob patterns relative to dir. Matches of one
// pattern are returned in lexical order.
func (s *Split) additionalSpecs(dir string) ([]string, error) {
	var out []string
	fsys := os.DirFS(dir)
	for _, spec := range s.cfg.AdditionalSpecs {
		if !isGlobPattern(spec) {
			out = append(out, spec)
			continue
		}
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(spec), doublestar.WithFilesOnly())
		if err != nil {
			return nil, &oaserrors.ConfigError{Option: "additionalSpecs", Value: spec, Message: "invalid glob pattern", Cause: err}
		}
		sort.Strings(matches)
		for _, m := range matches {
			out = append(out, filepath.FromSlash(m))
		}
	}
	return out, nil
}

func (s *Split) templates(ctx context.Context, dir string) ([]Accessor, error) {
	switch t := s.cfg.SwaggerTemplate.(type) {
	case string:
		acc, err := s.loader.openFrom(ctx, t, dir)
		if err != nil {
			return nil, err
		}
		return []Accessor{acc}, nil
	case []any:
		docs := make([]Accessor, 0, len(t))
		for _, item := range t {
			name, ok := item.(string)
			if !ok {
				return nil, &oaserrors.ConfigError{Option: "swaggerTemplate", Value: item, Message: "template list entries must be strings"}
			}
			acc, err := s.loader.openFrom(ctx, name, dir)
			if err != nil {
				return nil, err
			}
			docs = append(docs, acc)
		}
		return docs, nil
	case map[string]any:
		name := filepath.Join(dir, templateName)
		return []Accessor{NewInMemory(name, s.loader.canonicalize(t, name))}, nil
	case nil:
		return nil, nil
	default:
		return nil, &oaserrors.ConfigError{Option: "swaggerTemplate", Value: t, Message: "must be a path, a list of paths or an object"}
	}
}

// isGlobPattern reports whether pattern contains glob metacharacters.
func isGlobPattern(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
