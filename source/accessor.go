package source

import (
	"context"
	"strings"
	"sync"

	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/refs"
)

// Kind describes how a target was located.
type Kind string

const (
	// KindLocalPath is a file found relative to the working directory.
	KindLocalPath Kind = "LocalPath"
	// KindPackage is a file resolved through search paths or node_modules.
	KindPackage Kind = "Package"
	// KindURL is a document fetched over HTTP(S).
	KindURL Kind = "Url"
	// KindMemory is a document supplied already decoded.
	KindMemory Kind = "Memory"
)

// Accessor is a lazily parsed view over one input document.
//
// The maps and slices returned by the getters belong to the accessor and
// must not be modified; callers that need to change them work on a copy.
type Accessor interface {
	// SourcePath identifies the document: an absolute file path, a URL or
	// the name given to an in-memory document.
	SourcePath() string
	// Kind reports how the document was located.
	Kind() Kind
	// IsParsed reports whether the backing content has been loaded.
	IsParsed() bool
	// Parse loads the backing content. Calling it again is a no-op.
	Parse(ctx context.Context) error

	// Envelope returns every root field except the named collections.
	Envelope(ctx context.Context) (map[string]any, error)
	Tags(ctx context.Context) ([]any, error)
	Parameters(ctx context.Context) (map[string]any, error)
	Responses(ctx context.Context) (map[string]any, error)
	Definitions(ctx context.Context) (map[string]any, error)
	Paths(ctx context.Context) (map[string]any, error)
	// DefinitionNames returns the definition names in document order.
	DefinitionNames(ctx context.Context) ([]string, error)
}

// Expander is implemented by accessors that stand for several documents,
// such as a split configuration. A merge replaces the expander by its
// constituents.
type Expander interface {
	Constituents(ctx context.Context) ([]Accessor, error)
}

// collectionKeys are the root fields that are not part of the envelope.
var collectionKeys = map[string]bool{
	refs.Tags:        true,
	refs.Parameters:  true,
	refs.Responses:   true,
	refs.Definitions: true,
	refs.Paths:       true,
}

// parsedDocument holds the decoded root of a document. It backs every
// variant; the variants only differ in how they fill it.
type parsedDocument struct {
	mu       sync.Mutex
	parsed   bool
	root     map[string]any
	defOrder []string
}

// ensure runs load once and stores its result.
func (d *parsedDocument) ensure(ctx context.Context, load func(context.Context) (map[string]any, []string, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.parsed {
		return nil
	}
	root, order, err := load(ctx)
	if err != nil {
		return err
	}
	d.root = root
	d.defOrder = order
	d.parsed = true
	return nil
}

func (d *parsedDocument) IsParsed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.parsed
}

func (d *parsedDocument) envelope() map[string]any {
	env := make(map[string]any, len(d.root))
	for k, v := range d.root {
		if !collectionKeys[strings.ToLower(k)] {
			env[k] = v
		}
	}
	return env
}

func (d *parsedDocument) collection(name string) map[string]any {
	m := nodewalk.Map(d.root[name])
	if m == nil {
		return map[string]any{}
	}
	return m
}

func (d *parsedDocument) tags() []any {
	return nodewalk.Slice(d.root[refs.Tags])
}

func (d *parsedDocument) definitionNames() []string {
	defs := d.collection(refs.Definitions)
	names := make([]string, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, n := range d.defOrder {
		if _, ok := defs[n]; ok && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	// Anything the ordering pass missed follows in lexical order.
	for _, n := range nodewalk.SortedKeys(defs) {
		if !seen[n] {
			names = append(names, n)
		}
	}
	return names
}

// lazyGetters implements the collection getters of Accessor on top of a
// parsedDocument and a Parse method.
type lazyGetters struct {
	doc   *parsedDocument
	parse func(context.Context) error
}

func (g lazyGetters) Envelope(ctx context.Context) (map[string]any, error) {
	if err := g.parse(ctx); err != nil {
		return nil, err
	}
	return g.doc.envelope(), nil
}

func (g lazyGetters) Tags(ctx context.Context) ([]any, error) {
	if err := g.parse(ctx); err != nil {
		return nil, err
	}
	return g.doc.tags(), nil
}

func (g lazyGetters) Parameters(ctx context.Context) (map[string]any, error) {
	if err := g.parse(ctx); err != nil {
		return nil, err
	}
	return g.doc.collection(refs.Parameters), nil
}

func (g lazyGetters) Responses(ctx context.Context) (map[string]any, error) {
	if err := g.parse(ctx); err != nil {
		return nil, err
	}
	return g.doc.collection(refs.Responses), nil
}

func (g lazyGetters) Definitions(ctx context.Context) (map[string]any, error) {
	if err := g.parse(ctx); err != nil {
		return nil, err
	}
	return g.doc.collection(refs.Definitions), nil
}

func (g lazyGetters) Paths(ctx context.Context) (map[string]any, error) {
	if err := g.parse(ctx); err != nil {
		return nil, err
	}
	return g.doc.collection(refs.Paths), nil
}

func (g lazyGetters) DefinitionNames(ctx context.Context) ([]string, error) {
	if err := g.parse(ctx); err != nil {
		return nil, err
	}
	return g.doc.definitionNames(), nil
}

// Document returns the full decoded root of acc, assembled from its getters.
// The result is a deep copy.
func Document(ctx context.Context, acc Accessor) (map[string]any, error) {
	env, err := acc.Envelope(ctx)
	if err != nil {
		return nil, err
	}
	doc := nodewalk.CloneMap(env)
	if tags, err := acc.Tags(ctx); err != nil {
		return nil, err
	} else if len(tags) > 0 {
		doc[refs.Tags] = nodewalk.Clone(tags)
	}

	getters := []struct {
		name string
		get  func(context.Context) (map[string]any, error)
	}{
		{refs.Parameters, acc.Parameters},
		{refs.Responses, acc.Responses},
		{refs.Definitions, acc.Definitions},
		{refs.Paths, acc.Paths},
	}
	for _, g := range getters {
		m, err := g.get(ctx)
		if err != nil {
			return nil, err
		}
		if len(m) > 0 || g.name == refs.Paths {
			doc[g.name] = nodewalk.CloneMap(m)
		}
	}
	return doc, nil
}
