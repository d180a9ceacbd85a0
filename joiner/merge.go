package joiner

import (
	"context"
	"fmt"

	"github.com/erraggy/specbuild/internal/httputil"
	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/oaserrors"
	"github.com/erraggy/specbuild/refs"
	"github.com/erraggy/specbuild/source"
)

// renamedCollections are the collections whose entries are renamed on
// conflict, in the order they are built.
var renamedCollections = []string{refs.Parameters, refs.Definitions, refs.Responses}

// entryKey names one entry of a document reached by outer references.
type entryKey struct {
	document string
	ref      refs.Reference
}

// merge is the state of a single merge. It is created per call and dropped
// afterwards, so the document cache and reference table never outlive it.
type merge struct {
	j      *Joiner
	loader *source.Loader
	docs   []source.Accessor
	// index maps a source path to its first position in docs
	index map[string]int
	// renames[i][collection][original] is the name an entry of docs[i] got
	renames []map[string]map[string]string

	out    map[string]any
	result *JoinResult

	// cache holds documents loaded to resolve outer references, by path
	cache map[string]source.Accessor
	// memo maps each resolved outer reference to its local reference
	memo map[refs.OuterReference]string
	// entries maps each referenced entry to its name in out
	entries map[entryKey]string
}

func newMerge(j *Joiner, l *source.Loader, docs []source.Accessor) *merge {
	m := &merge{
		j:       j,
		loader:  l,
		docs:    docs,
		index:   make(map[string]int, len(docs)),
		renames: make([]map[string]map[string]string, len(docs)),
		result:  &JoinResult{},
		cache:   make(map[string]source.Accessor),
		memo:    make(map[refs.OuterReference]string),
		entries: make(map[entryKey]string),
	}
	for i, d := range docs {
		if _, ok := m.index[d.SourcePath()]; !ok {
			m.index[d.SourcePath()] = i
		}
		m.renames[i] = make(map[string]map[string]string)
		m.result.Sources = append(m.result.Sources, d.SourcePath())
	}
	return m
}

func (m *merge) run(ctx context.Context) error {
	env, err := m.buildEnvelope(ctx)
	if err != nil {
		return err
	}
	m.out = env

	tags, err := m.buildTags(ctx)
	if err != nil {
		return err
	}
	if len(tags) > 0 {
		m.out[refs.Tags] = tags
	}

	if err := m.buildCollections(ctx); err != nil {
		return err
	}

	paths, err := m.buildPaths(ctx)
	if err != nil {
		return err
	}
	m.out[refs.Paths] = paths

	if err := m.resolveOuterReferences(ctx); err != nil {
		return err
	}

	if v := m.j.config.SetVersion; v != "" {
		info := nodewalk.Map(m.out["info"])
		if info == nil {
			info = make(map[string]any)
			m.out["info"] = info
		}
		info["version"] = v
	}
	if len(nodewalk.Map(m.out[refs.Responses])) == 0 {
		delete(m.out, refs.Responses)
	}

	if err := m.checkInnerReferences(); err != nil {
		return err
	}
	m.result.Document = m.out
	return nil
}

// buildEnvelope overlays the envelopes in order. Later root fields win;
// "info" is merged field by field.
func (m *merge) buildEnvelope(ctx context.Context) (map[string]any, error) {
	env := make(map[string]any)
	for _, d := range m.docs {
		e, err := d.Envelope(ctx)
		if err != nil {
			return nil, fmt.Errorf("joiner: %w", err)
		}
		for _, k := range nodewalk.SortedKeys(e) {
			info, isMap := e[k].(map[string]any)
			if k != "info" || !isMap {
				env[k] = nodewalk.Clone(e[k])
				continue
			}
			merged := nodewalk.Map(env["info"])
			if merged == nil {
				merged = make(map[string]any, len(info))
			}
			for field, v := range info {
				merged[field] = nodewalk.Clone(v)
			}
			env["info"] = merged
		}
	}
	return env, nil
}

// buildTags merges tags by name; fields of later tags win.
func (m *merge) buildTags(ctx context.Context) ([]any, error) {
	var tags []any
	byName := make(map[string]map[string]any)
	for _, d := range m.docs {
		ts, err := d.Tags(ctx)
		if err != nil {
			return nil, fmt.Errorf("joiner: %w", err)
		}
		for _, t := range ts {
			tag := nodewalk.Map(t)
			if tag == nil {
				continue
			}
			name := nodewalk.String(tag["name"])
			if existing, ok := byName[name]; ok {
				for k, v := range tag {
					existing[k] = nodewalk.Clone(v)
				}
				continue
			}
			cp := nodewalk.CloneMap(tag)
			byName[name] = cp
			tags = append(tags, cp)
		}
	}
	return tags, nil
}

// getter returns the accessor method reading the named collection.
func getter(d source.Accessor, name string) func(context.Context) (map[string]any, error) {
	switch name {
	case refs.Parameters:
		return d.Parameters
	case refs.Responses:
		return d.Responses
	default:
		return d.Definitions
	}
}

// collection returns the merged map for name, creating it when missing.
func (m *merge) collection(name string) map[string]any {
	coll := nodewalk.Map(m.out[name])
	if coll == nil {
		coll = make(map[string]any)
		m.out[name] = coll
	}
	return coll
}

// buildCollections inserts the parameters, definitions and responses of
// every document. Names are settled for a whole document first so that
// its own references can follow its renames.
func (m *merge) buildCollections(ctx context.Context) error {
	for _, name := range renamedCollections {
		m.collection(name)
	}

	for i, d := range m.docs {
		src := d.SourcePath()
		type pending struct {
			collection, name, final string
			node                    any
		}
		var entries []pending

		for _, collName := range renamedCollections {
			entriesOf, err := getter(d, collName)(ctx)
			if err != nil {
				return fmt.Errorf("joiner: %w", err)
			}
			names := nodewalk.SortedKeys(entriesOf)
			if collName == refs.Definitions {
				if names, err = d.DefinitionNames(ctx); err != nil {
					return fmt.Errorf("joiner: %w", err)
				}
			}

			coll := m.collection(collName)
			for _, name := range names {
				final, dup := m.placeName(coll, name, entriesOf[name], src)
				if dup {
					m.result.Warnings = append(m.result.Warnings, NewEntryDeduplicatedWarning(collName, name, src))
					continue
				}
				if final != name {
					m.rename(i, collName, name, final)
					m.recordRename(collName, name, final, src)
				}
				// reserve the name until the document is complete
				coll[final] = nil
				entries = append(entries, pending{collName, name, final, entriesOf[name]})
			}
		}

		for _, e := range entries {
			node := m.localize(i, nodewalk.Clone(e.node))
			if e.final != e.name {
				node = markConflict(node)
			}
			m.collection(e.collection)[e.final] = node
		}
	}
	return nil
}

func (m *merge) rename(doc int, collection, name, final string) {
	byName := m.renames[doc][collection]
	if byName == nil {
		byName = make(map[string]string)
		m.renames[doc][collection] = byName
	}
	byName[name] = final
}

// localize rewrites the inner references of a node contributed by docs[doc]
// to follow the renames of that document.
func (m *merge) localize(doc int, node any) any {
	renames := m.renames[doc]
	if len(renames) == 0 {
		return node
	}
	return refs.Rewrite(node, func(ref string) (string, bool) {
		r, ok := refs.ParseLocal(ref)
		if !ok {
			return ref, false
		}
		final, ok := renames[r.Type][r.Name]
		if !ok {
			return ref, false
		}
		return refs.Relocate(ref, final)
	})
}

// buildPaths unions the path items. The same method on the same path in
// two documents is a conflict.
func (m *merge) buildPaths(ctx context.Context) (map[string]any, error) {
	paths := make(map[string]any)
	for i, d := range m.docs {
		p, err := d.Paths(ctx)
		if err != nil {
			return nil, fmt.Errorf("joiner: %w", err)
		}

		conflicts := make(map[string][]string)
		for _, url := range nodewalk.SortedKeys(p) {
			item := m.localize(i, nodewalk.Clone(p[url]))
			existing := nodewalk.Map(paths[url])
			incoming := nodewalk.Map(item)
			if existing == nil || incoming == nil {
				paths[url] = item
				continue
			}
			for _, key := range nodewalk.SortedKeys(incoming) {
				if _, dup := existing[key]; dup && httputil.IsMethod(key) {
					conflicts[url] = append(conflicts[url], key)
				}
				existing[key] = incoming[key]
			}
		}

		if len(conflicts) == 0 {
			continue
		}
		if !m.j.config.IgnoreConflict {
			return nil, &oaserrors.ConflictError{Source: d.SourcePath(), Methods: conflicts}
		}
		for _, url := range nodewalk.SortedKeys(conflicts) {
			m.result.Warnings = append(m.result.Warnings, NewPathOverrideWarning(url, conflicts[url], d.SourcePath()))
			m.j.logger.Warn("path operations overridden",
				"url", url,
				"methods", conflicts[url],
				"source", d.SourcePath(),
			)
		}
	}
	return paths, nil
}
