package joiner

import (
	"context"

	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/oaserrors"
	"github.com/erraggy/specbuild/refs"
	"github.com/erraggy/specbuild/source"
)

// resolveOuterReferences replaces outer references by local ones until a
// scan of the document finds none. Entries copied in may carry outer
// references of their own; they are picked up by the next round.
func (m *merge) resolveOuterReferences(ctx context.Context) error {
	for {
		outers := refs.ScanOuter(m.out)
		if len(outers) == 0 {
			return nil
		}
		for _, o := range outers {
			if _, err := m.resolve(ctx, o); err != nil {
				return err
			}
		}
		m.out = nodewalk.Map(refs.Rewrite(m.out, func(ref string) (string, bool) {
			o, ok := refs.ParseOuter(ref)
			if !ok {
				return ref, false
			}
			local, ok := m.memo[o]
			return local, ok
		}))
	}
}

// resolve returns the local reference standing for o, importing the target
// entry on first use. Later calls for the same reference return the
// recorded result without expanding it again.
func (m *merge) resolve(ctx context.Context, o refs.OuterReference) (string, error) {
	if local, ok := m.memo[o]; ok {
		return local, nil
	}

	if o.InnerPath == "" {
		first, err := m.firstDefinition(ctx, o)
		if err != nil {
			return "", err
		}
		local, err := m.resolve(ctx, refs.OuterReference{
			DocumentPath: o.DocumentPath,
			InnerPath:    refs.Reference{Type: refs.Definitions, Name: first}.Path(),
		})
		if err != nil {
			return "", err
		}
		m.memo[o] = local
		return local, nil
	}

	r, ok := o.Reference()
	if !ok || !refs.IsCollection(r.Type) {
		return "", &oaserrors.ReferenceError{
			Ref:      o.String(),
			Document: o.DocumentPath,
			Message:  "only definitions, parameters, responses and tags can be referenced",
		}
	}

	// pointers into the same entry share one import
	key := entryKey{document: o.DocumentPath, ref: r}
	final, ok := m.entries[key]
	if !ok {
		var err error
		if i, merged := m.index[o.DocumentPath]; merged {
			final, err = m.resolveMerged(i, o, r)
		} else {
			final, err = m.importEntry(ctx, o, r)
		}
		if err != nil {
			return "", err
		}
		m.entries[key] = final
	}

	local, ok := refs.Relocate(o.InnerPath, final)
	if !ok {
		return "", &oaserrors.ReferenceError{Ref: o.String(), Document: o.DocumentPath, Message: "malformed reference"}
	}
	m.memo[o] = local
	return local, nil
}

// resolveMerged returns the name the referenced entry of one of the merged
// documents ended up with.
func (m *merge) resolveMerged(doc int, o refs.OuterReference, r refs.Reference) (string, error) {
	final := r.Name
	if renamed, ok := m.renames[doc][r.Type][r.Name]; ok {
		final = renamed
	}
	if !m.hasEntry(r.Type, final) {
		return "", &oaserrors.ReferenceError{Ref: o.String(), Document: o.DocumentPath, Message: "target does not exist"}
	}
	return final, nil
}

// importEntry copies the target of o into the merged document under the
// rename rule and returns the name it was stored under. References inside
// the copy are qualified with the target document so they resolve against
// it.
func (m *merge) importEntry(ctx context.Context, o refs.OuterReference, r refs.Reference) (string, error) {
	acc, err := m.load(ctx, o)
	if err != nil {
		return "", err
	}
	// the reference named a merged document by another path
	if i, ok := m.index[acc.SourcePath()]; ok {
		return m.resolveMerged(i, o, r)
	}

	if r.Type == refs.Tags {
		return m.importTag(ctx, acc, o, r)
	}

	entries, err := getter(acc, r.Type)(ctx)
	if err != nil {
		return "", &oaserrors.ReferenceError{Ref: o.String(), Document: o.DocumentPath, Cause: err}
	}
	entry, ok := entries[r.Name]
	if !ok {
		return "", &oaserrors.ReferenceError{Ref: o.String(), Document: o.DocumentPath, Message: "target does not exist"}
	}

	node := refs.Qualify(nodewalk.Clone(entry), o.DocumentPath)
	coll := m.collection(r.Type)
	final, dup := m.placeName(coll, r.Name, node, o.DocumentPath)
	switch {
	case dup:
		m.result.Warnings = append(m.result.Warnings, NewEntryDeduplicatedWarning(r.Type, r.Name, o.DocumentPath))
	case final != r.Name:
		m.recordRename(r.Type, r.Name, final, o.DocumentPath)
		coll[final] = markConflict(node)
	default:
		coll[final] = node
	}

	m.j.logger.Debug("imported outer entry", "ref", o.String(), "name", final)
	return final, nil
}

// importTag adds the referenced tag when no tag of that name exists yet and
// returns its name.
func (m *merge) importTag(ctx context.Context, acc source.Accessor, o refs.OuterReference, r refs.Reference) (string, error) {
	tags, err := acc.Tags(ctx)
	if err != nil {
		return "", &oaserrors.ReferenceError{Ref: o.String(), Document: o.DocumentPath, Cause: err}
	}
	var found map[string]any
	for _, t := range tags {
		if tag := nodewalk.Map(t); tag != nil && nodewalk.String(tag["name"]) == r.Name {
			found = tag
			break
		}
	}
	if found == nil {
		return "", &oaserrors.ReferenceError{Ref: o.String(), Document: o.DocumentPath, Message: "tag does not exist"}
	}
	if !m.hasEntry(refs.Tags, r.Name) {
		m.out[refs.Tags] = append(nodewalk.Slice(m.out[refs.Tags]), nodewalk.CloneMap(found))
	}
	return r.Name, nil
}

// firstDefinition returns the name of the first definition of the document
// a bare reference points at.
func (m *merge) firstDefinition(ctx context.Context, o refs.OuterReference) (string, error) {
	var acc source.Accessor
	if i, ok := m.index[o.DocumentPath]; ok {
		acc = m.docs[i]
	} else {
		loaded, err := m.load(ctx, o)
		if err != nil {
			return "", err
		}
		acc = loaded
	}
	names, err := acc.DefinitionNames(ctx)
	if err != nil {
		return "", &oaserrors.ReferenceError{Ref: o.String(), Document: o.DocumentPath, Cause: err}
	}
	if len(names) == 0 {
		return "", &oaserrors.ReferenceError{Ref: o.String(), Document: o.DocumentPath, Message: "document has no definitions"}
	}
	return names[0], nil
}

// load returns the document at o.DocumentPath, opening it at most once per
// merge.
func (m *merge) load(ctx context.Context, o refs.OuterReference) (source.Accessor, error) {
	if acc, ok := m.cache[o.DocumentPath]; ok {
		return acc, nil
	}
	acc, err := m.loader.Open(ctx, o.DocumentPath)
	if err == nil {
		err = acc.Parse(ctx)
	}
	if err != nil {
		return nil, &oaserrors.ReferenceError{
			Ref:      o.String(),
			Document: o.DocumentPath,
			Message:  "failed to load target document",
			Cause:    err,
		}
	}
	m.j.logger.Debug("loaded outer document", "path", o.DocumentPath, "kind", string(acc.Kind()))
	m.cache[o.DocumentPath] = acc
	return acc, nil
}

// hasEntry reports whether the merged document holds the named entry.
func (m *merge) hasEntry(collection, name string) bool {
	if collection == refs.Tags {
		for _, t := range nodewalk.Slice(m.out[refs.Tags]) {
			if nodewalk.String(nodewalk.Map(t)["name"]) == name {
				return true
			}
		}
		return false
	}
	_, ok := nodewalk.Map(m.out[collection])[name]
	return ok
}

// checkInnerReferences fails on the first reference to a definition,
// parameter or response that the merged document does not hold. With
// AllowDanglingReferences set, each one becomes a warning instead.
func (m *merge) checkInnerReferences() error {
	for _, r := range danglingReferences(m.out) {
		if !m.j.config.AllowDanglingReferences {
			return &oaserrors.ReferenceError{Ref: r.String(), Message: "no such entry in the merged document"}
		}
		m.result.Warnings = append(m.result.Warnings, NewDanglingReferenceWarning(r))
		m.j.logger.Warn("dangling reference", "ref", r.String())
	}
	return nil
}

// danglingReferences returns the inner references of doc to missing
// definitions, parameters or responses.
func danglingReferences(doc map[string]any) []refs.Reference {
	var out []refs.Reference
	for _, r := range refs.Scan(doc) {
		if r.Type == refs.Tags || !refs.IsCollection(r.Type) {
			continue
		}
		if _, ok := nodewalk.Map(doc[r.Type])[r.Name]; !ok {
			out = append(out, r)
		}
	}
	return out
}
