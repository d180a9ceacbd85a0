package postprocess

import (
	"context"

	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/joiner"
	"github.com/erraggy/specbuild/refs"
)

// FlattenConflictedAllOf collapses definitions that extend a
// conflict-renamed definition through allOf.
//
// A definition overriding another document's definition of the same name
// ends up as an allOf over the renamed original:
//
//	Pet:
//	  allOf:
//	    - $ref: '#/definitions/_ApiPet'
//	    - type: object
//	      properties:
//	        extra: {type: string}
//
// The stage copies the properties and required fields of the renamed
// original into the extending object, keeping the overriding ones. When the
// allOf holds only that reference and the extension, the allOf is replaced by
// the merged object. Renamed definitions nothing references any more are
// removed.
func FlattenConflictedAllOf() Stage {
	return NewStage("flatten-conflicted-allof", func(_ context.Context, doc map[string]any) (map[string]any, error) {
		flattenConflictedAllOf(doc)
		return doc, nil
	})
}

func flattenConflictedAllOf(doc map[string]any) {
	defs := nodewalk.Map(doc[refs.Definitions])
	conflicted := make(map[string]map[string]any)
	for name, def := range defs {
		m := nodewalk.Map(def)
		if isConflicted(m) {
			conflicted[name] = m
		}
	}
	if len(conflicted) == 0 {
		return
	}

	for _, name := range nodewalk.SortedKeys(defs) {
		def := nodewalk.Map(defs[name])
		if def == nil || isConflicted(def) {
			continue
		}
		allOf := nodewalk.Slice(def["allOf"])
		base, at := conflictedMember(allOf, conflicted)
		if base == nil {
			continue
		}

		extIndex := -1
		for i, member := range allOf {
			if m := nodewalk.Map(member); m != nil && m[refs.RefKey] == nil {
				extIndex = i
				break
			}
		}

		if len(allOf) == 2 && extIndex >= 0 {
			ext := nodewalk.Map(allOf[extIndex])
			absorb(ext, base)
			delete(def, "allOf")
			for _, k := range []string{"properties", "type", "required"} {
				if v, ok := ext[k]; ok {
					def[k] = v
				}
			}
			if d, ok := ext["description"]; ok {
				def["description"] = d
			} else if d, ok := base["description"]; ok {
				def["description"] = nodewalk.Clone(d)
			}
			continue
		}

		var ext map[string]any
		if extIndex >= 0 {
			ext = nodewalk.Map(allOf[extIndex])
		} else {
			ext = map[string]any{"type": "object", "properties": map[string]any{}}
			allOf = append(allOf, ext)
		}
		absorb(ext, base)
		def["allOf"] = append(allOf[:at:at], allOf[at+1:]...)
	}

	used := make(map[string]bool)
	for _, name := range refs.ScanNames(doc, refs.Definitions) {
		used[name] = true
	}
	for name := range conflicted {
		if !used[name] {
			delete(defs, name)
		}
	}
}

func isConflicted(def map[string]any) bool {
	v, _ := def[joiner.ConflictExtension].(bool)
	return v
}

// conflictedMember returns the first allOf member referencing a conflicted
// definition, and its index.
func conflictedMember(allOf []any, conflicted map[string]map[string]any) (map[string]any, int) {
	for i, member := range allOf {
		ref := nodewalk.String(nodewalk.Map(member)[refs.RefKey])
		if def, ok := conflicted[refs.Name(ref, refs.Definitions)]; ok {
			return def, i
		}
	}
	return nil, -1
}

// absorb copies the properties of base missing from ext, and the required
// fields of base, into ext.
func absorb(ext, base map[string]any) {
	props := nodewalk.Map(ext["properties"])
	if props == nil {
		props = make(map[string]any)
	}
	for k, v := range nodewalk.Map(base["properties"]) {
		if _, ok := props[k]; !ok {
			props[k] = nodewalk.Clone(v)
		}
	}
	if len(props) > 0 {
		ext["properties"] = props
	}

	required := nodewalk.Slice(ext["required"])
	present := make(map[string]bool, len(required))
	for _, r := range required {
		present[nodewalk.String(r)] = true
	}
	for _, r := range nodewalk.Slice(base["required"]) {
		if name := nodewalk.String(r); name != "" && !present[name] {
			present[name] = true
			required = append(required, name)
		}
	}
	if len(required) > 0 {
		ext["required"] = required
	}
}
