package joiner

import (
	"reflect"

	"github.com/erraggy/specbuild/internal/naming"
)

// ConflictRecord describes an entry renamed because its name was already
// taken in the merged document.
type ConflictRecord struct {
	// Collection is "definitions", "parameters" or "responses".
	Collection string
	// OriginalName is the name the entry had in its source document.
	OriginalName string
	// RenamedName is the name it was inserted under.
	RenamedName string
	// Source is the document the entry came from.
	Source string
}

// placeName returns the name an entry called name from src is stored
// under in coll, and whether an identical entry already holds the name.
// A free name is kept; a taken one gets the conflict prefix, repeatedly,
// until it is free.
func (m *merge) placeName(coll map[string]any, name string, node any, src string) (string, bool) {
	existing, taken := coll[name]
	if !taken {
		return name, false
	}
	if m.j.config.DeduplicateIdentical && reflect.DeepEqual(existing, node) {
		return name, true
	}
	final := name
	for {
		final = naming.ConflictName(final, src)
		if _, taken := coll[final]; !taken {
			return final, false
		}
	}
}

// recordRename logs and records a conflict rename.
func (m *merge) recordRename(collection, name, final, src string) {
	rec := ConflictRecord{Collection: collection, OriginalName: name, RenamedName: final, Source: src}
	m.result.Conflicts = append(m.result.Conflicts, rec)
	m.result.Warnings = append(m.result.Warnings, NewEntryRenamedWarning(rec))
	m.j.logger.Warn("conflicting entry renamed",
		"collection", collection,
		"name", name,
		"renamed", final,
		"source", src,
	)
}

// markConflict tags a renamed entry with ConflictExtension.
func markConflict(node any) any {
	obj, ok := node.(map[string]any)
	if !ok {
		return node
	}
	obj[ConflictExtension] = true
	return obj
}
