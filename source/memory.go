package source

import (
	"context"

	"github.com/erraggy/specbuild/internal/nodewalk"
)

// InMemory is a document that was decoded elsewhere.
type InMemory struct {
	lazyGetters
	name string
	doc  parsedDocument
}

// NewInMemory wraps doc under the given name. The name plays the role of
// a source path: it appears in conflict renames and error messages.
// doc is copied.
func NewInMemory(name string, doc map[string]any) *InMemory {
	m := &InMemory{name: name}
	m.doc.root, _ = nodewalk.Normalize(doc).(map[string]any)
	if m.doc.root == nil {
		m.doc.root = map[string]any{}
	}
	m.doc.parsed = true
	m.lazyGetters = lazyGetters{doc: &m.doc, parse: m.Parse}
	return m
}

// SourcePath returns the name the document was registered under.
func (m *InMemory) SourcePath() string { return m.name }

// Kind returns KindMemory.
func (m *InMemory) Kind() Kind { return KindMemory }

// IsParsed is always true.
func (m *InMemory) IsParsed() bool { return true }

// Parse is a no-op.
func (m *InMemory) Parse(context.Context) error { return nil }
