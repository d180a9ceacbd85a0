// Package refs scans and rewrites Swagger 2.0 references inside loosely-typed
// document trees.
//
// An inner reference points into the document that contains it
// ("#/definitions/Pet"). An outer reference names another document on its
// left-hand side ("common.yaml#/definitions/Pet", "https://host/api.yaml").
package refs

import (
	"strings"

	"github.com/erraggy/specbuild/internal/nodewalk"
)

// Collection names that a reference can target.
const (
	Definitions = "definitions"
	Parameters  = "parameters"
	Responses   = "responses"
	Tags        = "tags"
	Paths       = "paths"
)

// Inner reference prefixes
const (
	RefPrefixDefinitions = "#/definitions/"
	RefPrefixParameters  = "#/parameters/"
	RefPrefixResponses   = "#/responses/"
	RefPrefixTags        = "#/tags/"
)

// RefKey is the key under which references are stored.
const RefKey = "$ref"

// Collections lists the named collections a reference may target, in the
// order the merge builds them.
var Collections = []string{Tags, Parameters, Definitions, Responses}

// IsCollection reports whether name is one of the referenceable collections.
func IsCollection(name string) bool {
	switch name {
	case Definitions, Parameters, Responses, Tags:
		return true
	}
	return false
}

// Reference is an inner reference to a named entry of a collection.
type Reference struct {
	Type string
	Name string
}

// Path returns the inner path of the reference ("/definitions/Pet").
func (r Reference) Path() string {
	return "/" + r.Type + "/" + escape(r.Name)
}

// String returns the reference as it appears in a document ("#/definitions/Pet").
func (r Reference) String() string {
	return "#" + r.Path()
}

// OuterReference is a reference into another document.
type OuterReference struct {
	// DocumentPath is the file path, package specifier or URL of the target document
	DocumentPath string
	// InnerPath is the fragment after '#', e.g. "/definitions/Pet". It is
	// empty for a bare document reference.
	InnerPath string
}

// String returns the reference as it appears in a document.
func (o OuterReference) String() string {
	if o.InnerPath == "" {
		return o.DocumentPath
	}
	return o.DocumentPath + "#" + o.InnerPath
}

// Reference parses the inner path into a collection reference.
func (o OuterReference) Reference() (Reference, bool) {
	return parseInnerPath(o.InnerPath)
}

// Ref builds "#/{typ}/{name}".
func Ref(typ, name string) string {
	return Reference{Type: typ, Name: name}.String()
}

// DefinitionRef builds "#/definitions/{name}".
func DefinitionRef(name string) string {
	return Ref(Definitions, name)
}

// ParameterRef builds "#/parameters/{name}".
func ParameterRef(name string) string {
	return Ref(Parameters, name)
}

// ResponseRef builds "#/responses/{name}".
func ResponseRef(name string) string {
	return Ref(Responses, name)
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsOuter reports whether ref names another document.
func IsOuter(ref string) bool {
	return ref != "" && !strings.HasPrefix(ref, "#")
}

// Split separates a reference into its document part and inner path.
func Split(ref string) (document, inner string) {
	document, inner, _ = strings.Cut(ref, "#")
	return document, inner
}

// ParseLocal parses an inner reference. Only references whose first segment
// is a collection name are recognized; for deeper pointers such as
// "#/definitions/Pet/properties/id" the entry name is the first segment.
func ParseLocal(ref string) (Reference, bool) {
	if !strings.HasPrefix(ref, "#") {
		return Reference{}, false
	}
	return parseInnerPath(ref[1:])
}

// ParseOuter parses an outer reference.
func ParseOuter(ref string) (OuterReference, bool) {
	if !IsOuter(ref) {
		return OuterReference{}, false
	}
	doc, inner := Split(ref)
	return OuterReference{DocumentPath: doc, InnerPath: inner}, true
}

// Name returns the entry name of an inner reference of the given type, or ""
// when ref is of another type.
func Name(ref, typ string) string {
	r, ok := ParseLocal(ref)
	if !ok || r.Type != typ {
		return ""
	}
	return r.Name
}

func parseInnerPath(inner string) (Reference, bool) {
	inner = strings.TrimPrefix(inner, "/")
	typ, rest, found := strings.Cut(inner, "/")
	if !found || rest == "" {
		return Reference{}, false
	}
	name, _, _ := strings.Cut(rest, "/")
	return Reference{Type: typ, Name: unescape(name)}, true
}

// Relocate returns the inner reference obtained by replacing the entry name
// of inner ("#/definitions/Pet/properties/id" or "/definitions/Pet") with
// name. A pointer suffix after the entry is kept.
func Relocate(inner, name string) (string, bool) {
	p := strings.TrimPrefix(strings.TrimPrefix(inner, "#"), "/")
	typ, rest, found := strings.Cut(p, "/")
	if !found || rest == "" {
		return "", false
	}
	_, suffix, _ := strings.Cut(rest, "/")
	out := Ref(typ, name)
	if suffix != "" {
		out += "/" + suffix
	}
	return out, true
}

// JSON pointer escaping (RFC 6901)
func escape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func unescape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}

// refValue returns the string value of a $ref node.
func refValue(key string, node any) (string, bool) {
	if key != RefKey {
		return "", false
	}
	s, ok := node.(string)
	return s, ok
}

// Scan returns every inner reference in node, de-duplicated, in walk order.
func Scan(node any) []Reference {
	var out []Reference
	seen := make(map[Reference]bool)
	nodewalk.Inspect(node, func(key string, n any) bool {
		ref, ok := refValue(key, n)
		if !ok {
			return true
		}
		if r, ok := ParseLocal(ref); ok && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
		return false
	})
	return out
}

// ScanNames returns the names of the inner references of the given type in node.
func ScanNames(node any, typ string) []string {
	var names []string
	for _, r := range Scan(node) {
		if r.Type == typ {
			names = append(names, r.Name)
		}
	}
	return names
}

// ScanOuter returns every outer reference in node, de-duplicated, in walk order.
func ScanOuter(node any) []OuterReference {
	var out []OuterReference
	seen := make(map[OuterReference]bool)
	nodewalk.Inspect(node, func(key string, n any) bool {
		ref, ok := refValue(key, n)
		if !ok {
			return true
		}
		if o, ok := ParseOuter(ref); ok && !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
		return false
	})
	return out
}

// Rewrite returns a copy of node in which every $ref string is passed through
// fn. fn returns the new value and whether it differs.
func Rewrite(node any, fn func(ref string) (string, bool)) any {
	return nodewalk.Transform(node, func(key string, n any) nodewalk.Result {
		ref, ok := refValue(key, n)
		if !ok {
			return nodewalk.Unchanged
		}
		if replaced, changed := fn(ref); changed {
			return nodewalk.Replace(replaced)
		}
		return nodewalk.Unchanged
	})
}

// Qualify returns a copy of node in which every inner reference is turned
// into an outer reference into document. Nodes borrowed from another document
// keep resolving against that document this way.
func Qualify(node any, document string) any {
	return Rewrite(node, func(ref string) (string, bool) {
		if IsOuter(ref) {
			return ref, false
		}
		return document + ref, true
	})
}
