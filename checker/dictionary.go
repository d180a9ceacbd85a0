package checker

import (
	"fmt"
	"strings"

	"github.com/erraggy/specbuild/internal/issues"
	"github.com/erraggy/specbuild/internal/nodewalk"
	"github.com/erraggy/specbuild/internal/severity"
	"github.com/erraggy/specbuild/refs"
)

// Dictionary annotations carried by a field schema.
const (
	ExtDictionaryName = "x-dictionary-name"
	ExtFieldType      = "x-field-type"
	ExtFieldName      = "x-field-name"
	ExtMapName        = "x-map-name"
)

var annotationKeys = []string{ExtDictionaryName, ExtFieldType, ExtFieldName, ExtMapName}

// DictionaryChecker reports dictionary annotations that no reply definition
// can satisfy.
//
// A field annotated with x-dictionary-name and x-field-type declares that the
// reply carrying it embeds a dictionary: a field named after the dictionary
// whose schema ($ref, additionalProperties or type) ends with the field
// type. For every reply definition, each annotation reachable from it must
// find such a dictionary field reachable from it as well.
type DictionaryChecker struct{}

// Name implements Checker.
func (DictionaryChecker) Name() string { return "dictionary" }

// dictionaryRef is one dictionary annotation.
type dictionaryRef struct {
	dictionary string
	fieldType  string
	// declaredBy is the definition holding the annotated field
	declaredBy string
	field      string
	required   bool
}

// definitionInfo is a definition with its references and annotations.
type definitionInfo struct {
	node         any
	referTo      []string
	dictionaries []dictionaryRef
}

// Check implements Checker.
func (DictionaryChecker) Check(doc map[string]any) Report {
	defs := nodewalk.Map(doc[refs.Definitions])
	graph := make(map[string]*definitionInfo, len(defs))
	for _, name := range nodewalk.SortedKeys(defs) {
		graph[name] = &definitionInfo{
			node:         defs[name],
			referTo:      refs.ScanNames(defs[name], refs.Definitions),
			dictionaries: dictionaryRefs(name, defs[name]),
		}
	}

	var report Report
	seen := make(map[string]bool)
	for _, reply := range replyDefinitions(doc) {
		if graph[reply] == nil {
			continue
		}
		for _, d := range reachableDictionaries(reply, graph) {
			if embedsDictionary(reply, d, graph) {
				continue
			}
			required := ""
			if d.required {
				required = ", required"
			}
			msg := fmt.Sprintf("dictionary %s (type: %s%s) referred by %s.%s is missing in %s",
				d.dictionary, d.fieldType, required, d.declaredBy, d.field, reply)
			if seen[reply+"\x00"+msg] {
				continue
			}
			seen[reply+"\x00"+msg] = true

			var details []string
			for _, p := range referencePaths(reply, d.declaredBy, graph) {
				details = append(details, fmt.Sprintf("Path from %s to %s: %s", reply, d.declaredBy, strings.Join(p, " -> ")))
			}
			report = append(report, Finding{
				Path:     issues.NodePath(refs.Definitions, reply),
				Message:  msg,
				Details:  details,
				Node:     reply,
				Severity: severity.SeverityError,
			})
		}
	}
	return report
}

// replyDefinitions returns the definitions referenced from the responses of
// the operations, in path then method order. Responses given as references
// to the responses collection are followed.
func replyDefinitions(doc map[string]any) []string {
	shared := nodewalk.Map(doc[refs.Responses])
	var replies []string
	seen := make(map[string]bool)
	add := func(names []string) {
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				replies = append(replies, name)
			}
		}
	}

	for _, op := range operations(doc) {
		responses := op.node["responses"]
		add(refs.ScanNames(responses, refs.Definitions))
		for _, name := range refs.ScanNames(responses, refs.Responses) {
			add(refs.ScanNames(shared[name], refs.Definitions))
		}
	}
	return replies
}

// dictionaryRefs collects the annotated fields of a definition. A field
// annotated twice keeps its last annotation.
func dictionaryRefs(definition string, node any) []dictionaryRef {
	byField := make(map[string]dictionaryRef)
	collectDictionaries(node, "", nil, byField)

	out := make([]dictionaryRef, 0, len(byField))
	for _, field := range nodewalk.SortedKeys(byField) {
		d := byField[field]
		d.declaredBy = definition
		out = append(out, d)
	}
	return out
}

func collectDictionaries(node any, field string, required map[string]bool, out map[string]dictionaryRef) {
	switch n := node.(type) {
	case []any:
		for _, item := range n {
			collectDictionaries(item, "", nil, out)
		}
	case map[string]any:
		if nodewalk.String(n["type"]) == "object" {
			req := make(map[string]bool)
			for _, r := range nodewalk.Slice(n["required"]) {
				req[nodewalk.String(r)] = true
			}
			props := nodewalk.Map(n["properties"])
			for _, k := range nodewalk.SortedKeys(props) {
				collectDictionaries(props[k], k, req, out)
			}
			return
		}

		if field != "" && hasAnnotation(n) {
			out[field] = dictionaryRef{
				dictionary: nodewalk.String(n[ExtDictionaryName]),
				fieldType:  nodewalk.String(n[ExtFieldType]),
				field:      field,
				required:   required[field],
			}
		}
		for _, k := range nodewalk.SortedKeys(n) {
			collectDictionaries(n[k], k, nil, out)
		}
	}
}

func hasAnnotation(n map[string]any) bool {
	for k := range n {
		for _, prefix := range annotationKeys {
			if strings.HasPrefix(k, prefix) {
				return true
			}
		}
	}
	return false
}

// reachableDictionaries returns the annotations of name and of every
// definition it reaches.
func reachableDictionaries(name string, graph map[string]*definitionInfo) []dictionaryRef {
	var out []dictionaryRef
	visited := make(map[string]bool)
	var walk func(string)
	walk = func(n string) {
		info := graph[n]
		if info == nil || visited[n] {
			return
		}
		visited[n] = true
		out = append(out, info.dictionaries...)
		for _, next := range info.referTo {
			walk(next)
		}
	}
	walk(name)
	return out
}

// embedsDictionary reports whether name, or a definition it reaches, holds a
// field named after the dictionary of d with a schema of its type.
func embedsDictionary(name string, d dictionaryRef, graph map[string]*definitionInfo) bool {
	visited := make(map[string]bool)
	var walk func(string) bool
	walk = func(n string) bool {
		info := graph[n]
		if info == nil || visited[n] {
			return false
		}
		visited[n] = true
		if nodeEmbeds(info.node, "", d) {
			return true
		}
		for _, next := range info.referTo {
			if walk(next) {
				return true
			}
		}
		return false
	}
	return walk(name)
}

func nodeEmbeds(node any, field string, d dictionaryRef) bool {
	switch n := node.(type) {
	case []any:
		for _, item := range n {
			if nodeEmbeds(item, "", d) {
				return true
			}
		}
	case map[string]any:
		if field != "" && field == d.dictionary {
			return d.fieldType != "" && strings.HasSuffix(dictionaryResource(n), d.fieldType)
		}
		for _, k := range nodewalk.SortedKeys(n) {
			if nodeEmbeds(n[k], k, d) {
				return true
			}
		}
	}
	return false
}

// dictionaryResource is the type a dictionary field holds.
func dictionaryResource(n map[string]any) string {
	if r := nodewalk.String(n[refs.RefKey]); r != "" {
		return r
	}
	additional := nodewalk.Map(n["additionalProperties"])
	if r := nodewalk.String(additional[refs.RefKey]); r != "" {
		return r
	}
	if t := nodewalk.String(additional["type"]); t != "" {
		return t
	}
	return nodewalk.String(n["type"])
}

// referencePaths returns the distinct acyclic reference chains from one
// definition to another.
func referencePaths(from, to string, graph map[string]*definitionInfo) [][]string {
	var paths [][]string
	seen := make(map[string]bool)
	onPath := make(map[string]bool)
	var walk func(n string, current []string)
	walk = func(n string, current []string) {
		info := graph[n]
		if info == nil || onPath[n] {
			return
		}
		current = append(current[:len(current):len(current)], n)
		if n == to {
			key := strings.Join(current, "\x00")
			if !seen[key] {
				seen[key] = true
				paths = append(paths, current)
			}
			return
		}
		onPath[n] = true
		for _, next := range info.referTo {
			walk(next, current)
		}
		onPath[n] = false
	}
	walk(from, nil)
	return paths
}
